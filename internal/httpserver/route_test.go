package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signa-app/trademark-console/internal/apiclient"
	"github.com/signa-app/trademark-console/internal/audit"
	"github.com/signa-app/trademark-console/internal/auth"
	"github.com/signa-app/trademark-console/internal/brands"
	"github.com/signa-app/trademark-console/internal/logging"
	"github.com/signa-app/trademark-console/internal/metrics"
	"github.com/signa-app/trademark-console/internal/models"
	"github.com/signa-app/trademark-console/internal/registration"
	"github.com/signa-app/trademark-console/internal/session"
	"github.com/signa-app/trademark-console/internal/testutil"
)

type harness struct {
	e       *echo.Echo
	backend *testutil.Backend
	store   *session.MemoryStore
	auth    *auth.Orchestrator
	nav     *auth.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := testutil.NewBackend(t)
	b.AddAccount(testutil.DefaultAccount)

	reg := prometheus.NewRegistry()
	m := metrics.NewAPI()
	require.NoError(t, m.Register(reg))

	store := session.NewMemoryStore()
	client := apiclient.NewClient(b.URL(), store, apiclient.WithMetrics(m))
	rec := &auth.Recorder{}
	nav := auth.ContextNavigator{Next: rec}

	col := brands.NewCollection(brands.NewAPI(client), 5)
	auditAPI := audit.NewAPI(client)
	engine := audit.NewEngine(auditAPI, 100, 6)
	wizard := registration.New(col, nav)
	orch := auth.New(client, store,
		auth.WithNavigator(nav),
		auth.OnSessionEnd(col.Reset),
		auth.OnSessionEnd(engine.Reset),
		auth.OnSessionEnd(wizard.Reset),
	)

	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(RequestLogger(logging.Discard()))
	Register(e, &Deps{
		SessionHandler:      &SessionHTTP{AppName: "Signa", Auth: orch},
		BrandsHandler:       &BrandsHTTP{Brands: col, History: auditAPI, HistorySize: 100},
		AuditHandler:        &AuditHTTP{Engine: engine},
		RegistrationHandler: &RegistrationHTTP{Wizard: wizard},
		Navigator:           nav,
		Gatherer:            reg,
	})
	return &harness{e: e, backend: b, store: store, auth: orch, nav: rec}
}

func (h *harness) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/login", map[string]string{"email": "ana@signa.test", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["message"]
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health/ready", nil).Code)

	h.login(t)
	rec := h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console_api_requests_total")
}

func TestSessionGuardRedirectsToLogin(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/brands", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.RouteLogin, rec.Header().Get(HeaderRedirect))
	assert.Empty(t, h.backend.RequestsTo("/brands"))
}

func TestLoginAndLogout(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/login", map[string]string{"email": "ana@signa.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect email or password", message(t, rec))
	assert.Empty(t, rec.Header().Get(HeaderRedirect))

	rec = h.do(t, http.MethodPost, "/api/login", map[string]string{"email": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/login", map[string]string{"email": "ana@signa.test", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.RouteDashboard, rec.Header().Get(HeaderRedirect))
	sess := decode[map[string]any](t, rec)
	assert.Equal(t, "Signa", sess["app_name"])
	assert.Equal(t, "authenticated", sess["state"])
	assert.Equal(t, "Ana Lima", sess["full_name"])

	rec = h.do(t, http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.RouteLogin, rec.Header().Get(HeaderRedirect))
	assert.Equal(t, "unauthenticated", decode[map[string]any](t, rec)["state"])
	assert.False(t, h.store.IsPresent(context.Background()))
}

func TestBrandLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodPost, "/api/brands", models.CreateBrandData{Name: "Acme", Owner: "Acme Corp", RegistrationNumber: "TM-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Brand](t, rec)

	rec = h.do(t, http.MethodPost, "/api/brands", models.CreateBrandData{Name: "Acme"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/brands?q=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[brands.DashboardPage](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created, page.Items[0])

	rec = h.do(t, http.MethodPatch, "/api/brands/1/status?status=REGISTERED", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusRegistered, decode[models.Brand](t, rec).Status)

	rec = h.do(t, http.MethodPut, "/api/brands/1", map[string]string{"owner": "Acme Holdings"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Holdings", decode[models.Brand](t, rec).Owner)

	rec = h.do(t, http.MethodGet, "/api/brands/1?tab=history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[brandDetail](t, rec)
	assert.Equal(t, "Registered", detail.StatusLabel)
	require.Len(t, detail.History, 3)
	assert.Equal(t, "Brand edited", detail.History[0].ActionLabel)

	rec = h.do(t, http.MethodGet, "/api/brands/1?tab=owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail = decode[brandDetail](t, rec)
	require.NotNil(t, detail.Owner)
	assert.Equal(t, testutil.DefaultAccount.Email, detail.Owner.Creator.Email)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/brands/1?tab=files", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/brands/99", nil).Code)

	rec = h.do(t, http.MethodDelete, "/api/brands/1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, h.backend.Brands(), 1)

	rec = h.do(t, http.MethodDelete, "/api/brands/1?confirm=true", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, h.backend.Brands())
}

func TestUpstreamUnauthorizedEndsSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login(t)
	h.backend.SetHook(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
	})

	rec := h.do(t, http.MethodGet, "/api/brands", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.RouteLogin, rec.Header().Get(HeaderRedirect))
	assert.Equal(t, auth.StateUnauthenticated, h.auth.State())
	assert.False(t, h.store.IsPresent(context.Background()))

	rec = h.do(t, http.MethodGet, "/api/audit", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 2, h.nav.Count(auth.RouteLogin), "one from the expiry, one from the guard")
}

func TestAuditUnauthorizedWhileAuthenticated(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login(t)
	h.backend.SetHook(func(c echo.Context) error {
		if strings.HasPrefix(c.Request().URL.Path, "/audit") {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}
		return nil
	})

	rec := h.do(t, http.MethodGet, "/api/audit", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.RouteLogin, rec.Header().Get(HeaderRedirect))
	assert.Equal(t, auth.StateUnauthenticated, h.auth.State())
	assert.Equal(t, 1, h.nav.Count(auth.RouteLogin))
}

func TestUpstreamRejectionKeepsStatus(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login(t)
	h.backend.SetHook(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "maintenance")
	})

	rec := h.do(t, http.MethodGet, "/api/brands", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "maintenance", message(t, rec))
}

func TestAuditViewer(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.backend.SeedAudit(
		models.AuditLog{BrandID: 1, BrandName: "Acme", UserEmail: "a@x.com", Action: models.ActionCreate, Timestamp: "2024-03-01T10:00:00"},
		models.AuditLog{BrandID: 2, BrandName: "Beta", UserEmail: "b@x.com", Action: "MERGE", Timestamp: "2024-04-01T10:00:00"},
	)
	h.login(t)

	rec := h.do(t, http.MethodGet, "/api/audit?q=a@x", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[audit.View](t, rec)
	assert.Equal(t, audit.StateSuccess, view.State)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Acme", view.Items[0].BrandName)
	require.NotNil(t, view.Statistics)
	assert.EqualValues(t, 2, view.Statistics.TotalAudits)

	rec = h.do(t, http.MethodPost, "/api/audit/filters", audit.Filters{BrandID: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[audit.View](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "MERGE", view.Items[0].ActionLabel)
	assert.Equal(t, "brand", view.Route)

	rec = h.do(t, http.MethodPost, "/api/audit/filters", audit.Filters{DateFrom: "March"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodDelete, "/api/audit/filters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[audit.View](t, rec).Items, 2)

	rec = h.do(t, http.MethodPut, "/api/audit/window?skip=1&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[audit.View](t, rec)
	assert.Equal(t, audit.Window{Skip: 1, Limit: 10}, view.Window)
	assert.Len(t, view.Items, 1)
}

func TestAuditFailureIsRetryable(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.backend.SeedAudit(models.AuditLog{Action: models.ActionDelete})
	h.login(t)
	h.backend.SetHook(func(c echo.Context) error {
		if c.Request().URL.Path == "/audit" {
			return echo.NewHTTPError(http.StatusInternalServerError, "boom")
		}
		return nil
	})

	rec := h.do(t, http.MethodGet, "/api/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[audit.View](t, rec)
	assert.Equal(t, audit.StateError, view.State)
	assert.Equal(t, "boom", view.Error)

	h.backend.SetHook(nil)
	rec = h.do(t, http.MethodPost, "/api/audit/retry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[audit.View](t, rec)
	assert.Equal(t, audit.StateSuccess, view.State)
	assert.Len(t, view.Items, 1)
}

func TestRegistrationWizard(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodPost, "/api/registration/next", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPut, "/api/registration", registration.Draft{Name: "Acme", Owner: "Acme Corp", RegistrationNumber: "TM-5"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/registration/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/registration/next", nil).Code)
	}
	rec = h.do(t, http.MethodGet, "/api/registration", nil)
	assert.Equal(t, 3, decode[registration.Snapshot](t, rec).Step)

	rec = h.do(t, http.MethodPost, "/api/registration/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, auth.RouteDashboard, rec.Header().Get(HeaderRedirect))
	out := decode[submitResponse](t, rec)
	assert.Equal(t, "TM-5", out.Brand.RegistrationNumber)
	assert.Equal(t, 1, out.Wizard.Step)
	assert.Len(t, h.backend.Brands(), 1)
}
