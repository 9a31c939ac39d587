package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signa-app/trademark-console/internal/apiclient"
	"github.com/signa-app/trademark-console/internal/brands"
	"github.com/signa-app/trademark-console/internal/models"
	"github.com/signa-app/trademark-console/internal/session"
	"github.com/signa-app/trademark-console/internal/testutil"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *capturePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := event.(Event); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func newOrchestrator(t *testing.T, baseURL string) (*Orchestrator, *session.MemoryStore, *Recorder, *capturePublisher, *apiclient.Client) {
	t.Helper()
	store := session.NewMemoryStore()
	client := apiclient.NewClient(baseURL, store, apiclient.WithTimeout(5*time.Second))
	rec := &Recorder{}
	pub := &capturePublisher{}
	o := New(client, store, WithNavigator(rec), WithEvents(pub, "session_events"))
	return o, store, rec, pub, client
}

func TestRestore(t *testing.T) {
	t.Parallel()
	now := time.Now()

	tests := []struct {
		name      string
		token     string
		wantState State
		wantUser  *models.User
		wantKept  bool
	}{
		{
			name: "valid with profile",
			token: sign(t, jwt.MapClaims{
				"sub": "7", "email": "ana@signa.test", "first_name": "Ana", "last_name": "Lima",
				"exp": now.Add(time.Hour).Unix(),
			}),
			wantState: StateAuthenticated,
			wantUser:  &models.User{ID: "7", Email: "ana@signa.test", FirstName: "Ana", LastName: "Lima"},
			wantKept:  true,
		},
		{
			name:      "valid without profile",
			token:     sign(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}),
			wantState: StateAuthenticated,
			wantKept:  true,
		},
		{
			name:      "expired",
			token:     sign(t, jwt.MapClaims{"sub": "7", "exp": now.Add(-time.Second).Unix()}),
			wantState: StateUnauthenticated,
		},
		{
			name:      "no exp",
			token:     sign(t, jwt.MapClaims{"sub": "7"}),
			wantState: StateUnauthenticated,
		},
		{
			name:      "malformed",
			token:     "not-a-token",
			wantState: StateUnauthenticated,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			o, store, rec, _, _ := newOrchestrator(t, "http://127.0.0.1:1")
			require.NoError(t, store.Save(ctx, tt.token))

			assert.Equal(t, tt.wantState, o.Restore(ctx))
			snap := o.Snapshot()
			assert.Equal(t, tt.wantState, snap.State)
			assert.Equal(t, tt.wantUser, snap.User)
			assert.Equal(t, tt.wantKept, store.IsPresent(ctx))
			assert.Empty(t, rec.Routes())
		})
	}
}

func TestRestore_NoToken(t *testing.T) {
	t.Parallel()
	o, _, _, _, _ := newOrchestrator(t, "http://127.0.0.1:1")
	assert.Equal(t, StateUnauthenticated, o.Restore(context.Background()))
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := testutil.NewBackend(t)
	b.AddAccount(testutil.DefaultAccount)
	o, store, rec, pub, _ := newOrchestrator(t, b.URL())

	user, err := o.Login(ctx, " ana@signa.test ", "secret")
	require.NoError(t, err)
	assert.Equal(t, models.User{ID: "7", Email: "ana@signa.test", FirstName: "Ana", LastName: "Lima"}, user)

	snap := o.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, "Ana Lima", snap.FullName)

	token, ok := store.Get(ctx)
	require.True(t, ok)
	assert.True(t, session.DecodeExpiry(token, time.Now()))
	assert.Equal(t, []string{RouteDashboard}, rec.Routes())
	assert.Equal(t, []string{EventLogin}, pub.types())

	login := b.RequestsTo("/auth/login")
	require.Len(t, login, 1)
	assert.Empty(t, login[0].Authorization)
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := testutil.NewBackend(t)
	b.AddAccount(testutil.DefaultAccount)
	o, store, rec, _, _ := newOrchestrator(t, b.URL())

	_, err := o.Login(ctx, "ana@signa.test", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", err.Error())
	assert.Equal(t, StateUnauthenticated, o.State())
	assert.False(t, store.IsPresent(ctx))

	_, err = o.Login(ctx, "", "secret")
	require.ErrorIs(t, err, models.ErrValidation)

	assert.Empty(t, rec.Routes())
	assert.Len(t, b.RequestsTo("/auth/login"), 1)
}

func TestLogin_DefaultMessageWithoutDetail(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	o, _, _, _, _ := newOrchestrator(t, srv.URL)

	_, err := o.Login(context.Background(), "ana@signa.test", "secret")
	require.ErrorIs(t, err, ErrLoginFailed)
	assert.Equal(t, "login failed", err.Error())
	assert.Equal(t, StateUnauthenticated, o.State())
}

func TestLogin_MissingTokenInResponse(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id": 1}`))
	}))
	t.Cleanup(srv.Close)
	o, _, _, _, _ := newOrchestrator(t, srv.URL)

	_, err := o.Login(context.Background(), "ana@signa.test", "secret")
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestLogin_NetworkErrorIsDistinct(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	o, _, _, _, _ := newOrchestrator(t, url)

	_, err := o.Login(context.Background(), "ana@signa.test", "secret")
	require.ErrorIs(t, err, apiclient.ErrNetwork)
	assert.False(t, errors.Is(err, ErrLoginFailed))
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := testutil.NewBackend(t)
	b.AddAccount(testutil.DefaultAccount)

	store := session.NewMemoryStore()
	client := apiclient.NewClient(b.URL(), store)
	rec := &Recorder{}
	pub := &capturePublisher{err: errors.New("broker down")}
	ended := 0
	o := New(client, store, WithNavigator(rec), WithEvents(pub, "t"), OnSessionEnd(func() { ended++ }))

	_, err := o.Login(ctx, "ana@signa.test", "secret")
	require.NoError(t, err)

	o.Logout(ctx)
	assert.Equal(t, StateUnauthenticated, o.State())
	assert.Nil(t, o.Snapshot().User)
	assert.False(t, store.IsPresent(ctx))
	assert.Equal(t, []string{RouteDashboard, RouteLogin}, rec.Routes())
	assert.Equal(t, []string{EventLogin, EventLogout}, pub.types())
	assert.Equal(t, 1, ended)
}

func TestUnauthorized_EndsSessionAndNavigatesOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := testutil.NewBackend(t)
	b.AddAccount(testutil.DefaultAccount)
	o, store, rec, pub, client := newOrchestrator(t, b.URL())
	col := brands.NewCollection(brands.NewAPI(client), 5)

	_, err := o.Login(ctx, "ana@signa.test", "secret")
	require.NoError(t, err)

	b.SetHook(func(c echo.Context) error {
		if c.Request().URL.Path != "/auth/login" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}
		return nil
	})

	err = col.Reload(ctx)
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)
	_, err = col.SetStatus(ctx, 1, models.StatusRegistered)
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)

	assert.Equal(t, StateUnauthenticated, o.State())
	assert.False(t, store.IsPresent(ctx))
	assert.Equal(t, 1, rec.Count(RouteLogin))
	assert.Equal(t, []string{EventLogin, EventExpired}, pub.types())
}

func TestContextNavigator_RecordsPerCall(t *testing.T) {
	t.Parallel()
	rec := &Recorder{}
	nav := ContextNavigator{Next: rec}

	ctx, redirect := WithRedirect(context.Background())
	nav.Navigate(ctx, RouteDashboard)
	assert.Equal(t, RouteDashboard, redirect.Route())

	nav.Navigate(context.Background(), RouteLogin)
	assert.Equal(t, RouteDashboard, redirect.Route())
	assert.Equal(t, []string{RouteDashboard, RouteLogin}, rec.Routes())
}
