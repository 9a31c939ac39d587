package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/signa-app/trademark-console/internal/models"
)

// Account is a user the fake backend accepts on /auth/login.
type Account struct {
	ID        int64
	Email     string
	Password  string
	FirstName string
	LastName  string
	Username  string
}

type RecordedRequest struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
}

// Backend is an in-memory stand-in for the remote trademark API.
type Backend struct {
	Secret []byte

	mu          sync.Mutex
	accounts    []Account
	brands      []models.Brand
	audits      []models.AuditLog
	nextBrandID int64
	nextAuditID int64
	requests    []RecordedRequest
	hook        func(c echo.Context) error

	e   *echo.Echo
	srv *httptest.Server
}

func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		Secret:      []byte("backend-test-secret"),
		nextBrandID: 1,
		nextAuditID: 1,
	}
	b.e = echo.New()
	b.e.HideBanner = true
	b.routes()
	b.srv = httptest.NewServer(b.e)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *Backend) URL() string { return b.srv.URL }

func (b *Backend) AddAccount(a Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts = append(b.accounts, a)
}

// SetHook runs fn before every request; a non-nil error becomes the response.
func (b *Backend) SetHook(fn func(c echo.Context) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hook = fn
}

func (b *Backend) SeedBrand(br models.Brand) models.Brand {
	b.mu.Lock()
	defer b.mu.Unlock()
	if br.ID == 0 {
		br.ID = b.nextBrandID
	}
	if br.ID >= b.nextBrandID {
		b.nextBrandID = br.ID + 1
	}
	if br.Status == "" {
		br.Status = models.StatusPending
	}
	b.brands = append(b.brands, br)
	return br
}

func (b *Backend) SeedAudit(logs ...models.AuditLog) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range logs {
		if l.ID == 0 {
			l.ID = b.nextAuditID
		}
		if l.ID >= b.nextAuditID {
			b.nextAuditID = l.ID + 1
		}
		b.audits = append(b.audits, l)
	}
}

func (b *Backend) Brands() []models.Brand {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Brand(nil), b.brands...)
}

func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// RequestsTo returns recorded requests whose path starts with prefix.
func (b *Backend) RequestsTo(prefix string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range b.Requests() {
		if strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// IssueToken signs a token for a known account, valid for ttl (negative
// ttl yields an already expired token).
func (b *Backend) IssueToken(a Account, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub":        strconv.FormatInt(a.ID, 10),
		"email":      a.Email,
		"first_name": a.FirstName,
		"last_name":  a.LastName,
		"exp":        time.Now().Add(ttl).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.Secret)
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	return tok
}

func detail(code int, msg string) *echo.HTTPError {
	return echo.NewHTTPError(code, map[string]string{"detail": msg})
}

func (b *Backend) routes() {
	b.e.HTTPErrorHandler = func(err error, c echo.Context) {
		if he, ok := err.(*echo.HTTPError); ok {
			if m, ok := he.Message.(map[string]string); ok {
				_ = c.JSON(he.Code, m)
				return
			}
			_ = c.JSON(he.Code, map[string]any{"detail": fmt.Sprint(he.Message)})
			return
		}
		_ = c.JSON(http.StatusInternalServerError, map[string]string{"detail": err.Error()})
	}
	b.e.Use(b.record)

	b.e.POST("/auth/login", b.login)

	api := b.e.Group("", b.requireToken)
	api.GET("/brands/", b.listBrands)
	api.POST("/brands/", b.createBrand)
	api.GET("/brands/:id", b.getBrand)
	api.PUT("/brands/:id", b.updateBrand)
	api.DELETE("/brands/:id", b.deleteBrand)
	api.PATCH("/brands/:id/status", b.setStatus)

	api.GET("/audit", b.auditAll)
	api.GET("/audit/statistics", b.statistics)
	api.GET("/audit/brand/:id", b.auditByBrand)
	api.GET("/audit/user/:id", b.auditByUser)
	api.GET("/audit/action/:action", b.auditByAction)
	api.GET("/audit/date-range", b.auditAll)
	api.GET("/audit/search", b.auditSearch)
}

func (b *Backend) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
		})
		hook := b.hook
		b.mu.Unlock()
		if hook != nil {
			if err := hook(c); err != nil {
				return err
			}
		}
		return next(c)
	}
}

func (b *Backend) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		if raw == "" {
			return detail(http.StatusUnauthorized, "Not authenticated")
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return b.Secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return detail(http.StatusUnauthorized, "Could not validate credentials")
		}
		sub, _ := claims.GetSubject()
		acc, ok := b.account(func(a Account) bool { return strconv.FormatInt(a.ID, 10) == sub })
		if !ok {
			return detail(http.StatusUnauthorized, "Could not validate credentials")
		}
		c.Set("account", acc)
		return next(c)
	}
}

func (b *Backend) account(match func(Account) bool) (Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if match(a) {
			return a, true
		}
	}
	return Account{}, false
}

func (b *Backend) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return detail(http.StatusBadRequest, "invalid body")
	}
	acc, ok := b.account(func(a Account) bool { return a.Email == req.Email && a.Password == req.Password })
	if !ok {
		return detail(http.StatusUnauthorized, "Incorrect email or password")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"access_token": b.IssueToken(acc, time.Hour),
		"token_type":   "bearer",
		"user_id":      acc.ID,
		"email":        acc.Email,
		"first_name":   acc.FirstName,
		"last_name":    acc.LastName,
	})
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, detail(http.StatusUnprocessableEntity, "id must be a positive integer")
	}
	return id, nil
}

func (b *Backend) listBrands(c echo.Context) error {
	return c.JSON(http.StatusOK, b.Brands())
}

func (b *Backend) findBrand(id int64) (int, bool) {
	for i, br := range b.brands {
		if br.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (b *Backend) getBrand(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.findBrand(id)
	if !ok {
		return detail(http.StatusNotFound, "Brand not found")
	}
	return c.JSON(http.StatusOK, b.brands[i])
}

func (b *Backend) createBrand(c echo.Context) error {
	var req models.CreateBrandData
	if err := c.Bind(&req); err != nil {
		return detail(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Owner == "" || req.RegistrationNumber == "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "name, owner and registration_number are required"}},
		})
	}
	acc := c.Get("account").(Account)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, br := range b.brands {
		if br.RegistrationNumber == req.RegistrationNumber {
			return detail(http.StatusBadRequest, "Registration number already exists")
		}
	}
	br := models.Brand{
		ID:                 b.nextBrandID,
		Name:               req.Name,
		Description:        req.Description,
		Owner:              req.Owner,
		RegistrationNumber: req.RegistrationNumber,
		Status:             models.StatusPending,
		CreatedBy:          acc.ID,
		Creator: models.Creator{
			ID:        acc.ID,
			FirstName: acc.FirstName,
			LastName:  acc.LastName,
			Username:  acc.Username,
			Email:     acc.Email,
		},
	}
	b.nextBrandID++
	b.brands = append(b.brands, br)
	b.appendAudit(c, acc, br, models.ActionCreate, "Brand created")
	return c.JSON(http.StatusCreated, br)
}

func (b *Backend) updateBrand(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req models.UpdateBrandData
	if err := c.Bind(&req); err != nil {
		return detail(http.StatusBadRequest, "invalid body")
	}
	acc := c.Get("account").(Account)

	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.findBrand(id)
	if !ok {
		return detail(http.StatusNotFound, "Brand not found")
	}
	br := b.brands[i]
	if req.Name != nil {
		br.Name = *req.Name
	}
	if req.Description != nil {
		br.Description = *req.Description
	}
	if req.Owner != nil {
		br.Owner = *req.Owner
	}
	if req.RegistrationNumber != nil {
		br.RegistrationNumber = *req.RegistrationNumber
	}
	if req.Status != nil {
		br.Status = *req.Status
	}
	b.brands[i] = br
	b.appendAudit(c, acc, br, models.ActionUpdate, "Brand updated")
	return c.JSON(http.StatusOK, br)
}

func (b *Backend) deleteBrand(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	acc := c.Get("account").(Account)

	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.findBrand(id)
	if !ok {
		return detail(http.StatusNotFound, "Brand not found")
	}
	br := b.brands[i]
	b.brands = append(b.brands[:i], b.brands[i+1:]...)
	b.appendAudit(c, acc, br, models.ActionDelete, "Brand deleted")
	return c.NoContent(http.StatusNoContent)
}

func (b *Backend) setStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	status := models.BrandStatus(c.QueryParam("status"))
	if !status.Valid() {
		return detail(http.StatusBadRequest, "Invalid status")
	}
	acc := c.Get("account").(Account)

	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.findBrand(id)
	if !ok {
		return detail(http.StatusNotFound, "Brand not found")
	}
	if b.brands[i].Status == models.StatusCancelled {
		return detail(http.StatusBadRequest, "Cancelled brands cannot change status")
	}
	old := b.brands[i].Status
	b.brands[i].Status = status
	b.appendAudit(c, acc, b.brands[i], models.ActionStatusChange, fmt.Sprintf("Status changed from %s to %s", old, status))
	return c.JSON(http.StatusOK, b.brands[i])
}

// appendAudit expects b.mu held.
func (b *Backend) appendAudit(c echo.Context, acc Account, br models.Brand, action, summary string) {
	b.audits = append(b.audits, models.AuditLog{
		ID:             b.nextAuditID,
		BrandID:        br.ID,
		BrandName:      br.Name,
		Action:         action,
		UserID:         acc.ID,
		UserEmail:      acc.Email,
		ChangesSummary: summary,
		IPAddress:      c.RealIP(),
		UserAgent:      c.Request().UserAgent(),
		Timestamp:      time.Now().UTC().Format("2006-01-02T15:04:05"),
	})
	b.nextAuditID++
}

func (b *Backend) filteredAudits(c echo.Context, match func(models.AuditLog) bool) error {
	from := c.QueryParam("date_from")
	to := c.QueryParam("date_to")
	skip, _ := strconv.Atoi(c.QueryParam("skip"))
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	b.mu.Lock()
	out := make([]models.AuditLog, 0, len(b.audits))
	for _, l := range b.audits {
		day := l.Timestamp
		if len(day) > 10 {
			day = day[:10]
		}
		if from != "" && day < from {
			continue
		}
		if to != "" && day > to {
			continue
		}
		if match != nil && !match(l) {
			continue
		}
		out = append(out, l)
	}
	b.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	return c.JSON(http.StatusOK, out)
}

func (b *Backend) auditAll(c echo.Context) error {
	return b.filteredAudits(c, nil)
}

func (b *Backend) auditByBrand(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	return b.filteredAudits(c, func(l models.AuditLog) bool { return l.BrandID == id })
}

func (b *Backend) auditByUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	return b.filteredAudits(c, func(l models.AuditLog) bool { return l.UserID == id })
}

func (b *Backend) auditByAction(c echo.Context) error {
	action := c.Param("action")
	return b.filteredAudits(c, func(l models.AuditLog) bool { return l.Action == action })
}

func (b *Backend) auditSearch(c echo.Context) error {
	q := strings.ToLower(c.QueryParam("brand_name"))
	return b.filteredAudits(c, func(l models.AuditLog) bool {
		return strings.Contains(strings.ToLower(l.BrandName), q)
	})
}

func (b *Backend) statistics(c echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var s models.AuditStatistics
	for _, l := range b.audits {
		s.TotalAudits++
		switch l.Action {
		case models.ActionCreate:
			s.Creations++
		case models.ActionUpdate:
			s.Updates++
		case models.ActionDelete:
			s.Deletions++
		case models.ActionStatusChange:
			s.StatusChanges++
		}
	}
	return c.JSON(http.StatusOK, s)
}
