package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/signa-app/trademark-console/internal/auth"
	"github.com/signa-app/trademark-console/internal/metrics"
)

type Deps struct {
	SessionHandler      *SessionHTTP
	BrandsHandler       *BrandsHTTP
	AuditHandler        *AuditHTTP
	RegistrationHandler *RegistrationHTTP
	// Navigator must be the one the orchestrator uses so redirects from the
	// session guard reach HeaderRedirect.
	Navigator auth.Navigator
	Gatherer  prometheus.Gatherer
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(d.Gatherer)))

	api := e.Group("/api", Redirects())

	api.GET("/session", d.SessionHandler.GetSession)
	api.POST("/login", d.SessionHandler.Login)
	api.POST("/logout", d.SessionHandler.Logout)

	secured := api.Group("", RequireSession(d.SessionHandler.Auth, d.Navigator))

	secured.GET("/brands", d.BrandsHandler.GetBrands)
	secured.POST("/brands", d.BrandsHandler.CreateBrand)
	secured.POST("/brands/reload", d.BrandsHandler.ReloadBrands)
	secured.GET("/brands/:id", d.BrandsHandler.GetBrand)
	secured.PUT("/brands/:id", d.BrandsHandler.UpdateBrand)
	secured.DELETE("/brands/:id", d.BrandsHandler.DeleteBrand)
	secured.PATCH("/brands/:id/status", d.BrandsHandler.SetStatus)

	secured.GET("/audit", d.AuditHandler.GetAudit)
	secured.POST("/audit/filters", d.AuditHandler.ApplyFilters)
	secured.DELETE("/audit/filters", d.AuditHandler.ClearFilters)
	secured.PUT("/audit/window", d.AuditHandler.SetWindow)
	secured.POST("/audit/retry", d.AuditHandler.Retry)

	secured.GET("/registration", d.RegistrationHandler.Get)
	secured.PUT("/registration", d.RegistrationHandler.Update)
	secured.POST("/registration/next", d.RegistrationHandler.Next)
	secured.POST("/registration/previous", d.RegistrationHandler.Previous)
	secured.POST("/registration/submit", d.RegistrationHandler.Submit)
}
