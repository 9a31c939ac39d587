package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/signa-app/trademark-console/internal/apiclient"
	"github.com/signa-app/trademark-console/internal/audit"
	"github.com/signa-app/trademark-console/internal/logging"
	"github.com/signa-app/trademark-console/internal/models"
	"github.com/signa-app/trademark-console/internal/util"
)

type AuditHTTP struct {
	Engine *audit.Engine
}

// respond renders the viewer after a fetch. A failed log fetch is part of
// the view (state error plus message, retry via /retry); only validation and
// an ended session are request errors.
func (h *AuditHTTP) respond(c echo.Context, event string, err error) error {
	if err != nil && (errors.Is(err, models.ErrValidation) || errors.Is(err, apiclient.ErrUnauthorized)) {
		l := logging.FromContext(c.Request().Context()).With("handler", "audit")
		return fail(l, event, err)
	}
	return c.JSON(http.StatusOK, h.Engine.View(c.QueryParam("q"), util.ParseIntDefault(c.QueryParam("page"), 0)))
}

func (h *AuditHTTP) GetAudit(c echo.Context) error {
	err := h.Engine.EnsureLoaded(c.Request().Context())
	return h.respond(c, "get_audit_failed", err)
}

func (h *AuditHTTP) ApplyFilters(c echo.Context) error {
	var f audit.Filters
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	err := h.Engine.Apply(c.Request().Context(), f)
	return h.respond(c, "apply_filters_failed", err)
}

func (h *AuditHTTP) ClearFilters(c echo.Context) error {
	err := h.Engine.Clear(c.Request().Context())
	return h.respond(c, "clear_filters_failed", err)
}

func (h *AuditHTTP) SetWindow(c echo.Context) error {
	w := audit.Window{
		Skip:  util.ParseIntDefault(c.QueryParam("skip"), 0),
		Limit: util.ParseIntDefault(c.QueryParam("limit"), 0),
	}
	err := h.Engine.SetWindow(c.Request().Context(), w)
	return h.respond(c, "set_window_failed", err)
}

func (h *AuditHTTP) Retry(c echo.Context) error {
	err := h.Engine.Refetch(c.Request().Context())
	return h.respond(c, "retry_audit_failed", err)
}
