package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/signa-app/trademark-console/internal/auth"
	"github.com/signa-app/trademark-console/internal/logging"
)

type SessionHTTP struct {
	AppName string
	Auth    *auth.Orchestrator
}

type sessionResponse struct {
	AppName string `json:"app_name"`
	auth.Snapshot
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *SessionHTTP) session() sessionResponse {
	return sessionResponse{AppName: h.AppName, Snapshot: h.Auth.Snapshot()}
}

func (h *SessionHTTP) GetSession(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session())
}

func (h *SessionHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if _, err := h.Auth.Login(ctx, req.Email, req.Password); err != nil {
		return fail(l, "login_failed", err)
	}

	l.Info("login_success")
	return c.JSON(http.StatusOK, h.session())
}

func (h *SessionHTTP) Logout(c echo.Context) error {
	h.Auth.Logout(c.Request().Context())
	return c.JSON(http.StatusOK, h.session())
}
