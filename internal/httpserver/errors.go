package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/signa-app/trademark-console/internal/apiclient"
	"github.com/signa-app/trademark-console/internal/auth"
	"github.com/signa-app/trademark-console/internal/models"
	"github.com/signa-app/trademark-console/internal/registration"
)

// toHTTP maps a component error onto the console response. Remote
// rejections keep the upstream status code and message.
func toHTTP(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, models.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, apiclient.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrLoginFailed):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, apiclient.ErrNetwork):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.Is(err, auth.ErrLoginInProgress),
		errors.Is(err, registration.ErrNotOnSummary),
		errors.Is(err, registration.ErrSubmitting):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if re, ok := apiclient.IsRemote(err); ok {
		code := re.StatusCode
		if code < 400 {
			code = http.StatusBadGateway
		}
		return echo.NewHTTPError(code, re.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

// fail logs event in the handler's logger and returns the mapped error.
// Upstream outages are warnings; only our own faults are errors.
func fail(l *slog.Logger, event string, err error) error {
	he := toHTTP(err)
	if he.Code >= 500 && he.Code != http.StatusBadGateway {
		l.Error(event, "status", he.Code, "reason", he.Message, "error", err)
	} else {
		l.Warn(event, "status", he.Code, "reason", he.Message, "error", err)
	}
	return he
}
