package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/signa-app/trademark-console/internal/auth"
	"github.com/signa-app/trademark-console/internal/logging"
)

// HeaderRedirect tells the front end where the console navigated while
// handling the request.
const HeaderRedirect = "X-Console-Redirect"

// RequestLogger puts a request-scoped logger into the context and writes one
// line per request. Requests that made the console navigate carry the route
// under "redirect", so an expired session shows up next to the call that
// found it.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := base.With(
				"method", req.Method,
				"path", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
			)
			if rid := requestID(c); rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}

			res := c.Response()
			attrs := []any{"status", res.Status, "duration_ms", time.Since(start).Milliseconds()}
			if route := res.Header().Get(HeaderRedirect); route != "" {
				attrs = append(attrs, "redirect", route)
			}
			switch {
			case res.Status >= 500:
				l.Error("http_request", append(attrs, "error", errStr(err))...)
			case res.Status >= 400:
				l.Warn("http_request", append(attrs, "error", errStr(err))...)
			default:
				l.Info("http_request", append(attrs, "bytes", res.Size)...)
			}
			return nil
		}
	}
}

func requestID(c echo.Context) string {
	if rid := c.Request().Header.Get(echo.HeaderXRequestID); rid != "" {
		return rid
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}

// Redirects gives every request its own auth.Redirect and reports the route
// in HeaderRedirect once the response is written.
func Redirects() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, r := auth.WithRedirect(c.Request().Context())
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Before(func() {
				if route := r.Route(); route != "" {
					c.Response().Header().Set(HeaderRedirect, route)
				}
			})
			return next(c)
		}
	}
}

// RequireSession turns away calls made without an active session and sends
// the operator to the login entry.
func RequireSession(o *auth.Orchestrator, nav auth.Navigator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if o.Authenticated() {
				return next(c)
			}
			ctx := c.Request().Context()
			logging.FromContext(ctx).Warn("session_required", "status", http.StatusUnauthorized, "reason", "no active session")
			nav.Navigate(ctx, auth.RouteLogin)
			return echo.NewHTTPError(http.StatusUnauthorized, "login required")
		}
	}
}
