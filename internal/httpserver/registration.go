package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/signa-app/trademark-console/internal/logging"
	"github.com/signa-app/trademark-console/internal/models"
	"github.com/signa-app/trademark-console/internal/registration"
)

type RegistrationHTTP struct {
	Wizard *registration.Wizard
}

func (h *RegistrationHTTP) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Wizard.Snapshot())
}

func (h *RegistrationHTTP) Update(c echo.Context) error {
	var d registration.Draft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.JSON(http.StatusOK, h.Wizard.Update(d))
}

func (h *RegistrationHTTP) Next(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "registration.next")
	snap, err := h.Wizard.Next()
	if err != nil {
		return fail(l, "registration_next_failed", err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *RegistrationHTTP) Previous(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Wizard.Previous())
}

type submitResponse struct {
	Brand  models.Brand          `json:"brand"`
	Wizard registration.Snapshot `json:"wizard"`
}

func (h *RegistrationHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "registration.submit")

	br, err := h.Wizard.Submit(ctx)
	if err != nil {
		return fail(l, "registration_submit_failed", err)
	}
	return c.JSON(http.StatusCreated, submitResponse{Brand: br, Wizard: h.Wizard.Snapshot()})
}
