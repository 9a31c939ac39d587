package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/signa-app/trademark-console/internal/audit"
	"github.com/signa-app/trademark-console/internal/brands"
	"github.com/signa-app/trademark-console/internal/logging"
	"github.com/signa-app/trademark-console/internal/models"
	"github.com/signa-app/trademark-console/internal/util"
)

const (
	TabGeneral = "general"
	TabOwner   = "owner"
	TabHistory = "history"
)

var detailTabs = []string{TabGeneral, TabOwner, TabHistory}

type BrandsHTTP struct {
	Brands *brands.Collection
	// History serves the history tab of the detail screen.
	History     audit.Fetcher
	HistorySize int
}

type brandDetail struct {
	Tab         string        `json:"tab"`
	Tabs        []string      `json:"tabs"`
	Brand       models.Brand  `json:"brand"`
	StatusLabel string        `json:"status_label"`
	History     []audit.Entry `json:"history,omitempty"`
	Owner       *ownerSection `json:"owner,omitempty"`
}

type ownerSection struct {
	Owner   string         `json:"owner"`
	Creator models.Creator `json:"creator"`
}

func parseBrandID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

func (h *BrandsHTTP) GetBrands(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "brands.get_brands")

	if !h.Brands.Loaded() {
		if err := h.Brands.Reload(ctx); err != nil {
			return fail(l, "get_brands_failed", err)
		}
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 0)
	return c.JSON(http.StatusOK, h.Brands.Dashboard(c.QueryParam("q"), page))
}

func (h *BrandsHTTP) ReloadBrands(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "brands.reload")

	if err := h.Brands.Reload(ctx); err != nil {
		return fail(l, "reload_brands_failed", err)
	}
	return c.JSON(http.StatusOK, h.Brands.Dashboard(c.QueryParam("q"), 0))
}

func (h *BrandsHTTP) CreateBrand(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "brands.create")

	var req models.CreateBrandData
	if err := c.Bind(&req); err != nil {
		l.Warn("create_brand_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	br, err := h.Brands.Create(ctx, req)
	if err != nil {
		return fail(l, "create_brand_failed", err)
	}
	l.Info("create_brand_success", "brand_id", br.ID)
	return c.JSON(http.StatusCreated, br)
}

func (h *BrandsHTTP) UpdateBrand(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "brands.update")

	id, err := parseBrandID(c)
	if err != nil {
		return err
	}
	var req models.UpdateBrandData
	if err := c.Bind(&req); err != nil {
		l.Warn("update_brand_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.ID = id
	br, err := h.Brands.Update(ctx, req)
	if err != nil {
		return fail(l, "update_brand_failed", err)
	}
	return c.JSON(http.StatusOK, br)
}

// DeleteBrand requires confirm=true: deletion cannot be undone.
func (h *BrandsHTTP) DeleteBrand(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "brands.delete")

	id, err := parseBrandID(c)
	if err != nil {
		return err
	}
	if c.QueryParam("confirm") != "true" {
		l.Warn("delete_brand_failed", "status", 400, "reason", "not confirmed")
		return echo.NewHTTPError(http.StatusBadRequest, "deletion must be confirmed with confirm=true")
	}
	if err := h.Brands.Remove(ctx, id); err != nil {
		return fail(l, "delete_brand_failed", err)
	}
	l.Info("delete_brand_success", "brand_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *BrandsHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "brands.set_status")

	id, err := parseBrandID(c)
	if err != nil {
		return err
	}
	br, err := h.Brands.SetStatus(ctx, id, models.BrandStatus(c.QueryParam("status")))
	if err != nil {
		return fail(l, "set_status_failed", err)
	}
	return c.JSON(http.StatusOK, br)
}

func (h *BrandsHTTP) GetBrand(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "brands.get_brand")

	id, err := parseBrandID(c)
	if err != nil {
		return err
	}
	tab := c.QueryParam("tab")
	if tab == "" {
		tab = TabGeneral
	}
	if tab != TabGeneral && tab != TabOwner && tab != TabHistory {
		return echo.NewHTTPError(http.StatusBadRequest, "tab must be general, owner or history")
	}

	br, err := h.Brands.Get(ctx, id)
	if err != nil {
		return fail(l, "get_brand_failed", err)
	}
	out := brandDetail{Tab: tab, Tabs: detailTabs, Brand: br, StatusLabel: br.Status.Label()}

	switch tab {
	case TabOwner:
		out.Owner = &ownerSection{Owner: br.Owner, Creator: br.Creator}
	case TabHistory:
		logs, err := h.History.Logs(ctx, audit.Filters{BrandID: id}, audit.Window{Limit: h.HistorySize})
		if err != nil {
			return fail(l, "get_brand_history_failed", err)
		}
		out.History = make([]audit.Entry, len(logs))
		for i, lg := range logs {
			out.History[i] = audit.Entry{AuditLog: lg, ActionLabel: models.ActionLabel(lg.Action)}
		}
	}
	return c.JSON(http.StatusOK, out)
}
