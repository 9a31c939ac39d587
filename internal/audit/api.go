package audit

import (
	"context"

	"github.com/signa-app/trademark-console/internal/apiclient"
	"github.com/signa-app/trademark-console/internal/models"
)

type Fetcher interface {
	Logs(ctx context.Context, f Filters, w Window) ([]models.AuditLog, error)
	Statistics(ctx context.Context) (models.AuditStatistics, error)
}

type API struct {
	Client *apiclient.Client
}

func NewAPI(c *apiclient.Client) *API { return &API{Client: c} }

func (a *API) Logs(ctx context.Context, f Filters, w Window) ([]models.AuditLog, error) {
	path, q := BuildQuery(f, w)
	var out []models.AuditLog
	if err := a.Client.Get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.AuditLog{}
	}
	return out, nil
}

func (a *API) Statistics(ctx context.Context) (models.AuditStatistics, error) {
	var out models.AuditStatistics
	err := a.Client.Get(ctx, "/audit/statistics", nil, &out)
	return out, err
}
