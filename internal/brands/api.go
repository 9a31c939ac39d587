package brands

import (
	"context"
	"fmt"
	"net/url"

	"github.com/signa-app/trademark-console/internal/apiclient"
	"github.com/signa-app/trademark-console/internal/models"
)

// Remote is the brands endpoint of the trademark API.
type Remote interface {
	List(ctx context.Context) ([]models.Brand, error)
	Get(ctx context.Context, id int64) (models.Brand, error)
	Create(ctx context.Context, data models.CreateBrandData) (models.Brand, error)
	Update(ctx context.Context, data models.UpdateBrandData) (models.Brand, error)
	Delete(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status models.BrandStatus) (models.Brand, error)
}

type API struct {
	Client *apiclient.Client
}

func NewAPI(c *apiclient.Client) *API { return &API{Client: c} }

func brandPath(id int64) string { return fmt.Sprintf("/brands/%d", id) }

func (a *API) List(ctx context.Context) ([]models.Brand, error) {
	var out []models.Brand
	if err := a.Client.Get(ctx, "/brands/", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Brand{}
	}
	return out, nil
}

func (a *API) Get(ctx context.Context, id int64) (models.Brand, error) {
	var out models.Brand
	err := a.Client.Get(ctx, brandPath(id), nil, &out)
	return out, err
}

func (a *API) Create(ctx context.Context, data models.CreateBrandData) (models.Brand, error) {
	var out models.Brand
	err := a.Client.Post(ctx, "/brands/", data, &out)
	return out, err
}

func (a *API) Update(ctx context.Context, data models.UpdateBrandData) (models.Brand, error) {
	var out models.Brand
	err := a.Client.Put(ctx, brandPath(data.ID), data, &out)
	return out, err
}

func (a *API) Delete(ctx context.Context, id int64) error {
	return a.Client.Delete(ctx, brandPath(id))
}

// SetStatus sends only the status, as a query parameter on the status
// sub-resource.
func (a *API) SetStatus(ctx context.Context, id int64, status models.BrandStatus) (models.Brand, error) {
	var out models.Brand
	q := url.Values{"status": []string{string(status)}}
	err := a.Client.Patch(ctx, brandPath(id)+"/status", q, nil, &out)
	return out, err
}
