package brands

import (
	"context"
	"fmt"
	"sync"

	"github.com/signa-app/trademark-console/internal/logging"
	"github.com/signa-app/trademark-console/internal/models"
	"github.com/signa-app/trademark-console/internal/util"
)

// Collection is the console's copy of the brand list. It is never
// authoritative: every mutation commits the record the server returned,
// and Reload replaces everything.
type Collection struct {
	api Remote

	mu      sync.Mutex
	items   []models.Brand
	loaded  bool
	lastErr string
	browser *util.Browser[models.Brand]
}

func NewCollection(api Remote, pageSize int) *Collection {
	return &Collection{
		api:     api,
		browser: util.NewBrowser(pageSize, searchFields),
	}
}

func searchFields(b models.Brand) []string { return []string{b.Name, b.Owner} }

// fail records err as the collection's displayable error and returns it.
func (c *Collection) fail(ctx context.Context, op string, err error) error {
	logging.FromContext(ctx).With("svc", "brands").Warn(op+"_failed", "error", err)
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
	return err
}

func (c *Collection) ok() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
}

func (c *Collection) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Collection) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func (c *Collection) Items() []models.Brand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Brand(nil), c.items...)
}

// Reset drops the local copy, used when the session ends.
func (c *Collection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items, c.loaded, c.lastErr = nil, false, ""
	c.browser.SetTerm("")
}

func (c *Collection) Reload(ctx context.Context) error {
	items, err := c.api.List(ctx)
	if err != nil {
		return c.fail(ctx, "list_brands", err)
	}
	c.mu.Lock()
	c.items, c.loaded, c.lastErr = items, true, ""
	c.mu.Unlock()
	return nil
}

// Get fetches one brand and refreshes the local copy of it when present.
func (c *Collection) Get(ctx context.Context, id int64) (models.Brand, error) {
	br, err := c.api.Get(ctx, id)
	if err != nil {
		return models.Brand{}, c.fail(ctx, "get_brand", err)
	}
	c.mu.Lock()
	c.replace(br)
	c.lastErr = ""
	c.mu.Unlock()
	return br, nil
}

func (c *Collection) Create(ctx context.Context, data models.CreateBrandData) (models.Brand, error) {
	if err := data.Validate(); err != nil {
		return models.Brand{}, c.fail(ctx, "create_brand", err)
	}
	br, err := c.api.Create(ctx, data)
	if err != nil {
		return models.Brand{}, c.fail(ctx, "create_brand", err)
	}
	c.mu.Lock()
	c.items = append([]models.Brand{br}, c.items...)
	c.lastErr = ""
	c.mu.Unlock()
	logging.FromContext(ctx).With("svc", "brands").Info("brand_created", "brand_id", br.ID)
	return br, nil
}

func (c *Collection) Update(ctx context.Context, data models.UpdateBrandData) (models.Brand, error) {
	if err := data.Validate(); err != nil {
		return models.Brand{}, c.fail(ctx, "update_brand", err)
	}
	br, err := c.api.Update(ctx, data)
	if err != nil {
		return models.Brand{}, c.fail(ctx, "update_brand", err)
	}
	c.mu.Lock()
	c.replace(br)
	c.lastErr = ""
	c.mu.Unlock()
	return br, nil
}

func (c *Collection) Remove(ctx context.Context, id int64) error {
	if id <= 0 {
		return c.fail(ctx, "delete_brand", fmt.Errorf("%w: brand id is required", models.ErrValidation))
	}
	if err := c.api.Delete(ctx, id); err != nil {
		return c.fail(ctx, "delete_brand", err)
	}
	c.mu.Lock()
	kept := c.items[:0:0]
	for _, br := range c.items {
		if br.ID != id {
			kept = append(kept, br)
		}
	}
	c.items = kept
	c.lastErr = ""
	c.mu.Unlock()
	return nil
}

// SetStatus never touches the local status until the server confirmed it.
func (c *Collection) SetStatus(ctx context.Context, id int64, status models.BrandStatus) (models.Brand, error) {
	if !status.Valid() {
		return models.Brand{}, c.fail(ctx, "set_status", fmt.Errorf("%w: unknown status %q", models.ErrValidation, status))
	}
	br, err := c.api.SetStatus(ctx, id, status)
	if err != nil {
		return models.Brand{}, c.fail(ctx, "set_status", err)
	}
	c.mu.Lock()
	c.replace(br)
	c.lastErr = ""
	c.mu.Unlock()
	return br, nil
}

// replace expects c.mu held. Records without a local copy are ignored.
func (c *Collection) replace(br models.Brand) {
	for i := range c.items {
		if c.items[i].ID == br.ID {
			c.items[i] = br
			return
		}
	}
}
