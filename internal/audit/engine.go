package audit

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/signa-app/trademark-console/internal/apiclient"
	"github.com/signa-app/trademark-console/internal/logging"
	"github.com/signa-app/trademark-console/internal/models"
	"github.com/signa-app/trademark-console/internal/util"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Entry is a log row as shown in the viewer.
type Entry struct {
	models.AuditLog
	ActionLabel string `json:"action_label"`
}

type View struct {
	State         State                   `json:"state"`
	Error         string                  `json:"error,omitempty"`
	Filters       Filters                 `json:"filters"`
	Route         string                  `json:"route"`
	ActiveFilters int                     `json:"active_filters"`
	Window        Window                  `json:"window"`
	Query         string                  `json:"query"`
	Items         []Entry                 `json:"items"`
	Page          util.Meta               `json:"page"`
	Statistics    *models.AuditStatistics `json:"statistics"`
}

// Engine owns the audit viewer: one committed filter set, the last fetched
// logs and statistics, and a local search over them.
//
// Every fetch is stamped with a sequence number; a result is committed only
// while its stamp is the latest, so a slow earlier fetch never overwrites a
// later one.
type Engine struct {
	api Fetcher

	mu      sync.Mutex
	seq     uint64
	state   State
	lastErr string
	logs    []models.AuditLog
	stats   *models.AuditStatistics
	filters Filters
	window  Window
	browser *util.Browser[models.AuditLog]
}

func NewEngine(api Fetcher, limit, pageSize int) *Engine {
	if limit <= 0 {
		limit = 100
	}
	return &Engine{
		api:     api,
		state:   StateIdle,
		window:  Window{Skip: 0, Limit: limit},
		browser: util.NewBrowser(pageSize, searchFields),
	}
}

func searchFields(l models.AuditLog) []string {
	return []string{l.UserEmail, l.BrandName, l.Action, models.ActionLabel(l.Action), l.ChangesSummary}
}

// Apply commits f and re-fetches. Invalid filters leave the committed set
// untouched.
func (e *Engine) Apply(ctx context.Context, f Filters) error {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.filters = f
	e.mu.Unlock()
	return e.fetch(ctx)
}

func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	e.filters = Filters{}
	e.mu.Unlock()
	return e.fetch(ctx)
}

// SetWindow re-fetches only when skip or limit actually changed.
func (e *Engine) SetWindow(ctx context.Context, w Window) error {
	if w.Skip < 0 {
		w.Skip = 0
	}
	e.mu.Lock()
	if w.Limit <= 0 {
		w.Limit = e.window.Limit
	}
	changed := w != e.window
	e.window = w
	e.mu.Unlock()
	if !changed {
		return nil
	}
	return e.fetch(ctx)
}

// Refetch re-issues both requests for the committed filters.
func (e *Engine) Refetch(ctx context.Context) error { return e.fetch(ctx) }

// EnsureLoaded runs the first fetch; it is a no-op once anything ran.
func (e *Engine) EnsureLoaded(ctx context.Context) error {
	e.mu.Lock()
	idle := e.state == StateIdle
	e.mu.Unlock()
	if !idle {
		return nil
	}
	return e.fetch(ctx)
}

// Reset forgets everything, used when the session ends.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	e.state, e.lastErr = StateIdle, ""
	e.logs, e.stats = nil, nil
	e.filters = Filters{}
	e.browser.SetTerm("")
}

func (e *Engine) fetch(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "audit")

	e.mu.Lock()
	e.seq++
	id := e.seq
	f, w := e.filters, e.window
	e.state, e.lastErr = StateLoading, ""
	e.mu.Unlock()

	var (
		logs  []models.AuditLog
		stats *models.AuditStatistics
	)
	// Not errgroup.WithContext: a failed log fetch must not cancel statistics.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		logs, err = e.api.Logs(ctx, f, w)
		return err
	})
	g.Go(func() error {
		s, err := e.api.Statistics(ctx)
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		if err != nil {
			l.Warn("audit_statistics_unavailable", "error", err)
			return nil
		}
		stats = &s
		return nil
	})
	err := g.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if id != e.seq {
		// A 401 resets the engine through the session-end hook, which also
		// supersedes this fetch. The caller still has to see it.
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		l.Debug("audit_fetch_superseded", "seq", id, "latest", e.seq)
		return nil
	}
	e.stats = stats
	if err != nil {
		e.state, e.lastErr = StateError, err.Error()
		l.Warn("audit_fetch_failed", "route", Resolve(f).Name, "error", err)
		return err
	}
	e.logs = logs
	e.state = StateSuccess
	l.Debug("audit_fetch_completed", "route", Resolve(f).Name, "count", len(logs))
	return nil
}

// View applies the search term (a new term returns to page 1) and moves to
// page when in range; page <= 0 keeps the current page.
func (e *Engine) View(term string, page int) View {
	e.mu.Lock()
	defer e.mu.Unlock()

	if term != e.browser.Term() {
		e.browser.SetTerm(term)
	}
	if page > 0 {
		e.browser.GoTo(e.logs, page)
	}
	rows, meta := e.browser.Page(e.logs)
	items := make([]Entry, len(rows))
	for i, r := range rows {
		items[i] = Entry{AuditLog: r, ActionLabel: models.ActionLabel(r.Action)}
	}
	var stats *models.AuditStatistics
	if e.stats != nil {
		s := *e.stats
		stats = &s
	}
	return View{
		State:         e.state,
		Error:         e.lastErr,
		Filters:       e.filters,
		Route:         Resolve(e.filters).Name,
		ActiveFilters: e.filters.ActiveCount(),
		Window:        e.window,
		Query:         e.browser.Term(),
		Items:         items,
		Page:          meta,
		Statistics:    stats,
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}
