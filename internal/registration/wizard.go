package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/signa-app/trademark-console/internal/auth"
	"github.com/signa-app/trademark-console/internal/logging"
	"github.com/signa-app/trademark-console/internal/models"
)

const TotalSteps = 3

var (
	ErrNotOnSummary = errors.New("submit is only allowed from the summary step")
	ErrSubmitting   = errors.New("a submission is already in progress")
)

var stepTitles = [TotalSteps]string{"Brand information", "Holder information", "Summary"}

// Creator is satisfied by *brands.Collection.
type Creator interface {
	Create(ctx context.Context, data models.CreateBrandData) (models.Brand, error)
}

type Draft struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	Owner              string `json:"owner"`
	RegistrationNumber string `json:"registration_number"`
}

func (d Draft) data() models.CreateBrandData {
	return models.CreateBrandData{
		Name:               strings.TrimSpace(d.Name),
		Description:        strings.TrimSpace(d.Description),
		Owner:              strings.TrimSpace(d.Owner),
		RegistrationNumber: strings.TrimSpace(d.RegistrationNumber),
	}
}

// stepValid reports whether the fields owned by step are complete.
func (d Draft) stepValid(step int) bool {
	switch step {
	case 1:
		return strings.TrimSpace(d.Name) != ""
	case 2:
		return strings.TrimSpace(d.Owner) != "" && strings.TrimSpace(d.RegistrationNumber) != ""
	case 3:
		return true
	default:
		return false
	}
}

type StepInfo struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	// Status is completed, current or upcoming.
	Status string `json:"status"`
}

type Snapshot struct {
	Step       int        `json:"step"`
	Progress   float64    `json:"progress"`
	Steps      []StepInfo `json:"steps"`
	Draft      Draft      `json:"draft"`
	CanNext    bool       `json:"can_next"`
	CanPrev    bool       `json:"can_previous"`
	CanSubmit  bool       `json:"can_submit"`
	Submitting bool       `json:"submitting"`
	Error      string     `json:"error,omitempty"`
}

// Wizard walks one brand draft through three steps before creating it.
type Wizard struct {
	creator Creator
	nav     auth.Navigator

	mu         sync.Mutex
	step       int
	draft      Draft
	submitting bool
	lastErr    string
}

func New(creator Creator, nav auth.Navigator) *Wizard {
	if nav == nil {
		nav = auth.NavigatorFunc(func(context.Context, string) {})
	}
	return &Wizard{creator: creator, nav: nav, step: 1}
}

func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// snapshot expects w.mu held.
func (w *Wizard) snapshot() Snapshot {
	steps := make([]StepInfo, TotalSteps)
	for i := range steps {
		n := i + 1
		status := "upcoming"
		switch {
		case n < w.step:
			status = "completed"
		case n == w.step:
			status = "current"
		}
		steps[i] = StepInfo{Number: n, Title: stepTitles[i], Status: status}
	}
	return Snapshot{
		Step:       w.step,
		Progress:   float64(w.step) / TotalSteps * 100,
		Steps:      steps,
		Draft:      w.draft,
		CanNext:    w.step < TotalSteps && w.draft.stepValid(w.step),
		CanPrev:    w.step > 1,
		CanSubmit:  w.step == TotalSteps && !w.submitting,
		Submitting: w.submitting,
		Error:      w.lastErr,
	}
}

// Update replaces the draft fields; the current step is kept.
func (w *Wizard) Update(d Draft) Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = d
	w.lastErr = ""
	return w.snapshot()
}

func (w *Wizard) Next() (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step >= TotalSteps {
		return w.snapshot(), nil
	}
	if !w.draft.stepValid(w.step) {
		err := fmt.Errorf("%w: step %d is incomplete", models.ErrValidation, w.step)
		w.lastErr = err.Error()
		return w.snapshot(), err
	}
	w.step++
	w.lastErr = ""
	return w.snapshot(), nil
}

func (w *Wizard) Previous() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > 1 {
		w.step--
	}
	return w.snapshot()
}

func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step, w.draft, w.lastErr, w.submitting = 1, Draft{}, "", false
}

// Submit creates the brand from the summary step. On success the draft is
// cleared and the operator is sent to the dashboard; on failure the draft
// stays for another attempt.
func (w *Wizard) Submit(ctx context.Context) (models.Brand, error) {
	w.mu.Lock()
	if w.step != TotalSteps {
		w.mu.Unlock()
		return models.Brand{}, ErrNotOnSummary
	}
	if w.submitting {
		w.mu.Unlock()
		return models.Brand{}, ErrSubmitting
	}
	w.submitting = true
	data := w.draft.data()
	w.mu.Unlock()

	br, err := w.creator.Create(ctx, data)

	w.mu.Lock()
	w.submitting = false
	if err != nil {
		w.lastErr = err.Error()
		w.mu.Unlock()
		logging.FromContext(ctx).With("svc", "registration").Warn("registration_failed", "error", err)
		return models.Brand{}, err
	}
	w.step, w.draft, w.lastErr = 1, Draft{}, ""
	w.mu.Unlock()

	logging.FromContext(ctx).With("svc", "registration").Info("registration_submitted", "brand_id", br.ID)
	w.nav.Navigate(ctx, auth.RouteDashboard)
	return br, nil
}
