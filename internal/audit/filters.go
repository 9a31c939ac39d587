package audit

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/signa-app/trademark-console/internal/models"
)

const dateLayout = "2006-01-02"

// ActionAll is what the filter form sends for "any action".
const ActionAll = "all"

// Filters is the committed filter selection. Zero values mean "unset".
type Filters struct {
	BrandID   int64  `json:"brand_id,omitempty"`
	UserID    int64  `json:"user_id,omitempty"`
	Action    string `json:"action,omitempty"`
	DateFrom  string `json:"date_from,omitempty"`
	DateTo    string `json:"date_to,omitempty"`
	BrandName string `json:"brand_name,omitempty"`
}

func (f Filters) Normalize() Filters {
	f.Action = strings.TrimSpace(f.Action)
	if strings.EqualFold(f.Action, ActionAll) {
		f.Action = ""
	}
	f.DateFrom = strings.TrimSpace(f.DateFrom)
	f.DateTo = strings.TrimSpace(f.DateTo)
	f.BrandName = strings.TrimSpace(f.BrandName)
	return f
}

func (f Filters) Validate() error {
	if f.BrandID < 0 || f.UserID < 0 {
		return fmt.Errorf("%w: ids must be positive", models.ErrValidation)
	}
	var from, to time.Time
	var err error
	if f.DateFrom != "" {
		if from, err = time.Parse(dateLayout, f.DateFrom); err != nil {
			return fmt.Errorf("%w: date_from must be YYYY-MM-DD", models.ErrValidation)
		}
	}
	if f.DateTo != "" {
		if to, err = time.Parse(dateLayout, f.DateTo); err != nil {
			return fmt.Errorf("%w: date_to must be YYYY-MM-DD", models.ErrValidation)
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return fmt.Errorf("%w: date_from is after date_to", models.ErrValidation)
	}
	return nil
}

// ActiveCount is the number of fields set, not the number of routes used.
func (f Filters) ActiveCount() int {
	n := 0
	for _, set := range []bool{f.BrandID > 0, f.UserID > 0, f.Action != "", f.DateFrom != "", f.DateTo != "", f.BrandName != ""} {
		if set {
			n++
		}
	}
	return n
}

// Route maps a filter selection to one remote sub-resource.
type Route struct {
	Name  string
	Match func(Filters) bool
	Path  func(Filters) string
}

func fixed(p string) func(Filters) string { return func(Filters) string { return p } }

// Routes is evaluated in order; the first match wins.
var Routes = []Route{
	{
		Name:  "brand",
		Match: func(f Filters) bool { return f.BrandID > 0 },
		Path:  func(f Filters) string { return "/audit/brand/" + strconv.FormatInt(f.BrandID, 10) },
	},
	{
		Name:  "user",
		Match: func(f Filters) bool { return f.UserID > 0 },
		Path:  func(f Filters) string { return "/audit/user/" + strconv.FormatInt(f.UserID, 10) },
	},
	{
		Name:  "action",
		Match: func(f Filters) bool { return f.Action != "" },
		Path:  func(f Filters) string { return "/audit/action/" + url.PathEscape(f.Action) },
	},
	{
		Name:  "date-range",
		Match: func(f Filters) bool { return f.DateFrom != "" || f.DateTo != "" },
		Path:  fixed("/audit/date-range"),
	},
	{
		Name:  "search",
		Match: func(f Filters) bool { return f.BrandName != "" },
		Path:  fixed("/audit/search"),
	},
}

var allRoute = Route{Name: "all", Match: func(Filters) bool { return true }, Path: fixed("/audit")}

func Resolve(f Filters) Route {
	for _, r := range Routes {
		if r.Match(f) {
			return r
		}
	}
	return allRoute
}

// Window is the server-side skip/limit pair.
type Window struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// BuildQuery resolves f to a path. Date bounds and brand name ride along as
// query parameters whenever set, whichever route was chosen; skip/limit are
// always present.
func BuildQuery(f Filters, w Window) (string, url.Values) {
	f = f.Normalize()
	q := url.Values{}
	q.Set("skip", strconv.Itoa(w.Skip))
	q.Set("limit", strconv.Itoa(w.Limit))
	if f.DateFrom != "" {
		q.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("date_to", f.DateTo)
	}
	if f.BrandName != "" {
		q.Set("brand_name", f.BrandName)
	}
	return Resolve(f).Path(f), q
}
