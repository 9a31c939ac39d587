package brands

import (
	"github.com/signa-app/trademark-console/internal/models"
	"github.com/signa-app/trademark-console/internal/util"
)

type StatusCount struct {
	Status models.BrandStatus `json:"status"`
	Label  string             `json:"label"`
	Count  int                `json:"count"`
}

// DashboardPage is one page of the brand list after the local search.
type DashboardPage struct {
	Query  string         `json:"query"`
	Items  []models.Brand `json:"items"`
	Page   util.Meta      `json:"page"`
	Counts []StatusCount  `json:"counts"`
	Error  string         `json:"error,omitempty"`
}

// Dashboard applies the search term (a new term returns to page 1) and then
// moves to page when it is in range. page <= 0 keeps the current page.
func (c *Collection) Dashboard(term string, page int) DashboardPage {
	c.mu.Lock()
	defer c.mu.Unlock()

	if term != c.browser.Term() {
		c.browser.SetTerm(term)
	}
	if page > 0 {
		c.browser.GoTo(c.items, page)
	}
	items, meta := c.browser.Page(c.items)
	return DashboardPage{
		Query:  c.browser.Term(),
		Items:  items,
		Page:   meta,
		Counts: countStatuses(c.items),
		Error:  c.lastErr,
	}
}

func countStatuses(items []models.Brand) []StatusCount {
	byStatus := make(map[models.BrandStatus]int, len(items))
	for _, br := range items {
		byStatus[br.Status]++
	}
	out := make([]StatusCount, 0, len(models.Statuses()))
	for _, s := range models.Statuses() {
		out = append(out, StatusCount{Status: s, Label: s.Label(), Count: byStatus[s]})
	}
	return out
}
