package util

import "strings"

// ContainsFold reports whether any field contains term, ignoring case.
// An empty term matches everything.
func ContainsFold(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Browser narrows a fetched list with a search term and pages the rest.
// Changing the term always returns to the first page.
type Browser[T any] struct {
	fields func(T) []string
	term   string
	pager  Pager
}

func NewBrowser[T any](pageSize int, fields func(T) []string) *Browser[T] {
	return &Browser[T]{fields: fields, pager: NewPager(pageSize)}
}

func (b *Browser[T]) Term() string { return b.term }

func (b *Browser[T]) SetTerm(term string) {
	b.term = term
	b.pager.Reset()
}

func (b *Browser[T]) Filter(items []T) []T {
	if strings.TrimSpace(b.term) == "" {
		return append([]T(nil), items...)
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if ContainsFold(b.term, b.fields(it)...) {
			out = append(out, it)
		}
	}
	return out
}

func (b *Browser[T]) Page(items []T) ([]T, Meta) {
	visible := b.Filter(items)
	b.pager.Fit(len(visible))
	return Slice(visible, b.pager.Page(), b.pager.Size())
}

func (b *Browser[T]) GoTo(items []T, page int) bool {
	return b.pager.GoTo(page, len(b.Filter(items)))
}
