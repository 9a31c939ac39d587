package util

import "strconv"

const DefaultPageSize = 10

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	offset = (page - 1) * size
	return offset, size
}

// TotalPages is ceil(count/size); zero items means zero pages.
func TotalPages(count, size int) int {
	if size <= 0 || count <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

type Meta struct {
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
	// From and To are 1-based positions of the first and last item shown.
	From int `json:"from"`
	To   int `json:"to"`
}

// Slice returns page `page` of items. Out-of-range pages yield no items.
func Slice[T any](items []T, page, size int) ([]T, Meta) {
	offset, limit := Calculate(page, size)
	if page < 1 {
		page = 1
	}
	total := len(items)
	meta := Meta{
		Page:       page,
		Size:       limit,
		Total:      total,
		TotalPages: TotalPages(total, limit),
	}
	meta.HasPrev = page > 1
	meta.HasNext = page < meta.TotalPages
	if offset >= total {
		return []T{}, meta
	}
	end := offset + limit
	if end > total {
		end = total
	}
	meta.From, meta.To = offset+1, end
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out, meta
}

// Pager holds a 1-based current page. It is not safe for concurrent use.
type Pager struct {
	size int
	page int
}

func NewPager(size int) Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return Pager{size: size, page: 1}
}

func (p *Pager) Size() int { return p.size }

func (p *Pager) Page() int {
	if p.page < 1 {
		return 1
	}
	return p.page
}

func (p *Pager) Reset() { p.page = 1 }

// GoTo moves to page when it lies in [1, TotalPages(count)]; anything else
// is a no-op and reports false.
func (p *Pager) GoTo(page, count int) bool {
	if page < 1 || page > TotalPages(count, p.size) {
		return false
	}
	p.page = page
	return true
}

// Fit pulls the current page back inside the range after count shrank.
func (p *Pager) Fit(count int) {
	last := TotalPages(count, p.size)
	if last < 1 {
		last = 1
	}
	if p.Page() > last {
		p.page = last
	}
}
