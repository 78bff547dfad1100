// Package pagination normalizes page/size query parameters and builds page
// envelopes for list endpoints.
package pagination

import "math"

const (
	DefaultPage = 1
	DefaultSize = 10
	MinSize     = 1
	MaxSize     = 100
)

// Params is a normalized page request. Page is 1-based.
type Params struct {
	Page int
	Size int
}

// Normalize applies defaults and clamps out of range values instead of
// rejecting them: a missing or non-positive page becomes 1 and size is
// clamped to [MinSize, MaxSize]. page is capped so Offset never overflows;
// such a page is past any real table and comes back empty.
func Normalize(page, size *int) Params {
	p := Params{Page: DefaultPage, Size: DefaultSize}

	if page != nil && *page > 1 {
		p.Page = *page
	}

	if size != nil {
		switch {
		case *size < MinSize:
			p.Size = MinSize
		case *size > MaxSize:
			p.Size = MaxSize
		default:
			p.Size = *size
		}
	}

	if maxPage := math.MaxInt / p.Size; p.Page > maxPage {
		p.Page = maxPage
	}

	return p
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// Limit returns the maximum number of rows of the page.
func (p Params) Limit() int {
	return p.Size
}

// Page is an ordered slice of a filtered list plus the total count.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPage builds a page envelope. Items is never nil so an out of range
// page serializes as an empty list.
func NewPage[T any](items []T, params Params, total int) Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + params.Size - 1) / params.Size
	}

	return Page[T]{
		Items:      items,
		Page:       params.Page,
		Size:       params.Size,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Map converts the items of a page keeping its metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, fn(it))
	}
	return Page[U]{
		Items:      items,
		Page:       p.Page,
		Size:       p.Size,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}
