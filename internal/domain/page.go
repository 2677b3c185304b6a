package domain

import "strings"

// ListOptions carries page/limit/tag values from the HTTP layer to the service.
// Page is 1-indexed. Limit is capped at 100 by NewListOptions.
type ListOptions struct {
	// Page is the current page number, starting at 1.
	Page int
	// Limit is the maximum number of trips to return.
	Limit int
	// Tag, when non-empty, keeps only trips carrying that tag (case-insensitive).
	Tag string
}

// NewListOptions builds ListOptions from optional HTTP query params.
// Nil pointers fall back to page=1, limit=20.
func NewListOptions(page, limit *int, tag string) ListOptions {
	o := ListOptions{Page: 1, Limit: 20, Tag: strings.TrimSpace(tag)}
	if page != nil && *page >= 1 {
		o.Page = *page
	}
	if limit != nil && *limit >= 1 {
		o.Limit = min(*limit, 100)
	}
	return o
}

// Offset returns the zero-based index of the first item on the page.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Window returns the [lo, hi) slice bounds of the page within total items.
func (o ListOptions) Window(total int) (lo, hi int) {
	lo = min(o.Offset(), total)
	hi = min(lo+o.Limit, total)
	return lo, hi
}

// Page is one page of trips plus the total count before paging.
type Page struct {
	Items []Trip
	Total int
	Page  int
	Limit int
}
