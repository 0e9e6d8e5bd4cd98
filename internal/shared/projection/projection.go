package projection

import "time"

// Metadata captures persistence timestamps shared by aggregates.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Page is one slice of a paginated listing plus the total match count.
type Page[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
}

// TotalPages reports how many pages the listing spans.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// Offset converts a 1-based page number into a row offset.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

// Slice returns the window of items for the given page, clamped to bounds.
func Slice[T any](items []T, page, pageSize int) []T {
	start := Offset(page, pageSize)
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
