package pagination

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Window is a resolved page request.
type Window struct {
	Page  int
	Size  int
	Start int
}

func (w Window) Offset() int { return w.Start }

// FromPage clamps page to [1, math.MaxInt/size] and size to [1, MaxPageSize];
// a size of 0 means DefaultPageSize. The upper page bound keeps Start from
// overflowing.
func FromPage(page, size int) Window {
	size = clampSize(size)
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt / size; page > maxPage {
		page = maxPage
	}
	return Window{Page: page, Size: size, Start: (page - 1) * size}
}

// FromSkipLimit keeps skip as the query offset and reports the page that
// contains it.
func FromSkipLimit(skip, limit int) Window {
	if skip < 0 {
		skip = 0
	}
	size := clampSize(limit)
	page := skip / size
	if page < math.MaxInt {
		page++
	}
	return Window{Page: page, Size: size, Start: skip}
}

// TotalPages rounds up. Zero items is zero pages.
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Page is the list envelope returned by collection endpoints. Size and
// PageSize carry the same value for older clients.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewPage[T any](items []T, total int64, w Window) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       w.Page,
		Size:       w.Size,
		PageSize:   w.Size,
		TotalPages: TotalPages(total, w.Size),
	}
}

func clampSize(size int) int {
	switch {
	case size == 0:
		return DefaultPageSize
	case size < 1:
		return 1
	case size > MaxPageSize:
		return MaxPageSize
	default:
		return size
	}
}
