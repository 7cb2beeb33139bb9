package web

import (
	"math"
	"net/http"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

type PageQuery struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// ParsePageQuery reads ?page. Page sizes are fixed per view, so
// ?page_size is only honoured when allowCustomSize is set.
func ParsePageQuery(r *http.Request, defaultSize int, allowCustomSize bool) PageQuery {
	q := PageQuery{Page: 1, PageSize: defaultSize}
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			q.Page = p
		}
	}
	if allowCustomSize {
		if v := r.URL.Query().Get("page_size"); v != "" {
			if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 100 {
				q.PageSize = p
			}
		}
	}
	return q
}

// Offset is the index of the first item on the page. It saturates at
// math.MaxInt instead of overflowing for absurd page numbers.
func (q *PageQuery) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// PageSlice returns the page of items described by q.
func PageSlice[T any](items []T, q PageQuery) []T {
	start := q.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + q.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// ParseDate parses an optional YYYY-MM-DD query value. Empty yields nil.
func ParseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseDateRange reads start_date and end_date from the query string.
func ParseDateRange(r *http.Request) (start, end *time.Time, err error) {
	if start, err = ParseDate(r.URL.Query().Get("start_date")); err != nil {
		return nil, nil, err
	}
	if end, err = ParseDate(r.URL.Query().Get("end_date")); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}
