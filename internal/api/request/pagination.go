package request

import (
	"net/http"
	"strconv"
)

// PageQuery carries the cursor pagination inputs of the admin list
// endpoints.
type PageQuery struct {
	Limit  int
	Cursor string
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ParsePagination reads limit and cursor from the query string. A
// missing or unusable limit falls back to the default, and anything
// above the cap is clamped rather than rejected.
func ParsePagination(r *http.Request) PageQuery {
	q := PageQuery{
		Limit:  DefaultPageSize,
		Cursor: r.URL.Query().Get("cursor"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			q.Limit = limit
		}
	}

	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}

	return q
}
