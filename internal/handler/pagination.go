package handler

import (
	"net/http"
	"strconv"

	"github.com/aiworkforce/dashboard-server-go/internal/backend"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// ParsePagination reads skip and limit from the query. A missing limit is
// left to the backend default.
func ParsePagination(r *http.Request) backend.Page {
	q := r.URL.Query()
	skip, _ := strconv.Atoi(q.Get("skip"))
	if skip < 0 {
		skip = 0
	}

	page := backend.Page{Skip: skip}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			limit = DefaultLimit
		}
		if limit > MaxLimit {
			limit = MaxLimit
		}
		page.Limit = limit
	}
	return page
}
