package shared

import (
	"math"
	"strconv"
	"strings"
)

// AllPerPage is the sentinel accepted in place of a numeric page size to
// disable pagination for a listing.
const AllPerPage = "ALL"

// Listing defaults.
const (
	DefaultPage    = 1
	DefaultPerPage = 25
)

// PageRequest carries validated pagination input for a listing query.
type PageRequest struct {
	Page    int
	PerPage int
	All     bool
}

// ParsePageRequest interprets raw page/per-page parameters, falling back to
// defaults on anything non-numeric. The ALL keyword (case-insensitive)
// requests the full unpaginated result.
func ParsePageRequest(page, perPage string) PageRequest {
	req := PageRequest{Page: DefaultPage, PerPage: DefaultPerPage}
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		req.Page = n
	}
	if strings.EqualFold(strings.TrimSpace(perPage), AllPerPage) {
		req.All = true
		req.PerPage = 0
		return req
	}
	if n, err := strconv.Atoi(perPage); err == nil && n > 0 {
		req.PerPage = n
	}
	return req
}

// Offset returns the row offset for the request, zero when unpaginated.
func (p PageRequest) Offset() int {
	if p.All {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Limit returns the row limit for the request, zero meaning no limit.
func (p PageRequest) Limit() int {
	if p.All {
		return 0
	}
	return p.PerPage
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata for a request over total rows.
func NewPagination(req PageRequest, total int) Pagination {
	if req.All {
		return Pagination{Page: 1, PerPage: total, Total: total, TotalPages: 1}
	}
	perPage := req.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	page := req.Page
	if page <= 0 {
		page = DefaultPage
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
