// Package shared holds list filtering common to the masterdata entities.
package shared

// Defaults for masterdata listings.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ListFilters represents standard list filters.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}

// Normalize clamps page and limit to usable values.
func (f ListFilters) Normalize() ListFilters {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	return f
}

// Offset returns the row offset for the filters.
func (f ListFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}
