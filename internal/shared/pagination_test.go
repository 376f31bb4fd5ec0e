package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePageRequestDefaults(t *testing.T) {
	req := ParsePageRequest("", "")
	require.Equal(t, DefaultPage, req.Page)
	require.Equal(t, DefaultPerPage, req.PerPage)
	require.False(t, req.All)
}

func TestParsePageRequestGarbageFallsBack(t *testing.T) {
	req := ParsePageRequest("abc", "-3")
	require.Equal(t, DefaultPage, req.Page)
	require.Equal(t, DefaultPerPage, req.PerPage)
}

func TestParsePageRequestAllKeyword(t *testing.T) {
	for _, raw := range []string{"ALL", "all", " All "} {
		req := ParsePageRequest("4", raw)
		require.True(t, req.All, "raw=%q", raw)
		require.Equal(t, 0, req.Limit())
		require.Equal(t, 0, req.Offset())
	}
}

func TestPageRequestOffset(t *testing.T) {
	req := ParsePageRequest("3", "10")
	require.Equal(t, 20, req.Offset())
	require.Equal(t, 10, req.Limit())
}

func TestNewPaginationRoundsUp(t *testing.T) {
	p := NewPagination(PageRequest{Page: 2, PerPage: 10}, 25)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 25, p.Total)
	require.Equal(t, 2, p.Page)
}

func TestNewPaginationAll(t *testing.T) {
	p := NewPagination(PageRequest{All: true}, 7)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 1, p.TotalPages)
	require.Equal(t, 7, p.PerPage)
}
