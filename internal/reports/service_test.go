package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stocktally/stocktally/internal/shared"
)

type fakeQueries struct {
	stockRows    []StockRow
	counters     Counters
	counterCalls int
}

func (f *fakeQueries) UnitRows(ctx context.Context, _ Filter, _ shared.PageRequest) ([]UnitRow, int, error) {
	return nil, 0, nil
}

func (f *fakeQueries) UnitTotals(ctx context.Context, _ Filter) (UnitTotals, error) {
	return UnitTotals{}, nil
}

func (f *fakeQueries) PurchaseRows(ctx context.Context, _ Filter, _ shared.PageRequest) ([]PurchaseRow, int, error) {
	return nil, 0, nil
}

func (f *fakeQueries) PurchaseTotals(ctx context.Context, _ Filter) (PurchaseTotals, error) {
	return PurchaseTotals{}, nil
}

func (f *fakeQueries) SaleRows(ctx context.Context, _ Filter, _ shared.PageRequest) ([]SaleRow, int, error) {
	return nil, 0, nil
}

func (f *fakeQueries) SaleTotals(ctx context.Context, _ Filter) (SaleTotals, error) {
	return SaleTotals{}, nil
}

func (f *fakeQueries) StockRows(ctx context.Context, _ shared.PageRequest) ([]StockRow, int, error) {
	return f.stockRows, len(f.stockRows), nil
}

func (f *fakeQueries) StockTotals(ctx context.Context) (StockTotals, error) {
	var t StockTotals
	for _, r := range f.stockRows {
		t.TotalQty += r.TotalQty
		t.SoldQty += r.SoldQty
		t.StockQty += r.StockQty
		t.Profit += r.Profit
	}
	return t, nil
}

func (f *fakeQueries) Counters(ctx context.Context) (Counters, error) {
	f.counterCalls++
	return f.counters, nil
}

func TestStockSurfacesNegativeQuantityAsIntegrityError(t *testing.T) {
	queries := &fakeQueries{stockRows: []StockRow{
		{TypeID: 1, TypeName: "BOOK", TotalQty: 2, SoldQty: 1, StockQty: 1},
		{TypeID: 2, TypeName: "PEN", TotalQty: 1, SoldQty: 2, StockQty: -1},
	}}
	svc := NewService(queries, nil, 0)

	_, err := svc.Stock(context.Background(), shared.PageRequest{All: true})
	require.ErrorIs(t, err, shared.ErrIntegrityViolation)
}

func TestStockTotalsAggregateAllRows(t *testing.T) {
	queries := &fakeQueries{stockRows: []StockRow{
		{TypeID: 1, TypeName: "BOOK", TotalQty: 3, SoldQty: 1, StockQty: 2, Profit: 500},
		{TypeID: 2, TypeName: "PEN", TotalQty: 2, SoldQty: 2, StockQty: 0, Profit: 300},
	}}
	svc := NewService(queries, nil, 0)

	listing, err := svc.Stock(context.Background(), shared.PageRequest{All: true})
	require.NoError(t, err)
	require.Equal(t, StockHeader, listing.Header)
	require.Equal(t, 5, listing.Totals.TotalQty)
	require.Equal(t, int64(800), listing.Totals.Profit)
	require.Equal(t, 1, listing.Pagination.TotalPages)
}

func TestCountersCachedInRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	queries := &fakeQueries{counters: Counters{Units: 10, UnsoldUnits: 4, Purchases: 3, Sales: 2, StockedTypes: 1}}
	svc := NewService(queries, client, 30*time.Second)

	first, err := svc.Counters(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(10), first.Units)
	require.Equal(t, 1, queries.counterCalls)

	second, err := svc.Counters(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, queries.counterCalls, "second read must come from cache")

	srv.FastForward(time.Minute)
	_, err = svc.Counters(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, queries.counterCalls, "expired cache falls through to the store")
}

func TestCountersWithoutCache(t *testing.T) {
	queries := &fakeQueries{counters: Counters{Units: 1}}
	svc := NewService(queries, nil, 0)

	c, err := svc.Counters(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), c.Units)
	require.Equal(t, 1, queries.counterCalls)
}
