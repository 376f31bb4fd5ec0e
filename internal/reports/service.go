package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/stocktally/stocktally/internal/shared"
)

const countersCacheKey = "stocktally:counters"

// Service assembles the report listings. The redis client is optional; when
// present the counters are cached for TTL and cache failures fall through to
// the database, never to the caller.
type Service struct {
	queries QueryPort
	cache   *redis.Client
	ttl     time.Duration
	group   singleflight.Group
}

// NewService builds Service. Pass a nil cache to disable counter caching.
func NewService(queries QueryPort, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{queries: queries, cache: cache, ttl: ttl}
}

// Units returns the unit listing with totals over the whole filtered set.
func (s *Service) Units(ctx context.Context, f Filter, req shared.PageRequest) (UnitListing, error) {
	rows, total, err := s.queries.UnitRows(ctx, f, req)
	if err != nil {
		return UnitListing{}, err
	}
	totals, err := s.queries.UnitTotals(ctx, f)
	if err != nil {
		return UnitListing{}, err
	}
	return UnitListing{
		Header:     UnitHeader,
		Rows:       rows,
		Totals:     totals,
		Pagination: shared.NewPagination(req, total),
	}, nil
}

// Purchases returns the purchase listing.
func (s *Service) Purchases(ctx context.Context, f Filter, req shared.PageRequest) (PurchaseListing, error) {
	rows, total, err := s.queries.PurchaseRows(ctx, f, req)
	if err != nil {
		return PurchaseListing{}, err
	}
	totals, err := s.queries.PurchaseTotals(ctx, f)
	if err != nil {
		return PurchaseListing{}, err
	}
	return PurchaseListing{
		Header:     PurchaseHeader,
		Rows:       rows,
		Totals:     totals,
		Pagination: shared.NewPagination(req, total),
	}, nil
}

// Sales returns the sale listing.
func (s *Service) Sales(ctx context.Context, f Filter, req shared.PageRequest) (SaleListing, error) {
	rows, total, err := s.queries.SaleRows(ctx, f, req)
	if err != nil {
		return SaleListing{}, err
	}
	totals, err := s.queries.SaleTotals(ctx, f)
	if err != nil {
		return SaleListing{}, err
	}
	return SaleListing{
		Header:     SaleHeader,
		Rows:       rows,
		Totals:     totals,
		Pagination: shared.NewPagination(req, total),
	}, nil
}

// Stock returns the per-type stock listing. A negative stock count means a
// unit is sold without existing, which the data model forbids; it surfaces
// as an integrity error rather than a report value.
func (s *Service) Stock(ctx context.Context, req shared.PageRequest) (StockListing, error) {
	rows, total, err := s.queries.StockRows(ctx, req)
	if err != nil {
		return StockListing{}, err
	}
	for _, row := range rows {
		if row.StockQty < 0 {
			return StockListing{}, fmt.Errorf("reports: type %d stock is %d: %w", row.TypeID, row.StockQty, shared.ErrIntegrityViolation)
		}
	}
	totals, err := s.queries.StockTotals(ctx)
	if err != nil {
		return StockListing{}, err
	}
	return StockListing{
		Header:     StockHeader,
		Rows:       rows,
		Totals:     totals,
		Pagination: shared.NewPagination(req, total),
	}, nil
}

// Counters returns the dashboard counts, served from cache when fresh.
// Concurrent cache misses collapse into a single store query.
func (s *Service) Counters(ctx context.Context) (Counters, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, countersCacheKey).Bytes(); err == nil {
			var c Counters
			if err := json.Unmarshal(raw, &c); err == nil {
				return c, nil
			}
		}
	}
	v, err, _ := s.group.Do(countersCacheKey, func() (any, error) {
		c, err := s.queries.Counters(ctx)
		if err != nil {
			return Counters{}, err
		}
		if s.cache != nil {
			if raw, err := json.Marshal(c); err == nil {
				s.cache.Set(ctx, countersCacheKey, raw, s.ttl)
			}
		}
		return c, nil
	})
	if err != nil {
		return Counters{}, err
	}
	return v.(Counters), nil
}
