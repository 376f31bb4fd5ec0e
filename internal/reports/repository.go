package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocktally/stocktally/internal/shared"
)

// QueryPort abstracts the read queries for service.
type QueryPort interface {
	UnitRows(ctx context.Context, f Filter, req shared.PageRequest) ([]UnitRow, int, error)
	UnitTotals(ctx context.Context, f Filter) (UnitTotals, error)
	PurchaseRows(ctx context.Context, f Filter, req shared.PageRequest) ([]PurchaseRow, int, error)
	PurchaseTotals(ctx context.Context, f Filter) (PurchaseTotals, error)
	SaleRows(ctx context.Context, f Filter, req shared.PageRequest) ([]SaleRow, int, error)
	SaleTotals(ctx context.Context, f Filter) (SaleTotals, error)
	StockRows(ctx context.Context, req shared.PageRequest) ([]StockRow, int, error)
	StockTotals(ctx context.Context) (StockTotals, error)
	Counters(ctx context.Context) (Counters, error)
}

// Repository runs the report queries against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// where renders the filter against an id column and a date column. The id
// list is exclusive when present.
func (f Filter) where(idCol, dateCol string, args *[]any) string {
	if f.Exclusive() {
		*args = append(*args, f.IDs)
		return fmt.Sprintf(" WHERE %s = ANY($%d)", idCol, len(*args))
	}
	var conds []string
	add := func(part string, values []int) {
		if len(values) == 0 {
			return
		}
		*args = append(*args, values)
		conds = append(conds, fmt.Sprintf("EXTRACT(%s FROM %s)::int = ANY($%d)", part, dateCol, len(*args)))
	}
	add("YEAR", f.Years)
	add("MONTH", f.Months)
	add("DAY", f.Days)
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func paginate(query string, req shared.PageRequest, args *[]any) string {
	if limit := req.Limit(); limit > 0 {
		*args = append(*args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(*args))
		*args = append(*args, req.Offset())
		query += fmt.Sprintf(" OFFSET $%d", len(*args))
	}
	return query
}

// UnitRows lists units with their type and ledger references. The filter's
// id list targets unit ids; its date fields target the purchase date.
func (r *Repository) UnitRows(ctx context.Context, f Filter, req shared.PageRequest) ([]UnitRow, int, error) {
	var args []any
	where := f.where("u.id", "pt.transaction_date", &args)
	from := `FROM units u
JOIN item_types it ON it.id = u.item_type_id
JOIN purchase_transactions pt ON pt.id = u.purchase_transaction_id` + where

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("reports: count units: %w", err)
	}

	query := paginate(`SELECT u.id, u.item_type_id, it.name, u.purchase_price, u.sale_price,
u.sale_price - u.purchase_price, u.purchase_transaction_id, u.sale_transaction_id `+from+` ORDER BY u.id`, req, &args)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("reports: units: %w", err)
	}
	defer rows.Close()

	var out []UnitRow
	for rows.Next() {
		var u UnitRow
		if err := rows.Scan(&u.ID, &u.TypeID, &u.TypeName, &u.PurchasePrice, &u.SalePrice, &u.Profit, &u.PurchaseID, &u.SaleID); err != nil {
			return nil, 0, fmt.Errorf("reports: scan unit: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// UnitTotals aggregates the unpaginated filtered unit set.
func (r *Repository) UnitTotals(ctx context.Context, f Filter) (UnitTotals, error) {
	var args []any
	where := f.where("u.id", "pt.transaction_date", &args)
	var t UnitTotals
	err := r.pool.QueryRow(ctx, `SELECT COUNT(u.id), COALESCE(SUM(u.purchase_price), 0),
COALESCE(SUM(u.sale_price), 0),
COALESCE(SUM(u.sale_price - u.purchase_price) FILTER (WHERE u.sale_price IS NOT NULL), 0)
FROM units u
JOIN purchase_transactions pt ON pt.id = u.purchase_transaction_id`+where, args...).
		Scan(&t.Count, &t.PurchaseTotal, &t.SaleTotal, &t.Profit)
	if err != nil {
		return UnitTotals{}, fmt.Errorf("reports: unit totals: %w", err)
	}
	return t, nil
}

// PurchaseRows lists purchases grouped by (transaction, type, unit price).
func (r *Repository) PurchaseRows(ctx context.Context, f Filter, req shared.PageRequest) ([]PurchaseRow, int, error) {
	var args []any
	where := f.where("pt.id", "pt.transaction_date", &args)
	grouped := `SELECT pt.id, pt.reference, pt.transaction_date, s.name, it.name, u.purchase_price,
COUNT(u.id)::int, SUM(u.purchase_price)
FROM purchase_transactions pt
JOIN suppliers s ON s.id = pt.supplier_id
JOIN units u ON u.purchase_transaction_id = pt.id
JOIN item_types it ON it.id = u.item_type_id` + where + `
GROUP BY pt.id, pt.reference, pt.transaction_date, s.name, it.name, u.purchase_price`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM (`+grouped+`) g`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("reports: count purchases: %w", err)
	}

	query := paginate(grouped+` ORDER BY pt.transaction_date DESC, pt.id DESC, it.name`, req, &args)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("reports: purchases: %w", err)
	}
	defer rows.Close()

	var out []PurchaseRow
	for rows.Next() {
		var p PurchaseRow
		if err := rows.Scan(&p.TransactionID, &p.Reference, &p.Date, &p.SupplierName, &p.TypeName, &p.UnitPrice, &p.Qty, &p.Subtotal); err != nil {
			return nil, 0, fmt.Errorf("reports: scan purchase: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// PurchaseTotals aggregates the unpaginated filtered purchase set.
func (r *Repository) PurchaseTotals(ctx context.Context, f Filter) (PurchaseTotals, error) {
	var args []any
	where := f.where("pt.id", "pt.transaction_date", &args)
	var t PurchaseTotals
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(u.purchase_price), 0), COUNT(u.id)::int, COUNT(DISTINCT pt.id)::int
FROM purchase_transactions pt
JOIN units u ON u.purchase_transaction_id = pt.id`+where, args...).
		Scan(&t.Amount, &t.Units, &t.Transactions)
	if err != nil {
		return PurchaseTotals{}, fmt.Errorf("reports: purchase totals: %w", err)
	}
	return t, nil
}

// SaleRows lists sales grouped by (transaction, type, sale price).
func (r *Repository) SaleRows(ctx context.Context, f Filter, req shared.PageRequest) ([]SaleRow, int, error) {
	var args []any
	where := f.where("st.id", "st.transaction_date", &args)
	grouped := `SELECT st.id, st.reference, st.transaction_date, c.name,
COALESCE(co.name, ''), COALESCE(m.name, ''), st.delivery_fee, it.name, u.sale_price,
COUNT(u.id)::int, SUM(u.sale_price)
FROM sale_transactions st
JOIN customers c ON c.id = st.customer_id
LEFT JOIN couriers co ON co.id = st.courier_id
LEFT JOIN transaction_mediums m ON m.id = st.medium_id
JOIN units u ON u.sale_transaction_id = st.id
JOIN item_types it ON it.id = u.item_type_id` + where + `
GROUP BY st.id, st.reference, st.transaction_date, c.name, co.name, m.name, st.delivery_fee, it.name, u.sale_price`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM (`+grouped+`) g`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("reports: count sales: %w", err)
	}

	query := paginate(grouped+` ORDER BY st.transaction_date DESC, st.id DESC, it.name`, req, &args)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("reports: sales: %w", err)
	}
	defer rows.Close()

	var out []SaleRow
	for rows.Next() {
		var s SaleRow
		if err := rows.Scan(&s.TransactionID, &s.Reference, &s.Date, &s.CustomerName, &s.CourierName, &s.MediumName, &s.DeliveryFee, &s.TypeName, &s.SalePrice, &s.Qty, &s.Subtotal); err != nil {
			return nil, 0, fmt.Errorf("reports: scan sale: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// SaleTotals aggregates the unpaginated filtered sale set. Each
// transaction's delivery fee counts once regardless of its line count.
func (r *Repository) SaleTotals(ctx context.Context, f Filter) (SaleTotals, error) {
	var args []any
	where := f.where("st.id", "st.transaction_date", &args)
	var t SaleTotals
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(u.sale_price), 0), COUNT(u.id)::int, COUNT(DISTINCT st.id)::int
FROM sale_transactions st
JOIN units u ON u.sale_transaction_id = st.id`+where, args...).
		Scan(&t.Amount, &t.Units, &t.Transactions)
	if err != nil {
		return SaleTotals{}, fmt.Errorf("reports: sale totals: %w", err)
	}

	args = args[:0]
	where = f.where("st.id", "st.transaction_date", &args)
	err = r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(st.delivery_fee), 0) FROM sale_transactions st`+where, args...).
		Scan(&t.DeliveryFees)
	if err != nil {
		return SaleTotals{}, fmt.Errorf("reports: delivery fees: %w", err)
	}
	return t, nil
}

// StockRows summarises every type's inventory position, including types
// with no units yet.
func (r *Repository) StockRows(ctx context.Context, req shared.PageRequest) ([]StockRow, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM item_types`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("reports: count types: %w", err)
	}

	var args []any
	query := paginate(`SELECT it.id, it.name, COUNT(u.id)::int, COUNT(u.sale_transaction_id)::int,
(COUNT(u.id) - COUNT(u.sale_transaction_id))::int,
COALESCE(SUM(u.sale_price - u.purchase_price) FILTER (WHERE u.sale_price IS NOT NULL), 0)
FROM item_types it
LEFT JOIN units u ON u.item_type_id = it.id
GROUP BY it.id, it.name
ORDER BY it.name`, req, &args)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("reports: stock: %w", err)
	}
	defer rows.Close()

	var out []StockRow
	for rows.Next() {
		var s StockRow
		if err := rows.Scan(&s.TypeID, &s.TypeName, &s.TotalQty, &s.SoldQty, &s.StockQty, &s.Profit); err != nil {
			return nil, 0, fmt.Errorf("reports: scan stock: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// StockTotals aggregates across all types.
func (r *Repository) StockTotals(ctx context.Context) (StockTotals, error) {
	var t StockTotals
	err := r.pool.QueryRow(ctx, `SELECT COUNT(u.id)::int, COUNT(u.sale_transaction_id)::int,
(COUNT(u.id) - COUNT(u.sale_transaction_id))::int,
COALESCE(SUM(u.sale_price - u.purchase_price) FILTER (WHERE u.sale_price IS NOT NULL), 0)
FROM units u`).Scan(&t.TotalQty, &t.SoldQty, &t.StockQty, &t.Profit)
	if err != nil {
		return StockTotals{}, fmt.Errorf("reports: stock totals: %w", err)
	}
	return t, nil
}

// Counters returns the dashboard footer counts.
func (r *Repository) Counters(ctx context.Context) (Counters, error) {
	var c Counters
	err := r.pool.QueryRow(ctx, `SELECT
(SELECT COUNT(*) FROM units),
(SELECT COUNT(*) FROM units WHERE sale_transaction_id IS NULL),
(SELECT COUNT(*) FROM purchase_transactions),
(SELECT COUNT(*) FROM sale_transactions),
(SELECT COUNT(DISTINCT item_type_id) FROM units WHERE sale_transaction_id IS NULL)`).
		Scan(&c.Units, &c.UnsoldUnits, &c.Purchases, &c.Sales, &c.StockedTypes)
	if err != nil {
		return Counters{}, fmt.Errorf("reports: counters: %w", err)
	}
	return c, nil
}
