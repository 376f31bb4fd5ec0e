package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocktally/stocktally/internal/integrity"
	"github.com/stocktally/stocktally/internal/platform/db"
	"github.com/stocktally/stocktally/internal/shared"
	"github.com/stocktally/stocktally/internal/units"
)

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error)
	InsertTransaction(ctx context.Context, tr Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, tr Transaction) error
	DeleteTransaction(ctx context.Context, id int64) (bool, error)
	InsertUnits(ctx context.Context, purchaseID, typeID, price int64, qty int) error
	UnitsByPurchase(ctx context.Context, purchaseID int64) ([]units.Unit, error)
	UpdateUnit(ctx context.Context, id, typeID, price int64) error
	DeleteUnits(ctx context.Context, ids []int64) error
	SweepPurchases(ctx context.Context) (int64, error)
	SweepSales(ctx context.Context) (int64, error)
}

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Transaction, error)
	Lines(ctx context.Context, id int64) ([]LineGroup, error)
}

// Repository persists purchase transactions in PostgreSQL.
type Repository struct {
	pool  *pgxpool.Pool
	units *units.Store
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, store *units.Store) *Repository {
	return &Repository{pool: pool, units: store}
}

type txRepository struct {
	tx    pgx.Tx
	units *units.Store
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, units: r.units})
	})
}

// Get fetches one transaction header.
func (r *Repository) Get(ctx context.Context, id int64) (Transaction, error) {
	var tr Transaction
	err := r.pool.QueryRow(ctx, `SELECT id, reference, transaction_date, supplier_id, COALESCE(notes, '')
FROM purchase_transactions WHERE id = $1`, id).Scan(&tr.ID, &tr.Reference, &tr.Date, &tr.SupplierID, &tr.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, fmt.Errorf("purchases: transaction %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("purchases: get: %w", err)
	}
	return tr, nil
}

// Lines returns the transaction's units grouped by (type, price), each group
// carrying the ids an edit request must hand back.
func (r *Repository) Lines(ctx context.Context, id int64) ([]LineGroup, error) {
	rows, err := r.pool.Query(ctx, `SELECT u.item_type_id, it.name, u.purchase_price, COUNT(u.id), ARRAY_AGG(u.id ORDER BY u.id)
FROM units u
JOIN item_types it ON it.id = u.item_type_id
WHERE u.purchase_transaction_id = $1
GROUP BY u.item_type_id, it.name, u.purchase_price
ORDER BY u.item_type_id, u.purchase_price`, id)
	if err != nil {
		return nil, fmt.Errorf("purchases: lines: %w", err)
	}
	defer rows.Close()

	var groups []LineGroup
	for rows.Next() {
		var g LineGroup
		if err := rows.Scan(&g.TypeID, &g.TypeName, &g.UnitPrice, &g.Qty, &g.UnitIDs); err != nil {
			return nil, fmt.Errorf("purchases: scan lines: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *txRepository) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	var tr Transaction
	err := r.tx.QueryRow(ctx, `SELECT id, reference, transaction_date, supplier_id, COALESCE(notes, '')
FROM purchase_transactions WHERE id = $1 FOR UPDATE`, id).Scan(&tr.ID, &tr.Reference, &tr.Date, &tr.SupplierID, &tr.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, fmt.Errorf("purchases: transaction %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("purchases: get for update: %w", err)
	}
	return tr, nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, tr Transaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_transactions (reference, transaction_date, supplier_id, notes)
VALUES ($1, $2, $3, NULLIF($4, '')) RETURNING id`, tr.Reference, tr.Date, tr.SupplierID, tr.Notes).Scan(&id)
	if err != nil {
		return 0, shared.ClassifyStoreError("purchases: insert", err)
	}
	return id, nil
}

func (r *txRepository) UpdateTransaction(ctx context.Context, tr Transaction) error {
	tag, err := r.tx.Exec(ctx, `UPDATE purchase_transactions SET transaction_date = $2, supplier_id = $3, notes = NULLIF($4, '') WHERE id = $1`,
		tr.ID, tr.Date, tr.SupplierID, tr.Notes)
	if err != nil {
		return shared.ClassifyStoreError("purchases: update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchases: transaction %d: %w", tr.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	tag, err := r.tx.Exec(ctx, `DELETE FROM purchase_transactions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("purchases: delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *txRepository) InsertUnits(ctx context.Context, purchaseID, typeID, price int64, qty int) error {
	if err := r.units.InsertBatch(ctx, r.tx, purchaseID, typeID, price, qty); err != nil {
		return shared.ClassifyStoreError("purchases: insert units", err)
	}
	return nil
}

func (r *txRepository) UnitsByPurchase(ctx context.Context, purchaseID int64) ([]units.Unit, error) {
	return r.units.ListByPurchase(ctx, r.tx, purchaseID)
}

func (r *txRepository) UpdateUnit(ctx context.Context, id, typeID, price int64) error {
	if err := r.units.UpdateTypePrice(ctx, r.tx, id, typeID, price); err != nil {
		return shared.ClassifyStoreError("purchases: update unit", err)
	}
	return nil
}

func (r *txRepository) DeleteUnits(ctx context.Context, ids []int64) error {
	return r.units.Delete(ctx, r.tx, ids)
}

func (r *txRepository) SweepPurchases(ctx context.Context) (int64, error) {
	return integrity.DeleteEmptyPurchases(ctx, r.tx)
}

func (r *txRepository) SweepSales(ctx context.Context) (int64, error) {
	return integrity.DeleteEmptySales(ctx, r.tx)
}
