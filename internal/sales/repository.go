package sales

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
	SelectUnsoldForUpdate(ctx context.Context, typeID int64, limit int) ([]units.Unit, error)
	AssignSale(ctx context.Context, unitIDs []int64, saleID, salePrice int64) error
	ReleaseSale(ctx context.Context, saleID int64) (int64, error)
	SweepSales(ctx context.Context) (int64, error)
}

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Transaction, error)
	Lines(ctx context.Context, id int64) ([]LineGroup, error)
}

// Repository persists sale transactions in PostgreSQL.
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
	err := r.pool.QueryRow(ctx, `SELECT id, reference, transaction_date, customer_id, courier_id, medium_id, delivery_fee, COALESCE(notes, '')
FROM sale_transactions WHERE id = $1`, id).
		Scan(&tr.ID, &tr.Reference, &tr.Date, &tr.CustomerID, &tr.CourierID, &tr.MediumID, &tr.DeliveryFee, &tr.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, fmt.Errorf("sales: transaction %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("sales: get: %w", err)
	}
	return tr, nil
}

// Lines returns the transaction's units grouped by (type, sale price).
func (r *Repository) Lines(ctx context.Context, id int64) ([]LineGroup, error) {
	rows, err := r.pool.Query(ctx, `SELECT u.item_type_id, it.name, u.sale_price, COUNT(u.id)
FROM units u
JOIN item_types it ON it.id = u.item_type_id
WHERE u.sale_transaction_id = $1
GROUP BY u.item_type_id, it.name, u.sale_price
ORDER BY u.item_type_id, u.sale_price`, id)
	if err != nil {
		return nil, fmt.Errorf("sales: lines: %w", err)
	}
	defer rows.Close()

	var groups []LineGroup
	for rows.Next() {
		var g LineGroup
		if err := rows.Scan(&g.TypeID, &g.TypeName, &g.SalePrice, &g.Qty); err != nil {
			return nil, fmt.Errorf("sales: scan lines: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *txRepository) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	var tr Transaction
	err := r.tx.QueryRow(ctx, `SELECT id, reference, transaction_date, customer_id, courier_id, medium_id, delivery_fee, COALESCE(notes, '')
FROM sale_transactions WHERE id = $1 FOR UPDATE`, id).
		Scan(&tr.ID, &tr.Reference, &tr.Date, &tr.CustomerID, &tr.CourierID, &tr.MediumID, &tr.DeliveryFee, &tr.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, fmt.Errorf("sales: transaction %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("sales: get for update: %w", err)
	}
	return tr, nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, tr Transaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sale_transactions (reference, transaction_date, customer_id, courier_id, medium_id, delivery_fee, notes)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')) RETURNING id`,
		tr.Reference, tr.Date, tr.CustomerID, tr.CourierID, tr.MediumID, tr.DeliveryFee, tr.Notes).Scan(&id)
	if err != nil {
		return 0, shared.ClassifyStoreError("sales: insert", err)
	}
	return id, nil
}

func (r *txRepository) UpdateTransaction(ctx context.Context, tr Transaction) error {
	tag, err := r.tx.Exec(ctx, `UPDATE sale_transactions SET transaction_date = $2, customer_id = $3, courier_id = $4, medium_id = $5, delivery_fee = $6, notes = NULLIF($7, '') WHERE id = $1`,
		tr.ID, tr.Date, tr.CustomerID, tr.CourierID, tr.MediumID, tr.DeliveryFee, tr.Notes)
	if err != nil {
		return shared.ClassifyStoreError("sales: update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales: transaction %d: %w", tr.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	tag, err := r.tx.Exec(ctx, `DELETE FROM sale_transactions WHERE id = $1`, id)
	if err != nil {
		return false, shared.ClassifyStoreError("sales: delete", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *txRepository) SelectUnsoldForUpdate(ctx context.Context, typeID int64, limit int) ([]units.Unit, error) {
	return r.units.SelectUnsoldForUpdate(ctx, r.tx, typeID, limit)
}

func (r *txRepository) AssignSale(ctx context.Context, unitIDs []int64, saleID, salePrice int64) error {
	return r.units.AssignSale(ctx, r.tx, unitIDs, saleID, salePrice)
}

func (r *txRepository) ReleaseSale(ctx context.Context, saleID int64) (int64, error) {
	return r.units.ReleaseSale(ctx, r.tx, saleID)
}

func (r *txRepository) SweepSales(ctx context.Context) (int64, error) {
	return integrity.DeleteEmptySales(ctx, r.tx)
}
