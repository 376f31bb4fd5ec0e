package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocktally/stocktally/internal/integrity"
	"github.com/stocktally/stocktally/internal/platform/db"
	"github.com/stocktally/stocktally/internal/shared"
)

// TxRepository exposes the transactional operations used by Service.Delete.
// Deleting a type cascades unit deletion, which can orphan transactions on
// both sides, so the sweep runs in the same transaction.
type TxRepository interface {
	DeleteType(ctx context.Context, id int64) (bool, error)
	SweepPurchases(ctx context.Context) (int64, error)
	SweepSales(ctx context.Context) (int64, error)
}

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Insert(ctx context.Context, name string) (ItemType, error)
	Get(ctx context.Context, id int64) (ItemType, error)
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context, req shared.PageRequest) ([]ItemType, int, error)
	Rename(ctx context.Context, id int64, name string) error
}

// Repository persists item types in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Insert adds a canonical name, surfacing a uniqueness race as
// ErrDuplicateName rather than relying on any pre-check.
func (r *Repository) Insert(ctx context.Context, name string) (ItemType, error) {
	var it ItemType
	err := r.pool.QueryRow(ctx, `INSERT INTO item_types (name) VALUES ($1) RETURNING id, name`, name).Scan(&it.ID, &it.Name)
	if err != nil {
		return ItemType{}, shared.ClassifyStoreError("catalog: add", err)
	}
	return it, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (ItemType, error) {
	var it ItemType
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM item_types WHERE id = $1`, id).Scan(&it.ID, &it.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return ItemType{}, fmt.Errorf("catalog: type %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return ItemType{}, fmt.Errorf("catalog: get: %w", err)
	}
	return it, nil
}

func (r *Repository) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM item_types WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("catalog: exists: %w", err)
	}
	return exists, nil
}

func (r *Repository) List(ctx context.Context, req shared.PageRequest) ([]ItemType, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM item_types`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count: %w", err)
	}

	query := `SELECT id, name FROM item_types ORDER BY id`
	args := []any{}
	if limit := req.Limit(); limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, req.Offset())
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []ItemType
	for rows.Next() {
		var it ItemType
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, 0, fmt.Errorf("catalog: scan: %w", err)
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

func (r *Repository) Rename(ctx context.Context, id int64, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE item_types SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return shared.ClassifyStoreError("catalog: rename", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: type %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) DeleteType(ctx context.Context, id int64) (bool, error) {
	tag, err := r.tx.Exec(ctx, `DELETE FROM item_types WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("catalog: delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *txRepository) SweepPurchases(ctx context.Context) (int64, error) {
	return integrity.DeleteEmptyPurchases(ctx, r.tx)
}

func (r *txRepository) SweepSales(ctx context.Context) (int64, error) {
	return integrity.DeleteEmptySales(ctx, r.tx)
}
