package units

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Store executes unit-row statements on a caller-provided transaction. The
// ledgers open the transaction and decide commit or rollback; the store
// never does either.
type Store struct{}

// NewStore constructs Store.
func NewStore() *Store {
	return &Store{}
}

// InsertBatch creates qty brand-new unsold units for a purchase line.
func (s *Store) InsertBatch(ctx context.Context, tx pgx.Tx, purchaseID, typeID, price int64, qty int) error {
	for i := 0; i < qty; i++ {
		_, err := tx.Exec(ctx, `INSERT INTO units (item_type_id, purchase_price, purchase_transaction_id) VALUES ($1, $2, $3)`, typeID, price, purchaseID)
		if err != nil {
			return fmt.Errorf("units: insert: %w", err)
		}
	}
	return nil
}

// ListByPurchase returns all units of a purchase transaction ordered by id,
// locking them for the duration of the transaction.
func (s *Store) ListByPurchase(ctx context.Context, tx pgx.Tx, purchaseID int64) ([]Unit, error) {
	rows, err := tx.Query(ctx, `SELECT id, item_type_id, purchase_price, sale_price, purchase_transaction_id, sale_transaction_id
FROM units
WHERE purchase_transaction_id = $1
ORDER BY id
FOR UPDATE`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("units: list by purchase: %w", err)
	}
	return scanUnits(rows)
}

// UpdateTypePrice rewrites the type and purchase price of a retained unit in
// place, preserving its identity and therefore any sale linkage.
func (s *Store) UpdateTypePrice(ctx context.Context, tx pgx.Tx, id, typeID, price int64) error {
	tag, err := tx.Exec(ctx, `UPDATE units SET item_type_id = $2, purchase_price = $3 WHERE id = $1`, id, typeID, price)
	if err != nil {
		return fmt.Errorf("units: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("units: update: unit %d gone", id)
	}
	return nil
}

// Delete removes the given unit rows outright.
func (s *Store) Delete(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `DELETE FROM units WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("units: delete: %w", err)
	}
	return nil
}

// SelectUnsoldForUpdate picks up to limit unsold units of a type, oldest
// purchase first with unit id as tiebreak, locking the rows so concurrent
// allocations cannot bind the same unit.
func (s *Store) SelectUnsoldForUpdate(ctx context.Context, tx pgx.Tx, typeID int64, limit int) ([]Unit, error) {
	rows, err := tx.Query(ctx, `SELECT u.id, u.item_type_id, u.purchase_price, u.sale_price, u.purchase_transaction_id, u.sale_transaction_id
FROM units u
JOIN purchase_transactions pt ON pt.id = u.purchase_transaction_id
WHERE u.sale_transaction_id IS NULL AND u.item_type_id = $1
ORDER BY pt.transaction_date ASC, u.id ASC
LIMIT $2
FOR UPDATE OF u`, typeID, limit)
	if err != nil {
		return nil, fmt.Errorf("units: select unsold: %w", err)
	}
	return scanUnits(rows)
}

// AssignSale marks the given units as sold against a sale transaction.
func (s *Store) AssignSale(ctx context.Context, tx pgx.Tx, ids []int64, saleID, salePrice int64) error {
	if len(ids) == 0 {
		return nil
	}
	tag, err := tx.Exec(ctx, `UPDATE units SET sale_transaction_id = $2, sale_price = $3 WHERE id = ANY($1) AND sale_transaction_id IS NULL`, ids, saleID, salePrice)
	if err != nil {
		return fmt.Errorf("units: assign sale: %w", err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return fmt.Errorf("units: assign sale: %d of %d units no longer unsold", len(ids)-int(tag.RowsAffected()), len(ids))
	}
	return nil
}

// ReleaseSale returns every unit of a sale transaction to the unsold pool.
// The units themselves survive.
func (s *Store) ReleaseSale(ctx context.Context, tx pgx.Tx, saleID int64) (int64, error) {
	tag, err := tx.Exec(ctx, `UPDATE units SET sale_transaction_id = NULL, sale_price = NULL WHERE sale_transaction_id = $1`, saleID)
	if err != nil {
		return 0, fmt.Errorf("units: release sale: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanUnits(rows pgx.Rows) ([]Unit, error) {
	defer rows.Close()
	var out []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.TypeID, &u.PurchasePrice, &u.SalePrice, &u.PurchaseTransactionID, &u.SaleTransactionID); err != nil {
			return nil, fmt.Errorf("units: scan: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("units: rows: %w", err)
	}
	return out, nil
}
