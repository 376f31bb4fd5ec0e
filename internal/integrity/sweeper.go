// Package integrity removes orphan transactions: a purchase or sale left
// with zero referencing units is invalid and must not survive the mutation
// that emptied it.
package integrity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocktally/stocktally/internal/platform/db"
)

// DeleteEmptyPurchases removes purchase transactions with no units inside
// the caller's transaction. Returns the number of rows removed.
func DeleteEmptyPurchases(ctx context.Context, tx pgx.Tx) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM purchase_transactions pt
WHERE NOT EXISTS (SELECT 1 FROM units u WHERE u.purchase_transaction_id = pt.id)`)
	if err != nil {
		return 0, fmt.Errorf("integrity: sweep purchases: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteEmptySales removes sale transactions with no units inside the
// caller's transaction.
func DeleteEmptySales(ctx context.Context, tx pgx.Tx) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM sale_transactions st
WHERE NOT EXISTS (SELECT 1 FROM units u WHERE u.sale_transaction_id = st.id)`)
	if err != nil {
		return 0, fmt.Errorf("integrity: sweep sales: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SweepReport summarises one sweep run.
type SweepReport struct {
	PurchasesRemoved int64
	SalesRemoved     int64
}

// Validator runs standalone sweeps in their own transaction. The ledgers
// sweep inside their own mutations; the validator exists for scheduled runs
// and manual invocation after a suspected partial failure.
type Validator struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewValidator constructs Validator.
func NewValidator(pool *pgxpool.Pool, logger *slog.Logger) *Validator {
	return &Validator{pool: pool, logger: logger}
}

// Sweep deletes orphan transactions of the requested kinds atomically.
func (v *Validator) Sweep(ctx context.Context, checkPurchases, checkSales bool) (SweepReport, error) {
	var report SweepReport
	err := db.WithTx(ctx, v.pool, func(tx pgx.Tx) error {
		if checkPurchases {
			n, err := DeleteEmptyPurchases(ctx, tx)
			if err != nil {
				return err
			}
			report.PurchasesRemoved = n
		}
		if checkSales {
			n, err := DeleteEmptySales(ctx, tx)
			if err != nil {
				return err
			}
			report.SalesRemoved = n
		}
		return nil
	})
	if err != nil {
		return SweepReport{}, err
	}
	if v.logger != nil && (report.PurchasesRemoved > 0 || report.SalesRemoved > 0) {
		v.logger.Info("integrity sweep removed orphan transactions",
			slog.Int64("purchases", report.PurchasesRemoved),
			slog.Int64("sales", report.SalesRemoved))
	}
	return report, nil
}
