package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stocktally/stocktally/internal/integrity"
	"github.com/stocktally/stocktally/internal/shared"
)

const (
	// TaskIntegritySweep removes transactions left without units.
	TaskIntegritySweep = "ledger:sweep"
	// TaskAuditCleanup trims expired audit_logs rows.
	TaskAuditCleanup = "audit:cleanup"
)

// NewIntegritySweepTask constructs the sweep task.
func NewIntegritySweepTask() *asynq.Task {
	return asynq.NewTask(TaskIntegritySweep, nil)
}

// NewAuditCleanupTask constructs the cleanup task.
func NewAuditCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskAuditCleanup, nil)
}

// HandleIntegritySweep returns the handler for TaskIntegritySweep. The sweep
// inside ledger transactions keeps the data clean in steady state; this job
// is the safety net for anything they missed.
func HandleIntegritySweep(validator *integrity.Validator, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		report, err := validator.Sweep(ctx, true, true)
		if err != nil {
			return err
		}
		if report.PurchasesRemoved > 0 || report.SalesRemoved > 0 {
			logger.Warn("sweep removed orphaned transactions",
				slog.Int64("purchases", report.PurchasesRemoved),
				slog.Int64("sales", report.SalesRemoved))
		}
		return nil
	}
}

// HandleAuditCleanup returns the handler for TaskAuditCleanup.
func HandleAuditCleanup(audit *shared.AuditLogger, retention time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		if err := audit.Cleanup(ctx, retention); err != nil {
			return err
		}
		logger.Info("audit cleanup done", slog.Duration("retention", retention))
		return nil
	}
}
