package purchases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/stocktally/stocktally/internal/shared"
	"github.com/stocktally/stocktally/internal/units"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates purchase-ledger operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: func() time.Time { return time.Now().UTC() }}
}

// Create records a purchase transaction and one unit row per requested
// quantity unit. The whole operation is atomic: on any failure no
// transaction and no units persist.
func (s *Service) Create(ctx context.Context, input CreateInput) (Transaction, error) {
	date, err := input.Date.Resolve(s.now())
	if err != nil {
		return Transaction{}, err
	}
	if input.SupplierID <= 0 {
		return Transaction{}, errors.New("purchases: supplier required")
	}
	if len(input.Notes) > NotesMaxLen {
		return Transaction{}, fmt.Errorf("purchases: notes exceed %d characters", NotesMaxLen)
	}
	totalQty := 0
	for _, line := range input.Lines {
		if err := validateLine(line.TypeID, line.UnitPrice, line.Qty); err != nil {
			return Transaction{}, err
		}
		totalQty += line.Qty
	}
	if totalQty == 0 {
		return Transaction{}, errors.New("purchases: at least one unit required")
	}

	tr := Transaction{
		Reference:  uuid.NewString(),
		Date:       date,
		SupplierID: input.SupplierID,
		Notes:      input.Notes,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertTransaction(ctx, tr)
		if err != nil {
			return err
		}
		tr.ID = id
		for _, line := range input.Lines {
			if line.Qty == 0 {
				continue
			}
			if err := tx.InsertUnits(ctx, id, line.TypeID, line.UnitPrice, line.Qty); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, "purchase:create", tr.ID, map[string]any{"units": totalQty})
	return tr, nil
}

// Edit reconciles a transaction against new line items without recreating
// unrelated units. Per line: the first min(len(existing), qty) existing ids
// are updated in place, ids beyond qty are deleted, and any shortfall is
// filled with brand-new units. Retention prefers sold units, so reducing a
// quantity removes unsold stock first and a sold unit keeps its identity
// whenever possible.
func (s *Service) Edit(ctx context.Context, id int64, input EditInput) error {
	date, err := input.Date.Resolve(s.now())
	if err != nil {
		return err
	}
	if input.SupplierID <= 0 {
		return errors.New("purchases: supplier required")
	}
	if len(input.Notes) > NotesMaxLen {
		return fmt.Errorf("purchases: notes exceed %d characters", NotesMaxLen)
	}
	for _, line := range input.Lines {
		if err := validateLine(line.TypeID, line.UnitPrice, line.Qty); err != nil {
			return err
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		tr, err := tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		tr.Date = date
		tr.SupplierID = input.SupplierID
		tr.Notes = input.Notes
		if err := tx.UpdateTransaction(ctx, tr); err != nil {
			return err
		}

		owned, err := tx.UnitsByPurchase(ctx, id)
		if err != nil {
			return err
		}
		byID := make(map[int64]units.Unit, len(owned))
		for _, u := range owned {
			byID[u.ID] = u
		}

		soldDeleted := false
		for _, line := range input.Lines {
			ordered, err := orderForRetention(line.ExistingIDs, byID)
			if err != nil {
				return err
			}
			keep := len(ordered)
			if line.Qty < keep {
				keep = line.Qty
			}
			for _, unitID := range ordered[:keep] {
				if err := tx.UpdateUnit(ctx, unitID, line.TypeID, line.UnitPrice); err != nil {
					return err
				}
			}
			surplus := ordered[keep:]
			for _, unitID := range surplus {
				if byID[unitID].Sold() {
					soldDeleted = true
				}
			}
			if err := tx.DeleteUnits(ctx, surplus); err != nil {
				return err
			}
			if missing := line.Qty - len(ordered); missing > 0 {
				if err := tx.InsertUnits(ctx, id, line.TypeID, line.UnitPrice, missing); err != nil {
					return err
				}
			}
		}

		if _, err := tx.SweepPurchases(ctx); err != nil {
			return err
		}
		if soldDeleted {
			if _, err := tx.SweepSales(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "purchase:edit", id, nil)
	return nil
}

// Delete removes the transaction; its units cascade away. The purchase
// sweep afterwards is a no-op for the deleted row itself but clears any
// orphan left behind by an earlier partial failure.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.DeleteTransaction(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("purchases: transaction %d: %w", id, shared.ErrNotFound)
		}
		_, err = tx.SweepPurchases(ctx)
		return err
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "purchase:delete", id, nil)
	return nil
}

// Get fetches one transaction header.
func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	return s.repo.Get(ctx, id)
}

// Lines returns the (type, price) groupings used to seed an edit request.
func (s *Service) Lines(ctx context.Context, id int64) ([]LineGroup, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Lines(ctx, id)
}

// orderForRetention validates that every id belongs to the transaction and
// orders them sold-first, so the retained prefix favours sold units and the
// deleted suffix favours unsold ones.
func orderForRetention(ids []int64, owned map[int64]units.Unit) ([]int64, error) {
	ordered := make([]int64, 0, len(ids))
	var unsold []int64
	for _, id := range ids {
		u, ok := owned[id]
		if !ok {
			return nil, fmt.Errorf("purchases: unit %d does not belong to this transaction: %w", id, shared.ErrIntegrityViolation)
		}
		if u.Sold() {
			ordered = append(ordered, id)
		} else {
			unsold = append(unsold, id)
		}
	}
	return append(ordered, unsold...), nil
}

func validateLine(typeID, price int64, qty int) error {
	if qty < 0 {
		return fmt.Errorf("purchases: quantity %d invalid", qty)
	}
	if qty == 0 {
		return nil
	}
	if typeID <= 0 {
		return errors.New("purchases: item type required")
	}
	if price < 0 {
		return errors.New("purchases: purchase price must be >= 0")
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "purchase_transaction",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
