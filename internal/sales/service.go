package sales

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/stocktally/stocktally/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates sale-ledger operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: func() time.Time { return time.Now().UTC() }}
}

// Create records a sale and allocates units to it. Per line the oldest
// unsold units of the type are claimed, ordered by purchase date then unit
// id. A shortfall on any line fails the whole operation and nothing is
// recorded.
func (s *Service) Create(ctx context.Context, input CreateInput) (Transaction, error) {
	date, err := input.Date.Resolve(s.now())
	if err != nil {
		return Transaction{}, err
	}
	if err := validateHeader(input.CustomerID, input.DeliveryFee, input.Notes); err != nil {
		return Transaction{}, err
	}
	totalQty := 0
	for _, line := range input.Lines {
		if err := validateLine(line.TypeID, line.SalePrice, line.Qty); err != nil {
			return Transaction{}, err
		}
		totalQty += line.Qty
	}
	if totalQty == 0 {
		return Transaction{}, errors.New("sales: at least one unit required")
	}

	tr := Transaction{
		Reference:   uuid.NewString(),
		Date:        date,
		CustomerID:  input.CustomerID,
		CourierID:   input.CourierID,
		MediumID:    input.MediumID,
		DeliveryFee: input.DeliveryFee,
		Notes:       input.Notes,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertTransaction(ctx, tr)
		if err != nil {
			return err
		}
		tr.ID = id
		return allocate(ctx, tx, id, input.Lines)
	})
	if err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, "sale:create", tr.ID, map[string]any{"units": totalQty})
	return tr, nil
}

// Edit rebuilds the allocation from scratch: every unit currently on the
// sale is released, then the new lines are allocated as a creation would
// be. Releasing first means an edit that only reprices already-held stock
// cannot fail for lack of inventory.
func (s *Service) Edit(ctx context.Context, id int64, input EditInput) error {
	date, err := input.Date.Resolve(s.now())
	if err != nil {
		return err
	}
	if err := validateHeader(input.CustomerID, input.DeliveryFee, input.Notes); err != nil {
		return err
	}
	for _, line := range input.Lines {
		if err := validateLine(line.TypeID, line.SalePrice, line.Qty); err != nil {
			return err
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		tr, err := tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		tr.Date = date
		tr.CustomerID = input.CustomerID
		tr.CourierID = input.CourierID
		tr.MediumID = input.MediumID
		tr.DeliveryFee = input.DeliveryFee
		tr.Notes = input.Notes
		if err := tx.UpdateTransaction(ctx, tr); err != nil {
			return err
		}
		if _, err := tx.ReleaseSale(ctx, id); err != nil {
			return err
		}
		if err := allocate(ctx, tx, id, input.Lines); err != nil {
			return err
		}
		_, err = tx.SweepSales(ctx)
		return err
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "sale:edit", id, nil)
	return nil
}

// Delete releases the sale's units back to unsold stock and removes the
// transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var released int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		n, err := tx.ReleaseSale(ctx, id)
		if err != nil {
			return err
		}
		released = n
		ok, err := tx.DeleteTransaction(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("sales: transaction %d: %w", id, shared.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "sale:delete", id, map[string]any{"released": released})
	return nil
}

// Get fetches one transaction header.
func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	return s.repo.Get(ctx, id)
}

// Lines returns the (type, sale price) groupings used to seed an edit
// request.
func (s *Service) Lines(ctx context.Context, id int64) ([]LineGroup, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Lines(ctx, id)
}

// allocate claims the oldest unsold units for each line and binds them to
// the sale. Returns ErrInsufficientStock when any line cannot be filled.
func allocate(ctx context.Context, tx TxRepository, saleID int64, lines []LineInput) error {
	for _, line := range lines {
		if line.Qty == 0 {
			continue
		}
		eligible, err := tx.SelectUnsoldForUpdate(ctx, line.TypeID, line.Qty)
		if err != nil {
			return err
		}
		if len(eligible) < line.Qty {
			return fmt.Errorf("sales: type %d has %d unsold units, need %d: %w",
				line.TypeID, len(eligible), line.Qty, shared.ErrInsufficientStock)
		}
		ids := make([]int64, len(eligible))
		for i, u := range eligible {
			ids[i] = u.ID
		}
		if err := tx.AssignSale(ctx, ids, saleID, line.SalePrice); err != nil {
			return err
		}
	}
	return nil
}

func validateHeader(customerID int64, deliveryFee *int64, notes string) error {
	if customerID <= 0 {
		return errors.New("sales: customer required")
	}
	if deliveryFee != nil && *deliveryFee < 0 {
		return errors.New("sales: delivery fee must be >= 0")
	}
	if len(notes) > NotesMaxLen {
		return fmt.Errorf("sales: notes exceed %d characters", NotesMaxLen)
	}
	return nil
}

func validateLine(typeID, price int64, qty int) error {
	if qty < 0 {
		return fmt.Errorf("sales: quantity %d invalid", qty)
	}
	if qty == 0 {
		return nil
	}
	if typeID <= 0 {
		return errors.New("sales: item type required")
	}
	if price < 0 {
		return errors.New("sales: sale price must be >= 0")
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "sale_transaction",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
