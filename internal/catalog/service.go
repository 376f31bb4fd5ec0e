package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/stocktally/stocktally/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates item-type operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Add normalises the raw name and inserts it. The unique constraint is the
// authority on duplicates; a concurrent insert of the same name surfaces as
// ErrDuplicateName from the store, not from a pre-check.
func (s *Service) Add(ctx context.Context, rawName string) (ItemType, error) {
	name := Normalize(rawName)
	if name == "" {
		return ItemType{}, errors.New("catalog: type name required")
	}
	if len(name) > NameMaxLen {
		return ItemType{}, fmt.Errorf("catalog: type name exceeds %d characters", NameMaxLen)
	}
	it, err := s.repo.Insert(ctx, name)
	if err != nil {
		return ItemType{}, err
	}
	s.recordAudit(ctx, "catalog:add", it.ID, map[string]any{"name": it.Name})
	return it, nil
}

// Exists reports whether the canonical form of rawName is registered.
func (s *Service) Exists(ctx context.Context, rawName string) (bool, error) {
	return s.repo.Exists(ctx, Normalize(rawName))
}

// Get fetches one type by id.
func (s *Service) Get(ctx context.Context, id int64) (ItemType, error) {
	return s.repo.Get(ctx, id)
}

// List returns types with pagination metadata.
func (s *Service) List(ctx context.Context, req shared.PageRequest) ([]ItemType, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req, total), nil
}

// Rename updates a type's canonical name.
func (s *Service) Rename(ctx context.Context, id int64, rawName string) error {
	name := Normalize(rawName)
	if name == "" {
		return errors.New("catalog: type name required")
	}
	if err := s.repo.Rename(ctx, id, name); err != nil {
		return err
	}
	s.recordAudit(ctx, "catalog:rename", id, map[string]any{"name": name})
	return nil
}

// Delete removes a type. Its units cascade away, which can leave purchase
// and sale transactions without a single unit; both sweeps run in the same
// transaction so no orphan survives the commit.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.DeleteType(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("catalog: type %d: %w", id, shared.ErrNotFound)
		}
		if _, err := tx.SweepPurchases(ctx); err != nil {
			return err
		}
		if _, err := tx.SweepSales(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "catalog:delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "item_type",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
