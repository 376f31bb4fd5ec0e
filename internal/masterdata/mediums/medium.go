// Package mediums manages the transaction medium name list used by sales.
package mediums

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocktally/stocktally/internal/shared"
)

// Medium is a sales channel. Names are unique.
type Medium struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Repository interface {
	List(ctx context.Context) ([]Medium, error)
	Get(ctx context.Context, id int64) (Medium, error)
	Create(ctx context.Context, name string) (Medium, error)
	Update(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Medium, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM transaction_mediums ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Medium
	for rows.Next() {
		var m Medium
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Medium, error) {
	var m Medium
	err := r.db.QueryRow(ctx, `SELECT id, name FROM transaction_mediums WHERE id = $1`, id).Scan(&m.ID, &m.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Medium{}, shared.ErrNotFound
	}
	return m, err
}

func (r *repository) Create(ctx context.Context, name string) (Medium, error) {
	var m Medium
	err := r.db.QueryRow(ctx, `INSERT INTO transaction_mediums (name) VALUES ($1) RETURNING id, name`, name).Scan(&m.ID, &m.Name)
	if err != nil {
		return Medium{}, shared.ClassifyStoreError("mediums: create", err)
	}
	return m, nil
}

func (r *repository) Update(ctx context.Context, id int64, name string) error {
	tag, err := r.db.Exec(ctx, `UPDATE transaction_mediums SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return shared.ClassifyStoreError("mediums: update", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transaction_mediums WHERE id = $1`, id)
	if err != nil {
		return shared.ClassifyStoreError("mediums: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Medium, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Medium, error) {
	if id <= 0 {
		return Medium{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, name string) (Medium, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Medium{}, errors.New("medium name is required")
	}
	return s.repo.Create(ctx, name)
}

func (s *Service) Update(ctx context.Context, id int64, name string) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("medium name is required")
	}
	return s.repo.Update(ctx, id, name)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}
