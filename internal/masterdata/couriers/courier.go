// Package couriers manages the courier name list used by sales.
package couriers

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocktally/stocktally/internal/shared"
)

// Courier is a delivery courier. Names are unique.
type Courier struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Repository interface {
	List(ctx context.Context) ([]Courier, error)
	Get(ctx context.Context, id int64) (Courier, error)
	Create(ctx context.Context, name string) (Courier, error)
	Update(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Courier, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM couriers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Courier
	for rows.Next() {
		var c Courier
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Courier, error) {
	var c Courier
	err := r.db.QueryRow(ctx, `SELECT id, name FROM couriers WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Courier{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, name string) (Courier, error) {
	var c Courier
	err := r.db.QueryRow(ctx, `INSERT INTO couriers (name) VALUES ($1) RETURNING id, name`, name).Scan(&c.ID, &c.Name)
	if err != nil {
		return Courier{}, shared.ClassifyStoreError("couriers: create", err)
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, id int64, name string) error {
	tag, err := r.db.Exec(ctx, `UPDATE couriers SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return shared.ClassifyStoreError("couriers: update", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM couriers WHERE id = $1`, id)
	if err != nil {
		return shared.ClassifyStoreError("couriers: delete", err)
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

func (s *Service) List(ctx context.Context) ([]Courier, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Courier, error) {
	if id <= 0 {
		return Courier{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, name string) (Courier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Courier{}, errors.New("courier name is required")
	}
	return s.repo.Create(ctx, name)
}

func (s *Service) Update(ctx context.Context, id int64, name string) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("courier name is required")
	}
	return s.repo.Update(ctx, id, name)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}
