package shared

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the operation targeted a missing id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDate indicates a malformed or future transaction date.
	ErrInvalidDate = errors.New("invalid transaction date")
	// ErrDuplicateName indicates a unique-name collision.
	ErrDuplicateName = errors.New("name already exists")
	// ErrInsufficientStock indicates a sale requested more units than are unsold.
	ErrInsufficientStock = errors.New("insufficient unsold stock")
	// ErrIntegrityViolation indicates a required reference is missing or a
	// cascade would leave required state inconsistent.
	ErrIntegrityViolation = errors.New("referential integrity violation")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign-key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// ClassifyStoreError converts store-level constraint failures into the
// sentinel errors callers branch on. Unique violations become
// ErrDuplicateName, foreign-key violations ErrIntegrityViolation; anything
// else is wrapped with the failing operation for context.
func ClassifyStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicateName)
	case IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, ErrIntegrityViolation)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
