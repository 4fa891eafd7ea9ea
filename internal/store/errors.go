package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error taxonomy. Callers branch with errors.Is; the conversation engine
// maps each class to a user-visible action.
var (
	// ErrValidation marks bad input (empty title, unknown category).
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a uniqueness violation (duplicate favorite,
	// duplicate category name). Callers may treat it as an idempotent
	// success.
	ErrConflict = errors.New("already exists")
	// ErrNotFound marks a missing or soft-deleted row.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks an operation that exceeded the store's deadline.
	ErrTimeout = errors.New("operation timed out")
)

// classify wraps a raw error with the operation name, translating gorm
// and context errors into the store taxonomy.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("store: %s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("store: %s: %w", op, ErrConflict)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("store: %s: %w", op, ErrTimeout)
	default:
		return fmt.Errorf("store: %s: %w", op, err)
	}
}

// invalid builds an ErrValidation with a reason.
func invalid(op, reason string) error {
	return fmt.Errorf("store: %s: %s: %w", op, reason, ErrValidation)
}
