// Package store is the durable persistence layer for videos, categories,
// favorites, analytics events, users, bans, broadcasts and templates.
// Every mutating operation runs as a single transaction bounded by the
// store's operation timeout.
package store

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DefaultOpTimeout bounds a single store operation when no timeout is
// configured.
const DefaultOpTimeout = 5 * time.Second

// Store wraps a gorm DB with the operation timeout and error taxonomy
// the conversation engine relies on.
type Store struct {
	db        *gorm.DB
	opTimeout time.Duration
}

// New creates a Store. A non-positive timeout falls back to DefaultOpTimeout.
func New(db *gorm.DB, opTimeout time.Duration) *Store {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &Store{db: db, opTimeout: opTimeout}
}

// opCtx derives a deadline-bounded context for one store operation.
func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.opTimeout)
}
