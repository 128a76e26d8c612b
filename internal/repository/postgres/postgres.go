package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"fundlift-moderation-backend/internal/repository"

	_ "github.com/lib/pq"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same statement
// code serves direct calls and transactional calls.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store implements repository.Store on PostgreSQL. The compare-and-swap is
// an optimistic version check in the UPDATE predicate; InTx binds a store
// view to a single transaction so the CAS and the audit append commit
// together or not at all.
type Store struct {
	db *sql.DB // nil when bound to a transaction
	q  querier
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.db == nil {
		// Already transaction-bound.
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&Store{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
