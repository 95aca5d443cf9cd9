package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor hands out database transactions for multi-statement ledger
// work (escrow moves, topups). Implements ports.DBTransactor.
type Transactor struct {
	db Pool
}

// NewTransactor wraps the connection pool.
func NewTransactor(db Pool) *Transactor {
	return &Transactor{db: db}
}

// Begin opens a transaction. The caller owns Commit/Rollback.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.db.Begin(ctx)
}
