package postgres

import (
	"context"
	"errors"
	"fmt"

	"auction-escrow-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements ports.LedgerRepository.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Create inserts a zero-balance ledger row for a new account. Existing
// rows are left untouched so the call is safe to repeat.
func (r *LedgerRepo) Create(ctx context.Context, accountID uuid.UUID) error {
	query := `INSERT INTO ledger_balances (account_id, balance, updated_at)
		VALUES ($1, 0, NOW())
		ON CONFLICT (account_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, accountID); err != nil {
		return fmt.Errorf("insert ledger balance: %w", err)
	}
	return nil
}

// Get fetches a ledger account by ID (without locking).
func (r *LedgerRepo) Get(ctx context.Context, accountID uuid.UUID) (*domain.LedgerAccount, error) {
	query := `SELECT account_id, balance, updated_at FROM ledger_balances WHERE account_id = $1`

	acc := &domain.LedgerAccount{}
	err := r.pool.QueryRow(ctx, query, accountID).Scan(&acc.AccountID, &acc.Balance, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger balance: %w", err)
	}
	return acc, nil
}

// GetForUpdate fetches a ledger account with pessimistic locking.
// This MUST be called within a transaction.
func (r *LedgerRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*domain.LedgerAccount, error) {
	query := `SELECT account_id, balance, updated_at FROM ledger_balances WHERE account_id = $1 FOR UPDATE`

	acc := &domain.LedgerAccount{}
	err := tx.QueryRow(ctx, query, accountID).Scan(&acc.AccountID, &acc.Balance, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger balance for update: %w", err)
	}
	return acc, nil
}

// UpdateBalance sets a ledger account's balance within a transaction.
func (r *LedgerRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, newBalance int64) error {
	query := `UPDATE ledger_balances SET balance = $1, updated_at = NOW() WHERE account_id = $2`

	tag, err := tx.Exec(ctx, query, newBalance, accountID)
	if err != nil {
		return fmt.Errorf("update ledger balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger account not found: %s", accountID)
	}
	return nil
}

// RecordTransfer inserts a transfer record within a transaction.
func (r *LedgerRepo) RecordTransfer(ctx context.Context, tx pgx.Tx, t *domain.Transfer) error {
	query := `INSERT INTO ledger_transfers (id, from_account, to_account, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query,
		t.ID, nullableUUID(t.FromAccount), t.ToAccount, t.Amount, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}
