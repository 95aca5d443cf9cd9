package service

import (
	"context"
	"fmt"
	"time"

	"auction-escrow-service/internal/core/domain"
	"auction-escrow-service/internal/core/ports"
	"auction-escrow-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService: funding and balance
// queries against the internal asset ledger.
type LedgerServiceImpl struct {
	ledgerRepo ports.LedgerRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(ledgerRepo ports.LedgerRepository, transactor ports.DBTransactor, log zerolog.Logger) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		ledgerRepo: ledgerRepo,
		transactor: transactor,
		log:        log,
	}
}

// Topup credits an account from the external world. The balance row is
// locked for the duration of the update.
func (s *LedgerServiceImpl) Topup(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.ledgerRepo.GetForUpdate(ctx, dbTx, accountID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("lock ledger account: %w", err))
	}
	if account == nil {
		return 0, apperror.ErrNotFound("ledger account")
	}

	newBalance := account.Balance + amount
	if err := s.ledgerRepo.UpdateBalance(ctx, dbTx, accountID, newBalance); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	transfer := &domain.Transfer{
		ID:          uuid.New(),
		FromAccount: uuid.Nil, // external deposit
		ToAccount:   accountID,
		Amount:      amount,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.ledgerRepo.RecordTransfer(ctx, dbTx, transfer); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("record transfer: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("account_id", accountID.String()).
		Int64("amount", amount).
		Int64("new_balance", newBalance).
		Msg("ledger topup processed")

	return newBalance, nil
}

// Balance returns the account's current ledger balance.
func (s *LedgerServiceImpl) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	account, err := s.ledgerRepo.Get(ctx, accountID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get ledger account: %w", err))
	}
	if account == nil {
		return 0, apperror.ErrNotFound("ledger account")
	}
	return account.Balance, nil
}
