package postgres

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"auction-escrow-service/internal/core/domain"
	"auction-escrow-service/internal/core/ports"
	"auction-escrow-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerTransferService implements ports.AssetTransferService on the
// internal ledger. Each movement is one database transaction: both
// balance rows locked FOR UPDATE, debit checked against the balance,
// transfer recorded. It either fully applies or rolls back.
type LedgerTransferService struct {
	ledgerRepo ports.LedgerRepository
	transactor ports.DBTransactor
	custodyID  uuid.UUID
	log        zerolog.Logger
}

// NewLedgerTransferService creates a new LedgerTransferService.
// custodyID is the shared escrow account outbound transfers draw from.
func NewLedgerTransferService(
	ledgerRepo ports.LedgerRepository,
	transactor ports.DBTransactor,
	custodyID uuid.UUID,
	log zerolog.Logger,
) *LedgerTransferService {
	return &LedgerTransferService{
		ledgerRepo: ledgerRepo,
		transactor: transactor,
		custodyID:  custodyID,
		log:        log,
	}
}

// TransferFrom moves amount units from one account into another.
func (s *LedgerTransferService) TransferFrom(ctx context.Context, from, to uuid.UUID, amount int64) error {
	return s.move(ctx, from, to, amount)
}

// Transfer moves amount units out of custody to a recipient.
func (s *LedgerTransferService) Transfer(ctx context.Context, to uuid.UUID, amount int64) error {
	return s.move(ctx, s.custodyID, to, amount)
}

func (s *LedgerTransferService) move(ctx context.Context, from, to uuid.UUID, amount int64) error {
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}
	if from == to {
		return apperror.Validation("transfer source and destination must differ")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock both rows in a fixed order so two concurrent transfers over
	// the same pair cannot deadlock.
	first, second := from, to
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	accounts := make(map[uuid.UUID]*domain.LedgerAccount, 2)
	for _, id := range []uuid.UUID{first, second} {
		acc, err := s.ledgerRepo.GetForUpdate(ctx, dbTx, id)
		if err != nil {
			return fmt.Errorf("lock ledger account %s: %w", id, err)
		}
		if acc == nil {
			return apperror.ErrNotFound("ledger account")
		}
		accounts[id] = acc
	}

	if accounts[from].Balance < amount {
		return apperror.ErrInsufficientFunds()
	}

	if err := s.ledgerRepo.UpdateBalance(ctx, dbTx, from, accounts[from].Balance-amount); err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	if err := s.ledgerRepo.UpdateBalance(ctx, dbTx, to, accounts[to].Balance+amount); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}

	transfer := &domain.Transfer{
		ID:          uuid.New(),
		FromAccount: from,
		ToAccount:   to,
		Amount:      amount,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.ledgerRepo.RecordTransfer(ctx, dbTx, transfer); err != nil {
		return fmt.Errorf("record transfer: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.log.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Int64("amount", amount).
		Msg("ledger transfer applied")

	return nil
}
