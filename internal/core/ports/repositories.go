package ports

import (
	"context"

	"auction-escrow-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// AuctionRepository persists auction configuration and custody
// bookkeeping. The in-memory auction instance is authoritative during
// operation; these writes keep the durable record in step and feed
// startup recovery.
type AuctionRepository interface {
	Create(ctx context.Context, auction *domain.Auction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	// LoadAll returns every stored auction with its bid records,
	// used to rebuild the in-memory registry at startup.
	LoadAll(ctx context.Context) ([]*domain.Auction, error)
	// RecordBid upserts one bidder's record and marks them highest.
	RecordBid(ctx context.Context, auctionID, bidder uuid.UUID, record *domain.BidRecord) error
	SetSellerWithdrawn(ctx context.Context, auctionID uuid.UUID) error
	// ClearBidAmount zeroes a refunded loser's escrow record.
	ClearBidAmount(ctx context.Context, auctionID, bidder uuid.UUID) error
}

// LedgerRepository defines persistence for the internal asset ledger.
// Methods accepting pgx.Tx are used inside transaction blocks for
// pessimistic locking.
type LedgerRepository interface {
	Create(ctx context.Context, accountID uuid.UUID) error
	Get(ctx context.Context, accountID uuid.UUID) (*domain.LedgerAccount, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*domain.LedgerAccount, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, newBalance int64) error
	RecordTransfer(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error
}

// AuditRepository defines persistence for audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
