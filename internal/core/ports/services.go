package ports

import (
	"context"
	"time"

	"auction-escrow-service/internal/core/domain"

	"github.com/google/uuid"
)

// Clock supplies the current time. Time is the only clock the auction
// state machine trusts; callers never assert "now". The seam exists so
// tests can drive phase transitions deterministically.
type Clock interface {
	Now() time.Time
}

// AssetTransferService is the external asset-movement capability.
// Both operations either fully apply the movement or fail without
// partial effect; failure is reported synchronously.
type AssetTransferService interface {
	// TransferFrom moves amount units from one account into another
	// (bid escrow: bidder -> custody).
	TransferFrom(ctx context.Context, from, to uuid.UUID, amount int64) error
	// Transfer moves amount units out of custody to a recipient
	// (settlement: custody -> seller or custody -> refunded loser).
	Transfer(ctx context.Context, to uuid.UUID, amount int64) error
}

// AllowListService is the optional bid-gating collaborator. The auction
// core only ever calls IsAllowed; Add/Remove are administrative.
type AllowListService interface {
	IsAllowed(ctx context.Context, auctionID, accountID uuid.UUID) (bool, error)
	Add(ctx context.Context, auctionID uuid.UUID, accountIDs ...uuid.UUID) error
	Remove(ctx context.Context, auctionID uuid.UUID, accountIDs ...uuid.UUID) error
}

// EventPublisher delivers notifications to external observers.
type EventPublisher interface {
	PublishBidAccepted(ctx context.Context, event *domain.BidAccepted) error
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(accountID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	AccountID uuid.UUID
	Username  string
}

// --- Service Ports (Business Logic) ---

// AuctionService is the auction engine: bid ledger plus settlement
// controller, one critical section per auction instance.
type AuctionService interface {
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*AuctionStatus, error)
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*AuctionStatus, error)
	// SellerWithdraw releases the winning amount to the seller exactly
	// once. Returns the amount transferred (zero if no bids).
	SellerWithdraw(ctx context.Context, auctionID, caller uuid.UUID) (int64, error)
	// LoserWithdraw refunds a losing bidder's escrow. Repeat calls are
	// zero-transfer no-ops, not errors.
	LoserWithdraw(ctx context.Context, auctionID, caller uuid.UUID) (int64, error)
	// UpdateAllowList adds/removes accounts on a gated auction.
	// Seller only.
	UpdateAllowList(ctx context.Context, auctionID, caller uuid.UUID, add, remove []uuid.UUID) error
	GetAuction(ctx context.Context, auctionID uuid.UUID) (*AuctionStatus, error)
	ListAuctions(ctx context.Context) ([]*AuctionStatus, error)
}

// CreateAuctionRequest holds validated input for auction creation.
type CreateAuctionRequest struct {
	Seller           uuid.UUID
	ItemDescriptor   string
	StartingPrice    int64
	MinPctIncrement  int64
	StartTime        *time.Time // nil = start immediately
	DurationSeconds  int64
	AllowListEnabled bool
}

// PlaceBidRequest holds validated input for bid placement. Amount is
// the bidder's new cumulative total, not a delta.
type PlaceBidRequest struct {
	AuctionID     uuid.UUID
	Bidder        uuid.UUID
	Amount        int64
	PayoutAddress string
}

// AuctionStatus is a read-only snapshot of one auction. All query
// fields are derived at snapshot time and safe to expose in any phase.
type AuctionStatus struct {
	ID                 uuid.UUID
	Seller             uuid.UUID
	ItemDescriptor     string
	StartingPrice      int64
	MinPctIncrement    int64
	StartAt            time.Time
	ExpiresAt          time.Time
	State              domain.Phase
	MinimumBid         int64
	RemainingSeconds   int64
	HighestBidder      *uuid.UUID // nil until the first bid
	HighestAmount      int64
	SellerHasWithdrawn bool
	AllowListEnabled   bool
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Account, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for account registration.
type RegisterRequest struct {
	Username    string
	Password    string
	DisplayName string
}

// LedgerService funds and inspects participants' ledger accounts.
type LedgerService interface {
	// Topup credits an account from the external world and returns the
	// new balance.
	Topup(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error)
	Balance(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
