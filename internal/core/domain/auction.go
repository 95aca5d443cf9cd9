package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Phase is the time-derived lifecycle state of an auction.
// It is strictly monotonic: NotStarted -> Running -> Complete.
type Phase string

const (
	PhaseNotStarted Phase = "NotStarted"
	PhaseRunning    Phase = "Running"
	PhaseComplete   Phase = "Complete"
)

// PhaseAt derives the phase from wall-clock time and the two fixed
// boundary timestamps. Pure function: no side effects, no failure modes.
func PhaseAt(now, startAt, expiresAt time.Time) Phase {
	switch {
	case now.Before(startAt):
		return PhaseNotStarted
	case now.Before(expiresAt):
		return PhaseRunning
	default:
		return PhaseComplete
	}
}

// RemainingSeconds returns expiresAt - now in whole seconds. The result
// is negative once the auction has closed; callers treat negative as
// "elapsed", not as an error.
func RemainingSeconds(now, expiresAt time.Time) int64 {
	return int64(expiresAt.Sub(now) / time.Second)
}

// BidRecord holds one bidder's cumulative escrowed total. Amount is
// monotonically non-decreasing while the auction runs and is reset to
// zero exactly once when a losing bidder is refunded.
type BidRecord struct {
	Amount        int64  `json:"amount"`
	PayoutAddress string `json:"payout_address"` // Opaque; overwritten on every bid
}

// Auction is one auction instance: immutable configuration plus the
// mutable custody bookkeeping (bid records, highest bidder, settlement
// flag). All mutation goes through the methods below; callers serialize
// access per instance.
type Auction struct {
	ID               uuid.UUID `json:"id"`
	Seller           uuid.UUID `json:"seller"`
	ItemDescriptor   string    `json:"item_descriptor"`
	StartingPrice    int64     `json:"starting_price"` // Smallest asset unit
	MinPctIncrement  int64     `json:"min_pct_increment"`
	StartAt          time.Time `json:"start_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	AllowListEnabled bool      `json:"allow_list_enabled"`
	CreatedAt        time.Time `json:"created_at"`

	Bids               map[uuid.UUID]*BidRecord `json:"-"`
	HighestBidder      uuid.UUID                `json:"highest_bidder"` // uuid.Nil until the first bid
	SellerHasWithdrawn bool                     `json:"seller_has_withdrawn"`
}

// NewAuction builds an auction from creation parameters. A requested
// start time earlier than creation time is clamped to creation time:
// auctions never start in the past.
func NewAuction(id, seller uuid.UUID, itemDescriptor string, startingPrice, minPctIncrement int64, startAt time.Time, duration time.Duration, allowListEnabled bool, now time.Time) *Auction {
	if startAt.Before(now) {
		startAt = now
	}
	return &Auction{
		ID:               id,
		Seller:           seller,
		ItemDescriptor:   itemDescriptor,
		StartingPrice:    startingPrice,
		MinPctIncrement:  minPctIncrement,
		StartAt:          startAt,
		ExpiresAt:        startAt.Add(duration),
		AllowListEnabled: allowListEnabled,
		CreatedAt:        now,
		Bids:             make(map[uuid.UUID]*BidRecord),
	}
}

// Phase returns the auction's phase at the given instant.
func (a *Auction) Phase(now time.Time) Phase {
	return PhaseAt(now, a.StartAt, a.ExpiresAt)
}

// Remaining returns the signed number of seconds until expiry.
func (a *Auction) Remaining(now time.Time) int64 {
	return RemainingSeconds(now, a.ExpiresAt)
}

// HasBids reports whether any bid has ever been accepted.
func (a *Auction) HasBids() bool {
	return a.HighestBidder != uuid.Nil
}

// HighestAmount returns the current high bid, or zero before the first bid.
func (a *Auction) HighestAmount() int64 {
	if !a.HasBids() {
		return 0
	}
	return a.Bids[a.HighestBidder].Amount
}

// MinimumBid returns the smallest acceptable cumulative bid total.
// Before the first bid this is the starting price; afterwards it is
// highest * (100 + minPctIncrement) / 100 with integer floor division.
// Acceptance uses >=, so an exact tie at the boundary is accepted.
// The product saturates at math.MaxInt64 instead of overflowing, which
// makes any further raise unaffordable rather than cheap.
func (a *Auction) MinimumBid() int64 {
	if !a.HasBids() {
		return a.StartingPrice
	}
	highest := a.HighestAmount()
	factor := 100 + a.MinPctIncrement
	if highest > math.MaxInt64/factor {
		return math.MaxInt64
	}
	return highest * factor / 100
}

// AmountOf returns the cumulative escrowed total for the given bidder.
func (a *Auction) AmountOf(bidder uuid.UUID) int64 {
	if rec, ok := a.Bids[bidder]; ok {
		return rec.Amount
	}
	return 0
}

// ApplyBid records an accepted bid: the bidder's cumulative total is set
// to newTotal, the payout address overwritten, and the bidder becomes
// the highest bidder. Validation (phase, minimum, escrow transfer) is
// the caller's responsibility; ApplyBid never fails.
func (a *Auction) ApplyBid(bidder uuid.UUID, newTotal int64, payoutAddress string) {
	rec, ok := a.Bids[bidder]
	if !ok {
		rec = &BidRecord{}
		a.Bids[bidder] = rec
	}
	rec.Amount = newTotal
	rec.PayoutAddress = payoutAddress
	a.HighestBidder = bidder
}

// WinningAmount returns the amount owed to the seller at settlement.
// Zero if no bid was ever placed (zero-value settlement is valid).
func (a *Auction) WinningAmount() int64 {
	return a.HighestAmount()
}

// ClearBid zeroes a bidder's escrow record and returns the prior amount.
// Used by loser refunds; a second call returns zero, which keeps repeat
// withdrawals idempotent.
func (a *Auction) ClearBid(bidder uuid.UUID) int64 {
	rec, ok := a.Bids[bidder]
	if !ok {
		return 0
	}
	amount := rec.Amount
	rec.Amount = 0
	return amount
}

// TotalEscrow sums all bid records. While the auction runs this equals
// everything ever escrowed; after settlement it shrinks by each payout.
func (a *Auction) TotalEscrow() int64 {
	var total int64
	for _, rec := range a.Bids {
		total += rec.Amount
	}
	return total
}
