package domain

import (
	"time"

	"github.com/google/uuid"
)

// BidAccepted is the notification emitted after every accepted bid.
// It is the only event the engine is required to publish; consumers
// treat the stream as read-only.
type BidAccepted struct {
	AuctionID     uuid.UUID `json:"auction_id"`
	Bidder        uuid.UUID `json:"bidder"`
	PayoutAddress string    `json:"payout_address"`
	Amount        int64     `json:"amount"` // Cumulative total after the bid
	Timestamp     time.Time `json:"timestamp"`
}
