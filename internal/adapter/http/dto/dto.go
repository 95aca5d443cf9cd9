package dto

import "time"

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for account login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	AccountID   string `json:"account_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreateAuctionRequest is the request body for auction creation.
type CreateAuctionRequest struct {
	ItemDescriptor   string     `json:"item_descriptor" binding:"required,min=1,max=500"`
	StartingPrice    int64      `json:"starting_price" binding:"gte=0"`
	MinPctIncrement  int64      `json:"min_pct_increment" binding:"gte=0"`
	StartAt          *time.Time `json:"start_at,omitempty"` // RFC 3339; omit to start immediately
	DurationSeconds  int64      `json:"duration_seconds" binding:"required,gt=0"`
	AllowListEnabled bool       `json:"allow_list_enabled"`
}

// BidRequest is the request body for bid placement. Amount is the
// bidder's new cumulative total. PayoutAddress is opaque: stored and
// republished byte for byte, never sanitized.
type BidRequest struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	PayoutAddress string `json:"payout_address" binding:"required,max=256"`
}

// AllowListUpdateRequest adds/removes accounts on a gated auction.
type AllowListUpdateRequest struct {
	Add    []string `json:"add" binding:"omitempty,dive,uuid"`
	Remove []string `json:"remove" binding:"omitempty,dive,uuid"`
}

// TopupRequest is the request body for a ledger topup.
type TopupRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// BalanceResponse is the response for a ledger balance query.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// TopupResponse is the response for a successful topup.
type TopupResponse struct {
	Balance int64 `json:"balance"`
}

// AuctionResponse is the response body for auction state queries.
type AuctionResponse struct {
	ID                 string  `json:"id"`
	Seller             string  `json:"seller"`
	ItemDescriptor     string  `json:"item_descriptor"`
	StartingPrice      int64   `json:"starting_price"`
	MinPctIncrement    int64   `json:"min_pct_increment"`
	StartAt            string  `json:"start_at"`
	ExpiresAt          string  `json:"expires_at"`
	State              string  `json:"state"`
	MinimumBid         int64   `json:"minimum_bid"`
	RemainingSeconds   int64   `json:"remaining_seconds"`
	HighestBidder      *string `json:"highest_bidder,omitempty"`
	HighestAmount      int64   `json:"highest_amount"`
	SellerHasWithdrawn bool    `json:"seller_has_withdrawn"`
	AllowListEnabled   bool    `json:"allow_list_enabled"`
}

// WithdrawResponse is the response for settlement withdrawals.
type WithdrawResponse struct {
	Amount int64 `json:"amount"`
}
