package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus represents the state of a bidder/seller account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// Account represents a registered participant. Any account may create
// auctions (becoming their seller) or bid in auctions it did not create.
type Account struct {
	ID           uuid.UUID     `json:"id"`
	Username     string        `json:"username"`
	PasswordHash string        `json:"-"` // Never expose
	DisplayName  string        `json:"display_name"`
	Status       AccountStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsActive returns true if the account may authenticate and transact.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
