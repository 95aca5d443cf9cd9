package domain

import (
	"time"

	"github.com/google/uuid"
)

// LedgerAccount is one balance row in the internal asset ledger.
// The custody account that escrows all running-auction funds is just
// another ledger account with a well-known ID.
type LedgerAccount struct {
	AccountID uuid.UUID `json:"account_id"`
	Balance   int64     `json:"balance"` // Smallest asset unit, never negative
	UpdatedAt time.Time `json:"updated_at"`
}

// Transfer is an immutable record of one asset movement. FromAccount is
// uuid.Nil for external deposits (topups). The sum of all transfers into
// minus out of an account reconciles to its balance.
type Transfer struct {
	ID          uuid.UUID `json:"id"`
	FromAccount uuid.UUID `json:"from_account"`
	ToAccount   uuid.UUID `json:"to_account"`
	Amount      int64     `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}
