package integration

import (
	"context"
	"fmt"
	"sync"

	"auction-escrow-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Username == a.Username {
			return fmt.Errorf("username already exists")
		}
	}
	r.accounts[a.ID] = a
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return a, nil
}

func (r *inMemoryAccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, nil
}

// --- In-Memory Auction Repo ---

type storedBid struct {
	amount        int64
	payoutAddress string
}

type storedAuction struct {
	auction       domain.Auction
	bids          map[uuid.UUID]storedBid
	highestBidder uuid.UUID
	withdrawn     bool
}

type inMemoryAuctionRepo struct {
	mu       sync.RWMutex
	auctions map[uuid.UUID]*storedAuction
}

func newInMemoryAuctionRepo() *inMemoryAuctionRepo {
	return &inMemoryAuctionRepo{auctions: make(map[uuid.UUID]*storedAuction)}
}

func (r *inMemoryAuctionRepo) Create(ctx context.Context, a *domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions[a.ID] = &storedAuction{
		auction: *a,
		bids:    make(map[uuid.UUID]storedBid),
	}
	return nil
}

func (r *inMemoryAuctionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.auctions[id]
	if !ok {
		return nil, nil
	}
	return r.materialize(s), nil
}

func (r *inMemoryAuctionRepo) LoadAll(ctx context.Context) ([]*domain.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Auction, 0, len(r.auctions))
	for _, s := range r.auctions {
		out = append(out, r.materialize(s))
	}
	return out, nil
}

func (r *inMemoryAuctionRepo) RecordBid(ctx context.Context, auctionID, bidder uuid.UUID, record *domain.BidRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("auction not found")
	}
	s.bids[bidder] = storedBid{amount: record.Amount, payoutAddress: record.PayoutAddress}
	s.highestBidder = bidder
	return nil
}

func (r *inMemoryAuctionRepo) SetSellerWithdrawn(ctx context.Context, auctionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("auction not found")
	}
	s.withdrawn = true
	return nil
}

func (r *inMemoryAuctionRepo) ClearBidAmount(ctx context.Context, auctionID, bidder uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("auction not found")
	}
	if b, ok := s.bids[bidder]; ok {
		b.amount = 0
		s.bids[bidder] = b
	}
	return nil
}

func (r *inMemoryAuctionRepo) materialize(s *storedAuction) *domain.Auction {
	a := s.auction
	a.Bids = make(map[uuid.UUID]*domain.BidRecord, len(s.bids))
	for bidder, b := range s.bids {
		a.Bids[bidder] = &domain.BidRecord{Amount: b.amount, PayoutAddress: b.payoutAddress}
	}
	a.HighestBidder = s.highestBidder
	a.SellerHasWithdrawn = s.withdrawn
	return &a
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu        sync.RWMutex
	balances  map[uuid.UUID]int64
	transfers []domain.Transfer
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{balances: make(map[uuid.UUID]int64)}
}

func (r *inMemoryLedgerRepo) Create(ctx context.Context, accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.balances[accountID]; !ok {
		r.balances[accountID] = 0
	}
	return nil
}

func (r *inMemoryLedgerRepo) Get(ctx context.Context, accountID uuid.UUID) (*domain.LedgerAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	balance, ok := r.balances[accountID]
	if !ok {
		return nil, nil
	}
	return &domain.LedgerAccount{AccountID: accountID, Balance: balance}, nil
}

func (r *inMemoryLedgerRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*domain.LedgerAccount, error) {
	return r.Get(ctx, accountID)
}

func (r *inMemoryLedgerRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, newBalance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.balances[accountID]; !ok {
		return fmt.Errorf("ledger account not found")
	}
	r.balances[accountID] = newBalance
	return nil
}

func (r *inMemoryLedgerRepo) RecordTransfer(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = append(r.transfers, *transfer)
	return nil
}

func (r *inMemoryLedgerRepo) balance(accountID uuid.UUID) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[accountID]
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
