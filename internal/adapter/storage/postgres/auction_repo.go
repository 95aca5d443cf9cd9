package postgres

import (
	"context"
	"errors"
	"fmt"

	"auction-escrow-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AuctionRepo implements ports.AuctionRepository. Auctions live in the
// auctions table, one row per bidder in auction_bids.
type AuctionRepo struct {
	pool Pool
}

// NewAuctionRepo creates a new AuctionRepo.
func NewAuctionRepo(pool Pool) *AuctionRepo {
	return &AuctionRepo{pool: pool}
}

// Create inserts a new auction into the database.
func (r *AuctionRepo) Create(ctx context.Context, a *domain.Auction) error {
	query := `INSERT INTO auctions (id, seller, item_descriptor, starting_price, min_pct_increment,
		start_at, expires_at, allow_list_enabled, highest_bidder, seller_has_withdrawn, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.Seller, a.ItemDescriptor, a.StartingPrice, a.MinPctIncrement,
		a.StartAt, a.ExpiresAt, a.AllowListEnabled, nullableUUID(a.HighestBidder),
		a.SellerHasWithdrawn, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert auction: %w", err)
	}
	return nil
}

// GetByID fetches one auction with all its bid records.
func (r *AuctionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `SELECT id, seller, item_descriptor, starting_price, min_pct_increment,
		start_at, expires_at, allow_list_enabled, highest_bidder, seller_has_withdrawn, created_at
		FROM auctions WHERE id = $1`

	a, err := scanAuction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auction by id: %w", err)
	}

	if err := r.loadBids(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// LoadAll returns every stored auction with its bid records. Used to
// rebuild the in-memory registry at startup.
func (r *AuctionRepo) LoadAll(ctx context.Context) ([]*domain.Auction, error) {
	query := `SELECT id, seller, item_descriptor, starting_price, min_pct_increment,
		start_at, expires_at, allow_list_enabled, highest_bidder, seller_has_withdrawn, created_at
		FROM auctions ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan auction: %w", err)
		}
		auctions = append(auctions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate auctions: %w", err)
	}

	for _, a := range auctions {
		if err := r.loadBids(ctx, a); err != nil {
			return nil, err
		}
	}
	return auctions, nil
}

// RecordBid upserts one bidder's record and marks them highest.
func (r *AuctionRepo) RecordBid(ctx context.Context, auctionID, bidder uuid.UUID, record *domain.BidRecord) error {
	query := `INSERT INTO auction_bids (auction_id, bidder, amount, payout_address, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (auction_id, bidder)
		DO UPDATE SET amount = EXCLUDED.amount, payout_address = EXCLUDED.payout_address, updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, auctionID, bidder, record.Amount, record.PayoutAddress); err != nil {
		return fmt.Errorf("upsert bid record: %w", err)
	}

	if _, err := r.pool.Exec(ctx,
		`UPDATE auctions SET highest_bidder = $1 WHERE id = $2`,
		bidder, auctionID,
	); err != nil {
		return fmt.Errorf("update highest bidder: %w", err)
	}
	return nil
}

// SetSellerWithdrawn marks the seller's proceeds as withdrawn.
func (r *AuctionRepo) SetSellerWithdrawn(ctx context.Context, auctionID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE auctions SET seller_has_withdrawn = TRUE WHERE id = $1`,
		auctionID,
	)
	if err != nil {
		return fmt.Errorf("set seller withdrawn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("auction not found: %s", auctionID)
	}
	return nil
}

// ClearBidAmount zeroes a refunded loser's escrow record.
func (r *AuctionRepo) ClearBidAmount(ctx context.Context, auctionID, bidder uuid.UUID) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE auction_bids SET amount = 0, updated_at = NOW() WHERE auction_id = $1 AND bidder = $2`,
		auctionID, bidder,
	); err != nil {
		return fmt.Errorf("clear bid amount: %w", err)
	}
	return nil
}

// loadBids attaches the auction's bid records.
func (r *AuctionRepo) loadBids(ctx context.Context, a *domain.Auction) error {
	rows, err := r.pool.Query(ctx,
		`SELECT bidder, amount, payout_address FROM auction_bids WHERE auction_id = $1`,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("load bid records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bidder uuid.UUID
		rec := &domain.BidRecord{}
		if err := rows.Scan(&bidder, &rec.Amount, &rec.PayoutAddress); err != nil {
			return fmt.Errorf("scan bid record: %w", err)
		}
		a.Bids[bidder] = rec
	}
	return rows.Err()
}

// scanAuction reads one auctions row.
func scanAuction(row pgx.Row) (*domain.Auction, error) {
	a := &domain.Auction{Bids: make(map[uuid.UUID]*domain.BidRecord)}
	var highestBidder *uuid.UUID
	err := row.Scan(
		&a.ID, &a.Seller, &a.ItemDescriptor, &a.StartingPrice, &a.MinPctIncrement,
		&a.StartAt, &a.ExpiresAt, &a.AllowListEnabled, &highestBidder,
		&a.SellerHasWithdrawn, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if highestBidder != nil {
		a.HighestBidder = *highestBidder
	}
	return a, nil
}

// nullableUUID maps uuid.Nil to SQL NULL.
func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
