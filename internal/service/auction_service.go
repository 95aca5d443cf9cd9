package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"auction-escrow-service/internal/core/domain"
	"auction-escrow-service/internal/core/ports"
	"auction-escrow-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// auctionEntry pairs one auction with its instance mutex. Every
// state-mutating operation holds the mutex across the decision reads,
// the external asset transfer, and the state write — the whole
// operation is one critical section per auction instance.
type auctionEntry struct {
	mu sync.Mutex
	a  *domain.Auction
}

// AuctionServiceImpl implements ports.AuctionService.
type AuctionServiceImpl struct {
	auctionRepo ports.AuctionRepository
	assetSvc    ports.AssetTransferService
	allowList   ports.AllowListService
	events      ports.EventPublisher
	clock       ports.Clock
	custodyID   uuid.UUID
	maxDuration time.Duration
	log         zerolog.Logger

	mu       sync.RWMutex
	auctions map[uuid.UUID]*auctionEntry
}

// NewAuctionService creates a new AuctionServiceImpl. custodyID is the
// shared ledger account escrowed funds are held in; maxDuration of zero
// disables the duration cap.
func NewAuctionService(
	auctionRepo ports.AuctionRepository,
	assetSvc ports.AssetTransferService,
	allowList ports.AllowListService,
	events ports.EventPublisher,
	clock ports.Clock,
	custodyID uuid.UUID,
	maxDuration time.Duration,
	log zerolog.Logger,
) *AuctionServiceImpl {
	return &AuctionServiceImpl{
		auctionRepo: auctionRepo,
		assetSvc:    assetSvc,
		allowList:   allowList,
		events:      events,
		clock:       clock,
		custodyID:   custodyID,
		maxDuration: maxDuration,
		log:         log,
		auctions:    make(map[uuid.UUID]*auctionEntry),
	}
}

// LoadAuctions rebuilds the in-memory registry from the durable record.
// Called once at startup, before the service accepts requests.
func (s *AuctionServiceImpl) LoadAuctions(ctx context.Context) error {
	stored, err := s.auctionRepo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load auctions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range stored {
		s.auctions[a.ID] = &auctionEntry{a: a}
	}

	s.log.Info().Int("count", len(stored)).Msg("auctions restored from storage")
	return nil
}

// CreateAuction validates the creation parameters, persists the auction
// and registers it. The caller becomes the seller, fixed forever.
func (s *AuctionServiceImpl) CreateAuction(ctx context.Context, req ports.CreateAuctionRequest) (*ports.AuctionStatus, error) {
	if req.StartingPrice < 0 {
		return nil, apperror.Validation("starting price must not be negative")
	}
	if req.MinPctIncrement < 0 {
		return nil, apperror.Validation("minimum increment percent must not be negative")
	}
	if req.DurationSeconds <= 0 {
		return nil, apperror.Validation("duration must be positive")
	}
	duration := time.Duration(req.DurationSeconds) * time.Second
	if s.maxDuration > 0 && duration > s.maxDuration {
		return nil, apperror.Validation("duration exceeds the configured maximum")
	}

	now := s.clock.Now().UTC()
	startAt := now
	if req.StartTime != nil {
		startAt = req.StartTime.UTC()
	}

	a := domain.NewAuction(
		uuid.New(), req.Seller, req.ItemDescriptor,
		req.StartingPrice, req.MinPctIncrement,
		startAt, duration, req.AllowListEnabled, now,
	)

	if err := s.auctionRepo.Create(ctx, a); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create auction: %w", err))
	}

	s.mu.Lock()
	s.auctions[a.ID] = &auctionEntry{a: a}
	s.mu.Unlock()

	s.log.Info().
		Str("auction_id", a.ID.String()).
		Str("seller", a.Seller.String()).
		Int64("starting_price", a.StartingPrice).
		Time("expires_at", a.ExpiresAt).
		Msg("auction created")

	return s.snapshot(a, now), nil
}

// PlaceBid validates and applies a bid. Amount is the bidder's new
// cumulative total. The escrow transfer happens before any state write;
// a failed transfer leaves the auction exactly as it was.
func (s *AuctionServiceImpl) PlaceBid(ctx context.Context, req ports.PlaceBidRequest) (*ports.AuctionStatus, error) {
	entry, err := s.entry(req.AuctionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	a := entry.a
	now := s.clock.Now().UTC()

	if a.AllowListEnabled {
		allowed, err := s.allowList.IsAllowed(ctx, a.ID, req.Bidder)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("allow-list check: %w", err))
		}
		if !allowed {
			return nil, apperror.ErrNotPermitted()
		}
	}

	if a.Phase(now) != domain.PhaseRunning {
		return nil, apperror.ErrNotRunning()
	}

	minimum := a.MinimumBid()
	if req.Amount < minimum {
		return nil, apperror.ErrBidTooLow(minimum)
	}

	// The bidder escrows only the delta on top of their prior total.
	// minimum >= highest >= the caller's prior amount, so delta >= 0;
	// it is exactly zero only when the highest bidder re-submits their
	// own amount at a zero increment.
	delta := req.Amount - a.AmountOf(req.Bidder)
	if delta > 0 {
		if err := s.assetSvc.TransferFrom(ctx, req.Bidder, s.custodyID, delta); err != nil {
			return nil, apperror.ErrTransferFailed(err)
		}
	}

	// State writes only after the transfer is confirmed.
	a.ApplyBid(req.Bidder, req.Amount, req.PayoutAddress)

	if err := s.auctionRepo.RecordBid(ctx, a.ID, req.Bidder, a.Bids[req.Bidder]); err != nil {
		// The escrow ledger is already consistent; the durable auction
		// record is behind until the next write.
		s.log.Error().Err(err).
			Str("auction_id", a.ID.String()).
			Str("bidder", req.Bidder.String()).
			Msg("failed to persist bid record")
	}

	event := &domain.BidAccepted{
		AuctionID:     a.ID,
		Bidder:        req.Bidder,
		PayoutAddress: req.PayoutAddress,
		Amount:        req.Amount,
		Timestamp:     now,
	}
	if err := s.events.PublishBidAccepted(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("auction_id", a.ID.String()).Msg("failed to publish bid-accepted event")
	}

	s.log.Info().
		Str("auction_id", a.ID.String()).
		Str("bidder", req.Bidder.String()).
		Int64("amount", req.Amount).
		Int64("escrowed_delta", delta).
		Msg("bid accepted")

	return s.snapshot(a, now), nil
}

// SellerWithdraw releases the winning amount to the seller exactly once.
// The withdrawn flag is set only after the transfer is confirmed, and
// the instance mutex keeps any second attempt out until it is.
func (s *AuctionServiceImpl) SellerWithdraw(ctx context.Context, auctionID, caller uuid.UUID) (int64, error) {
	entry, err := s.entry(auctionID)
	if err != nil {
		return 0, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	a := entry.a
	now := s.clock.Now().UTC()

	if caller != a.Seller {
		return 0, apperror.ErrNotAuthorized()
	}
	if a.Phase(now) != domain.PhaseComplete {
		return 0, apperror.ErrAuctionNotComplete()
	}
	if a.SellerHasWithdrawn {
		return 0, apperror.ErrAlreadyWithdrawn()
	}

	// Zero if no bid was ever placed; zero-value settlement is valid.
	amount := a.WinningAmount()
	if amount > 0 {
		if err := s.assetSvc.Transfer(ctx, a.Seller, amount); err != nil {
			return 0, apperror.ErrTransferFailed(err)
		}
	}

	a.SellerHasWithdrawn = true

	if err := s.auctionRepo.SetSellerWithdrawn(ctx, a.ID); err != nil {
		s.log.Error().Err(err).Str("auction_id", a.ID.String()).Msg("failed to persist seller-withdrawn flag")
	}

	s.log.Info().
		Str("auction_id", a.ID.String()).
		Str("seller", a.Seller.String()).
		Int64("amount", amount).
		Msg("seller proceeds withdrawn")

	return amount, nil
}

// LoserWithdraw refunds a losing bidder's escrow and zeroes their
// record. Repeat calls transfer zero and succeed: idempotent by design,
// no per-bidder withdrawn flag needed.
func (s *AuctionServiceImpl) LoserWithdraw(ctx context.Context, auctionID, caller uuid.UUID) (int64, error) {
	entry, err := s.entry(auctionID)
	if err != nil {
		return 0, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	a := entry.a
	now := s.clock.Now().UTC()

	// The winner never uses this path, in any phase: their escrow is
	// claimed by the seller, not refunded.
	if a.HasBids() && caller == a.HighestBidder {
		return 0, apperror.ErrNotAuthorized()
	}
	if a.Phase(now) != domain.PhaseComplete {
		return 0, apperror.ErrAuctionNotComplete()
	}

	amount := a.AmountOf(caller)
	if amount == 0 {
		return 0, nil
	}

	if err := s.assetSvc.Transfer(ctx, caller, amount); err != nil {
		return 0, apperror.ErrTransferFailed(err)
	}

	a.ClearBid(caller)

	if err := s.auctionRepo.ClearBidAmount(ctx, a.ID, caller); err != nil {
		s.log.Error().Err(err).
			Str("auction_id", a.ID.String()).
			Str("bidder", caller.String()).
			Msg("failed to persist refunded bid record")
	}

	s.log.Info().
		Str("auction_id", a.ID.String()).
		Str("bidder", caller.String()).
		Int64("amount", amount).
		Msg("losing bid refunded")

	return amount, nil
}

// UpdateAllowList adds and removes accounts on a gated auction.
func (s *AuctionServiceImpl) UpdateAllowList(ctx context.Context, auctionID, caller uuid.UUID, add, remove []uuid.UUID) error {
	entry, err := s.entry(auctionID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	a := entry.a

	if caller != a.Seller {
		return apperror.ErrNotAuthorized()
	}
	if !a.AllowListEnabled {
		return apperror.Validation("auction has no allow-list")
	}

	if len(add) > 0 {
		if err := s.allowList.Add(ctx, a.ID, add...); err != nil {
			return apperror.InternalError(fmt.Errorf("allow-list add: %w", err))
		}
	}
	if len(remove) > 0 {
		if err := s.allowList.Remove(ctx, a.ID, remove...); err != nil {
			return apperror.InternalError(fmt.Errorf("allow-list remove: %w", err))
		}
	}
	return nil
}

// GetAuction returns a read-only snapshot; safe to call in any phase.
func (s *AuctionServiceImpl) GetAuction(ctx context.Context, auctionID uuid.UUID) (*ports.AuctionStatus, error) {
	entry, err := s.entry(auctionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return s.snapshot(entry.a, s.clock.Now().UTC()), nil
}

// ListAuctions returns snapshots of every registered auction.
func (s *AuctionServiceImpl) ListAuctions(ctx context.Context) ([]*ports.AuctionStatus, error) {
	s.mu.RLock()
	entries := make([]*auctionEntry, 0, len(s.auctions))
	for _, e := range s.auctions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	now := s.clock.Now().UTC()
	out := make([]*ports.AuctionStatus, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, s.snapshot(e.a, now))
		e.mu.Unlock()
	}
	return out, nil
}

// entry looks up one auction's registry slot.
func (s *AuctionServiceImpl) entry(auctionID uuid.UUID) (*auctionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.auctions[auctionID]
	if !ok {
		return nil, apperror.ErrNotFound("auction")
	}
	return entry, nil
}

// snapshot builds a status view. Caller holds the entry mutex.
func (s *AuctionServiceImpl) snapshot(a *domain.Auction, now time.Time) *ports.AuctionStatus {
	status := &ports.AuctionStatus{
		ID:                 a.ID,
		Seller:             a.Seller,
		ItemDescriptor:     a.ItemDescriptor,
		StartingPrice:      a.StartingPrice,
		MinPctIncrement:    a.MinPctIncrement,
		StartAt:            a.StartAt,
		ExpiresAt:          a.ExpiresAt,
		State:              a.Phase(now),
		MinimumBid:         a.MinimumBid(),
		RemainingSeconds:   a.Remaining(now),
		HighestAmount:      a.HighestAmount(),
		SellerHasWithdrawn: a.SellerHasWithdrawn,
		AllowListEnabled:   a.AllowListEnabled,
	}
	if a.HasBids() {
		hb := a.HighestBidder
		status.HighestBidder = &hb
	}
	return status
}

// SystemClock is the production ports.Clock backed by the OS clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
