package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auction-escrow-service/internal/core/domain"
	"auction-escrow-service/internal/core/ports"
	"auction-escrow-service/internal/core/ports/mocks"
	"auction-escrow-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeClock is a manually advanced ports.Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type auctionTestDeps struct {
	svc       *AuctionServiceImpl
	repo      *mocks.MockAuctionRepository
	assetSvc  *mocks.MockAssetTransferService
	allowList *mocks.MockAllowListService
	events    *mocks.MockEventPublisher
	clock     *fakeClock
	custodyID uuid.UUID
	ctrl      *gomock.Controller
}

func setupAuctionService(t *testing.T) *auctionTestDeps {
	ctrl := gomock.NewController(t)
	d := &auctionTestDeps{
		repo:      mocks.NewMockAuctionRepository(ctrl),
		assetSvc:  mocks.NewMockAssetTransferService(ctrl),
		allowList: mocks.NewMockAllowListService(ctrl),
		events:    mocks.NewMockEventPublisher(ctrl),
		clock:     newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		custodyID: uuid.New(),
		ctrl:      ctrl,
	}
	d.svc = NewAuctionService(
		d.repo, d.assetSvc, d.allowList, d.events,
		d.clock, d.custodyID, 0, zerolog.Nop(),
	)
	return d
}

// createAuction registers an auction through the service with the repo
// write stubbed out.
func (d *auctionTestDeps) createAuction(t *testing.T, req ports.CreateAuctionRequest) *ports.AuctionStatus {
	t.Helper()
	d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	status, err := d.svc.CreateAuction(context.Background(), req)
	require.NoError(t, err)
	return status
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

// ==================== CreateAuction Tests ====================

func TestAuctionService_CreateAuction_Success(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          uuid.New(),
		ItemDescriptor:  "rare vinyl pressing",
		StartingPrice:   100,
		MinPctIncrement: 10,
		DurationSeconds: 3600,
	})

	assert.Equal(t, domain.PhaseRunning, status.State)
	assert.Equal(t, int64(100), status.MinimumBid)
	assert.Equal(t, int64(3600), status.RemainingSeconds)
	assert.Nil(t, status.HighestBidder)
}

func TestAuctionService_CreateAuction_Validation(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	cases := []struct {
		name string
		req  ports.CreateAuctionRequest
	}{
		{"negative starting price", ports.CreateAuctionRequest{Seller: uuid.New(), StartingPrice: -1, DurationSeconds: 60}},
		{"negative increment", ports.CreateAuctionRequest{Seller: uuid.New(), MinPctIncrement: -5, DurationSeconds: 60}},
		{"zero duration", ports.CreateAuctionRequest{Seller: uuid.New(), DurationSeconds: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.svc.CreateAuction(context.Background(), tc.req)
			assertCode(t, err, "VAL_001")
		})
	}
}

func TestAuctionService_CreateAuction_DurationCap(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockAuctionRepository(ctrl)
	svc := NewAuctionService(
		repo, mocks.NewMockAssetTransferService(ctrl), mocks.NewMockAllowListService(ctrl),
		mocks.NewMockEventPublisher(ctrl), newFakeClock(time.Now().UTC()),
		uuid.New(), time.Hour, zerolog.Nop(),
	)

	_, err := svc.CreateAuction(context.Background(), ports.CreateAuctionRequest{
		Seller:          uuid.New(),
		DurationSeconds: 7200,
	})
	assertCode(t, err, "VAL_001")
}

func TestAuctionService_CreateAuction_PastStartClamped(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	past := d.clock.Now().Add(-time.Hour)
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          uuid.New(),
		StartingPrice:   10,
		DurationSeconds: 600,
		StartTime:       &past,
	})

	assert.Equal(t, d.clock.Now(), status.StartAt)
	assert.Equal(t, domain.PhaseRunning, status.State)
}

func TestAuctionService_CreateAuction_FutureStart(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	future := d.clock.Now().Add(time.Hour)
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          uuid.New(),
		StartingPrice:   10,
		DurationSeconds: 600,
		StartTime:       &future,
	})

	assert.Equal(t, domain.PhaseNotStarted, status.State)
}

// ==================== PlaceBid Tests ====================

func TestAuctionService_PlaceBid_FullLifecycle(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	seller := uuid.New()
	bidderA := uuid.New()
	bidderB := uuid.New()

	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          seller,
		ItemDescriptor:  "signed first edition",
		StartingPrice:   100,
		MinPctIncrement: 10,
		DurationSeconds: 3600,
	})
	auctionID := status.ID

	// A opens at the starting price: 100 escrowed.
	d.assetSvc.EXPECT().TransferFrom(ctx, bidderA, d.custodyID, int64(100)).Return(nil)
	d.repo.EXPECT().RecordBid(ctx, auctionID, bidderA, gomock.Any()).Return(nil)
	d.events.EXPECT().PublishBidAccepted(ctx, gomock.Any()).Return(nil)

	status, err := d.svc.PlaceBid(ctx, ports.PlaceBidRequest{
		AuctionID: auctionID, Bidder: bidderA, Amount: 100, PayoutAddress: "addr-A",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), status.HighestAmount)
	assert.Equal(t, int64(110), status.MinimumBid)

	// B at 109 is under the 10% minimum of 110.
	_, err = d.svc.PlaceBid(ctx, ports.PlaceBidRequest{
		AuctionID: auctionID, Bidder: bidderB, Amount: 109, PayoutAddress: "addr-B",
	})
	assertCode(t, err, "AUC_003")

	// B at exactly 110 is accepted; the full 110 is escrowed.
	d.assetSvc.EXPECT().TransferFrom(ctx, bidderB, d.custodyID, int64(110)).Return(nil)
	d.repo.EXPECT().RecordBid(ctx, auctionID, bidderB, gomock.Any()).Return(nil)
	d.events.EXPECT().PublishBidAccepted(ctx, gomock.Any()).Return(nil)

	status, err = d.svc.PlaceBid(ctx, ports.PlaceBidRequest{
		AuctionID: auctionID, Bidder: bidderB, Amount: 110, PayoutAddress: "addr-B",
	})
	require.NoError(t, err)
	require.NotNil(t, status.HighestBidder)
	assert.Equal(t, bidderB, *status.HighestBidder)

	// Time runs out.
	d.clock.Advance(2 * time.Hour)

	// Seller collects the winning 110, exactly once.
	d.assetSvc.EXPECT().Transfer(ctx, seller, int64(110)).Return(nil)
	d.repo.EXPECT().SetSellerWithdrawn(ctx, auctionID).Return(nil)

	amount, err := d.svc.SellerWithdraw(ctx, auctionID, seller)
	require.NoError(t, err)
	assert.Equal(t, int64(110), amount)

	_, err = d.svc.SellerWithdraw(ctx, auctionID, seller)
	assertCode(t, err, "AUC_007")

	// A is refunded their 100.
	d.assetSvc.EXPECT().Transfer(ctx, bidderA, int64(100)).Return(nil)
	d.repo.EXPECT().ClearBidAmount(ctx, auctionID, bidderA).Return(nil)

	refund, err := d.svc.LoserWithdraw(ctx, auctionID, bidderA)
	require.NoError(t, err)
	assert.Equal(t, int64(100), refund)

	// A second refund attempt is a zero-transfer no-op.
	refund, err = d.svc.LoserWithdraw(ctx, auctionID, bidderA)
	require.NoError(t, err)
	assert.Equal(t, int64(0), refund)

	// The winner's escrow belongs to the seller; B cannot refund it.
	_, err = d.svc.LoserWithdraw(ctx, auctionID, bidderB)
	assertCode(t, err, "AUC_005")
}

func TestAuctionService_PlaceBid_PhaseGates(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	future := d.clock.Now().Add(time.Hour)
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          uuid.New(),
		StartingPrice:   50,
		DurationSeconds: 600,
		StartTime:       &future,
	})

	req := ports.PlaceBidRequest{AuctionID: status.ID, Bidder: uuid.New(), Amount: 50, PayoutAddress: "addr"}

	// Before start.
	_, err := d.svc.PlaceBid(ctx, req)
	assertCode(t, err, "AUC_002")

	// After expiry.
	d.clock.Advance(2 * time.Hour)
	_, err = d.svc.PlaceBid(ctx, req)
	assertCode(t, err, "AUC_002")
}

func TestAuctionService_PlaceBid_AllowList(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	bidder := uuid.New()
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:           uuid.New(),
		StartingPrice:    50,
		DurationSeconds:  600,
		AllowListEnabled: true,
	})

	req := ports.PlaceBidRequest{AuctionID: status.ID, Bidder: bidder, Amount: 50, PayoutAddress: "addr"}

	// Not on the list.
	d.allowList.EXPECT().IsAllowed(ctx, status.ID, bidder).Return(false, nil)
	_, err := d.svc.PlaceBid(ctx, req)
	assertCode(t, err, "AUC_001")

	// On the list.
	d.allowList.EXPECT().IsAllowed(ctx, status.ID, bidder).Return(true, nil)
	d.assetSvc.EXPECT().TransferFrom(ctx, bidder, d.custodyID, int64(50)).Return(nil)
	d.repo.EXPECT().RecordBid(ctx, status.ID, bidder, gomock.Any()).Return(nil)
	d.events.EXPECT().PublishBidAccepted(ctx, gomock.Any()).Return(nil)

	_, err = d.svc.PlaceBid(ctx, req)
	assert.NoError(t, err)
}

func TestAuctionService_PlaceBid_TransferFailureLeavesStateUntouched(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	bidder := uuid.New()
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          uuid.New(),
		StartingPrice:   100,
		DurationSeconds: 600,
	})

	d.assetSvc.EXPECT().
		TransferFrom(ctx, bidder, d.custodyID, int64(100)).
		Return(errors.New("insufficient balance"))

	_, err := d.svc.PlaceBid(ctx, ports.PlaceBidRequest{
		AuctionID: status.ID, Bidder: bidder, Amount: 100, PayoutAddress: "addr",
	})
	assertCode(t, err, "AUC_004")

	// No bid was recorded: the minimum is still the starting price.
	after, err := d.svc.GetAuction(ctx, status.ID)
	require.NoError(t, err)
	assert.Nil(t, after.HighestBidder)
	assert.Equal(t, int64(100), after.MinimumBid)
}

func TestAuctionService_PlaceBid_RaiseEscrowsOnlyDelta(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	bidderA := uuid.New()
	bidderB := uuid.New()
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          uuid.New(),
		StartingPrice:   100,
		MinPctIncrement: 10,
		DurationSeconds: 600,
	})
	auctionID := status.ID

	d.repo.EXPECT().RecordBid(ctx, auctionID, gomock.Any(), gomock.Any()).Return(nil).Times(3)
	d.events.EXPECT().PublishBidAccepted(ctx, gomock.Any()).Return(nil).Times(3)

	d.assetSvc.EXPECT().TransferFrom(ctx, bidderA, d.custodyID, int64(100)).Return(nil)
	_, err := d.svc.PlaceBid(ctx, ports.PlaceBidRequest{AuctionID: auctionID, Bidder: bidderA, Amount: 100, PayoutAddress: "a"})
	require.NoError(t, err)

	d.assetSvc.EXPECT().TransferFrom(ctx, bidderB, d.custodyID, int64(110)).Return(nil)
	_, err = d.svc.PlaceBid(ctx, ports.PlaceBidRequest{AuctionID: auctionID, Bidder: bidderB, Amount: 110, PayoutAddress: "b"})
	require.NoError(t, err)

	// A raises to 121: only the 21 on top of their escrowed 100 moves.
	d.assetSvc.EXPECT().TransferFrom(ctx, bidderA, d.custodyID, int64(21)).Return(nil)
	_, err = d.svc.PlaceBid(ctx, ports.PlaceBidRequest{AuctionID: auctionID, Bidder: bidderA, Amount: 121, PayoutAddress: "a"})
	require.NoError(t, err)
}

func TestAuctionService_PlaceBid_ZeroDeltaRebidSkipsTransfer(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	bidder := uuid.New()
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          uuid.New(),
		StartingPrice:   100,
		MinPctIncrement: 0,
		DurationSeconds: 600,
	})

	d.repo.EXPECT().RecordBid(ctx, status.ID, bidder, gomock.Any()).Return(nil).Times(2)
	d.events.EXPECT().PublishBidAccepted(ctx, gomock.Any()).Return(nil).Times(2)

	d.assetSvc.EXPECT().TransferFrom(ctx, bidder, d.custodyID, int64(100)).Return(nil)
	_, err := d.svc.PlaceBid(ctx, ports.PlaceBidRequest{AuctionID: status.ID, Bidder: bidder, Amount: 100, PayoutAddress: "old"})
	require.NoError(t, err)

	// Re-submitting the same total at a zero increment moves no funds
	// but still refreshes the payout address.
	_, err = d.svc.PlaceBid(ctx, ports.PlaceBidRequest{AuctionID: status.ID, Bidder: bidder, Amount: 100, PayoutAddress: "new"})
	require.NoError(t, err)
}

func TestAuctionService_PlaceBid_UnknownAuction(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.PlaceBid(context.Background(), ports.PlaceBidRequest{
		AuctionID: uuid.New(), Bidder: uuid.New(), Amount: 100,
	})
	assertCode(t, err, "AUC_008")
}

// ==================== Settlement Tests ====================

func TestAuctionService_SellerWithdraw_Gates(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	seller := uuid.New()
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          seller,
		StartingPrice:   100,
		DurationSeconds: 600,
	})

	// Only the seller may settle.
	_, err := d.svc.SellerWithdraw(ctx, status.ID, uuid.New())
	assertCode(t, err, "AUC_005")

	// Not while the auction runs.
	_, err = d.svc.SellerWithdraw(ctx, status.ID, seller)
	assertCode(t, err, "AUC_006")
}

func TestAuctionService_SellerWithdraw_NoBids(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	seller := uuid.New()
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          seller,
		StartingPrice:   100,
		DurationSeconds: 600,
	})

	d.clock.Advance(time.Hour)

	// Zero-value settlement: no transfer, flag still set.
	d.repo.EXPECT().SetSellerWithdrawn(ctx, status.ID).Return(nil)

	amount, err := d.svc.SellerWithdraw(ctx, status.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount)

	_, err = d.svc.SellerWithdraw(ctx, status.ID, seller)
	assertCode(t, err, "AUC_007")
}

func TestAuctionService_SellerWithdraw_TransferFailureAllowsRetry(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	seller := uuid.New()
	bidder := uuid.New()
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          seller,
		StartingPrice:   100,
		DurationSeconds: 600,
	})

	d.assetSvc.EXPECT().TransferFrom(ctx, bidder, d.custodyID, int64(100)).Return(nil)
	d.repo.EXPECT().RecordBid(ctx, status.ID, bidder, gomock.Any()).Return(nil)
	d.events.EXPECT().PublishBidAccepted(ctx, gomock.Any()).Return(nil)
	_, err := d.svc.PlaceBid(ctx, ports.PlaceBidRequest{AuctionID: status.ID, Bidder: bidder, Amount: 100, PayoutAddress: "addr"})
	require.NoError(t, err)

	d.clock.Advance(time.Hour)

	// First attempt fails mid-transfer; the withdrawn flag must not be set.
	d.assetSvc.EXPECT().Transfer(ctx, seller, int64(100)).Return(errors.New("ledger unavailable"))
	_, err = d.svc.SellerWithdraw(ctx, status.ID, seller)
	assertCode(t, err, "AUC_004")

	// Retry succeeds.
	d.assetSvc.EXPECT().Transfer(ctx, seller, int64(100)).Return(nil)
	d.repo.EXPECT().SetSellerWithdrawn(ctx, status.ID).Return(nil)
	amount, err := d.svc.SellerWithdraw(ctx, status.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, int64(100), amount)
}

func TestAuctionService_LoserWithdraw_Gates(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	bidder := uuid.New()
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          uuid.New(),
		StartingPrice:   100,
		DurationSeconds: 600,
	})

	d.assetSvc.EXPECT().TransferFrom(ctx, bidder, d.custodyID, int64(100)).Return(nil)
	d.repo.EXPECT().RecordBid(ctx, status.ID, bidder, gomock.Any()).Return(nil)
	d.events.EXPECT().PublishBidAccepted(ctx, gomock.Any()).Return(nil)
	_, err := d.svc.PlaceBid(ctx, ports.PlaceBidRequest{AuctionID: status.ID, Bidder: bidder, Amount: 100, PayoutAddress: "addr"})
	require.NoError(t, err)

	// The current winner cannot refund, even while the auction runs.
	_, err = d.svc.LoserWithdraw(ctx, status.ID, bidder)
	assertCode(t, err, "AUC_005")

	// A non-winner cannot withdraw before completion.
	_, err = d.svc.LoserWithdraw(ctx, status.ID, uuid.New())
	assertCode(t, err, "AUC_006")
}

// ==================== Allow-List Administration ====================

func TestAuctionService_UpdateAllowList(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	seller := uuid.New()
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:           seller,
		StartingPrice:    100,
		DurationSeconds:  600,
		AllowListEnabled: true,
	})

	added := uuid.New()
	removed := uuid.New()

	// Seller only.
	err := d.svc.UpdateAllowList(ctx, status.ID, uuid.New(), []uuid.UUID{added}, nil)
	assertCode(t, err, "AUC_005")

	d.allowList.EXPECT().Add(ctx, status.ID, added).Return(nil)
	d.allowList.EXPECT().Remove(ctx, status.ID, removed).Return(nil)
	err = d.svc.UpdateAllowList(ctx, status.ID, seller, []uuid.UUID{added}, []uuid.UUID{removed})
	assert.NoError(t, err)
}

func TestAuctionService_UpdateAllowList_NotGated(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	seller := uuid.New()
	status := d.createAuction(t, ports.CreateAuctionRequest{
		Seller:          seller,
		StartingPrice:   100,
		DurationSeconds: 600,
	})

	err := d.svc.UpdateAllowList(context.Background(), status.ID, seller, []uuid.UUID{uuid.New()}, nil)
	assertCode(t, err, "VAL_001")
}

// ==================== Recovery & Queries ====================

func TestAuctionService_LoadAuctions(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	now := d.clock.Now()
	bidder := uuid.New()
	stored := domain.NewAuction(uuid.New(), uuid.New(), "restored item", 100, 10, now.Add(-time.Hour), 2*time.Hour, false, now.Add(-time.Hour))
	stored.ApplyBid(bidder, 150, "addr")

	d.repo.EXPECT().LoadAll(ctx).Return([]*domain.Auction{stored}, nil)
	require.NoError(t, d.svc.LoadAuctions(ctx))

	status, err := d.svc.GetAuction(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseRunning, status.State)
	require.NotNil(t, status.HighestBidder)
	assert.Equal(t, bidder, *status.HighestBidder)
	assert.Equal(t, int64(150), status.HighestAmount)
}

func TestAuctionService_ListAuctions(t *testing.T) {
	d := setupAuctionService(t)
	defer d.ctrl.Finish()

	d.createAuction(t, ports.CreateAuctionRequest{Seller: uuid.New(), StartingPrice: 1, DurationSeconds: 60})
	d.createAuction(t, ports.CreateAuctionRequest{Seller: uuid.New(), StartingPrice: 2, DurationSeconds: 60})

	list, err := d.svc.ListAuctions(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
