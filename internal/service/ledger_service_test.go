package service

import (
	"context"
	"testing"
	"time"

	"auction-escrow-service/internal/core/domain"
	"auction-escrow-service/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

type ledgerTestDeps struct {
	svc        *LedgerServiceImpl
	ledgerRepo *mocks.MockLedgerRepository
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupLedgerService(t *testing.T) *ledgerTestDeps {
	ctrl := gomock.NewController(t)
	d := &ledgerTestDeps{
		ledgerRepo: mocks.NewMockLedgerRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewLedgerService(d.ledgerRepo, d.transactor, zerolog.Nop())
	return d
}

func TestLedgerService_Topup_Success(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.ledgerRepo.EXPECT().GetForUpdate(ctx, tx, accountID).Return(&domain.LedgerAccount{
		AccountID: accountID, Balance: 100, UpdatedAt: time.Now(),
	}, nil)
	d.ledgerRepo.EXPECT().UpdateBalance(ctx, tx, accountID, int64(350)).Return(nil)
	d.ledgerRepo.EXPECT().RecordTransfer(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, transfer *domain.Transfer) error {
			assert.Equal(t, uuid.Nil, transfer.FromAccount, "topup comes from outside the ledger")
			assert.Equal(t, accountID, transfer.ToAccount)
			assert.Equal(t, int64(250), transfer.Amount)
			return nil
		})

	balance, err := d.svc.Topup(ctx, accountID, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(350), balance)
}

func TestLedgerService_Topup_InvalidAmount(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.Topup(context.Background(), uuid.New(), 0)
	assertCode(t, err, "LED_002")

	_, err = d.svc.Topup(context.Background(), uuid.New(), -10)
	assertCode(t, err, "LED_002")
}

func TestLedgerService_Topup_UnknownAccount(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.ledgerRepo.EXPECT().GetForUpdate(ctx, tx, accountID).Return(nil, nil)

	_, err := d.svc.Topup(ctx, accountID, 100)
	assertCode(t, err, "AUC_008")
}

func TestLedgerService_Balance(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()

	d.ledgerRepo.EXPECT().Get(ctx, accountID).Return(&domain.LedgerAccount{
		AccountID: accountID, Balance: 420,
	}, nil)

	balance, err := d.svc.Balance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(420), balance)
}

func TestLedgerService_Balance_NotFound(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()

	d.ledgerRepo.EXPECT().Get(ctx, accountID).Return(nil, nil)

	_, err := d.svc.Balance(ctx, accountID)
	assertCode(t, err, "AUC_008")
}
