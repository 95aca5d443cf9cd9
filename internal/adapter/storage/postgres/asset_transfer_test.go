package postgres

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"auction-escrow-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderedPair returns two fresh UUIDs already in lock order.
func orderedPair() (uuid.UUID, uuid.UUID) {
	a, b := uuid.New(), uuid.New()
	if bytes.Compare(b[:], a[:]) < 0 {
		a, b = b, a
	}
	return a, b
}

func newTransferService(mock pgxmock.PgxPoolIface, custodyID uuid.UUID) *LedgerTransferService {
	return NewLedgerTransferService(NewLedgerRepo(mock), NewTransactor(mock), custodyID, zerolog.Nop())
}

func TestLedgerTransferService_TransferFrom(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	from, to := orderedPair()
	svc := newTransferService(mock, uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM ledger_balances .+ FOR UPDATE").
		WithArgs(from).
		WillReturnRows(ledgerRow(from, 500))
	mock.ExpectQuery("SELECT .+ FROM ledger_balances .+ FOR UPDATE").
		WithArgs(to).
		WillReturnRows(ledgerRow(to, 100))
	mock.ExpectExec("UPDATE ledger_balances SET balance").
		WithArgs(int64(300), from).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE ledger_balances SET balance").
		WithArgs(int64(300), to).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO ledger_transfers").
		WithArgs(pgxmock.AnyArg(), &from, to, int64(200), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	err = svc.TransferFrom(context.Background(), from, to, 200)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerTransferService_InsufficientFunds(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	from, to := orderedPair()
	svc := newTransferService(mock, uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM ledger_balances .+ FOR UPDATE").
		WithArgs(from).
		WillReturnRows(ledgerRow(from, 50))
	mock.ExpectQuery("SELECT .+ FROM ledger_balances .+ FOR UPDATE").
		WithArgs(to).
		WillReturnRows(ledgerRow(to, 0))
	mock.ExpectRollback()

	err = svc.TransferFrom(context.Background(), from, to, 200)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "LED_001", appErr.Code)
}

func TestLedgerTransferService_InvalidAmount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newTransferService(mock, uuid.New())

	err = svc.TransferFrom(context.Background(), uuid.New(), uuid.New(), 0)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "LED_002", appErr.Code)
}

func TestLedgerTransferService_Transfer_DrawsFromCustody(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	custody, recipient := orderedPair()
	svc := newTransferService(mock, custody)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM ledger_balances .+ FOR UPDATE").
		WithArgs(custody).
		WillReturnRows(ledgerRow(custody, 1000))
	mock.ExpectQuery("SELECT .+ FROM ledger_balances .+ FOR UPDATE").
		WithArgs(recipient).
		WillReturnRows(ledgerRow(recipient, 0))
	mock.ExpectExec("UPDATE ledger_balances SET balance").
		WithArgs(int64(600), custody).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE ledger_balances SET balance").
		WithArgs(int64(400), recipient).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO ledger_transfers").
		WithArgs(pgxmock.AnyArg(), &custody, recipient, int64(400), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	err = svc.Transfer(context.Background(), recipient, 400)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
