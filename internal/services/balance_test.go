package services

import (
	"context"
	"testing"
	"time"

	"flipclub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBalanceFixture() (*ServiceBalance, *memBalanceStore) {
	store := newMemBalanceStore()
	return NewServiceBalanceDirect(store, staticConfig{}), store
}

func TestCreditIsIdempotentPerFlip(t *testing.T) {
	ctx := context.Background()
	service, store := newBalanceFixture()

	require.NoError(t, service.Credit(ctx, 7, "flip-1", 10000))
	require.NoError(t, service.Credit(ctx, 7, "flip-1", 10000))
	require.NoError(t, service.Credit(ctx, 7, "flip-2", 10000))

	balance, err := store.Balance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), balance.TotalWon)
}

func TestCreditIgnoresNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	service, store := newBalanceFixture()

	require.NoError(t, service.Credit(ctx, 7, "flip-1", 0))
	require.NoError(t, service.Credit(ctx, 7, "flip-2", -5))

	balance, err := store.Balance(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, balance.TotalWon)
}

func TestWithdrawalThreshold(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	service, _ := newBalanceFixture()

	// four wins: 40000, still below the 50000 floor
	for i := 0; i < 4; i++ {
		require.NoError(t, service.Credit(ctx, 7, string(rune('a'+i)), 10000))
	}

	view, err := service.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), view.PendingBalance)
	assert.False(t, view.CanWithdraw)

	_, err = service.RequestWithdrawal(ctx, 7, now)
	require.ErrorIs(t, err, ErrBelowThreshold)

	require.NoError(t, service.Credit(ctx, 7, "fifth", 10000))

	view, err = service.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.True(t, view.CanWithdraw)

	request, err := service.RequestWithdrawal(ctx, 7, now)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), request.Amount)
	assert.Equal(t, models.WithdrawalStatusRequested, request.Status)
}

func TestSingleOutstandingRequest(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	service, _ := newBalanceFixture()

	require.NoError(t, service.Credit(ctx, 7, "flip-1", 60000))

	first, err := service.RequestWithdrawal(ctx, 7, now)
	require.NoError(t, err)

	_, err = service.RequestWithdrawal(ctx, 7, now)
	require.ErrorIs(t, err, ErrWithdrawalOutstanding)

	// still outstanding after approval
	require.NoError(t, service.Approve(ctx, first.ID))
	_, err = service.RequestWithdrawal(ctx, 7, now)
	require.ErrorIs(t, err, ErrWithdrawalOutstanding)

	view, err := service.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.False(t, view.CanWithdraw)
}

func TestWithdrawalPaidLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	service, store := newBalanceFixture()

	require.NoError(t, service.Credit(ctx, 7, "flip-1", 50000))

	request, err := service.RequestWithdrawal(ctx, 7, now)
	require.NoError(t, err)

	// paid requires approved first
	err = service.Pay(ctx, request.ID, "tx-abc", "ops")
	require.Error(t, err)

	require.NoError(t, service.Approve(ctx, request.ID))
	require.NoError(t, service.Pay(ctx, request.ID, "tx-abc", "ops"))

	settled, err := store.WithdrawalByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPaid, settled.Status)
	require.NotNil(t, settled.TxRef)
	assert.Equal(t, "tx-abc", *settled.TxRef)

	view, err := service.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), view.TotalWithdrawn)
	assert.Zero(t, view.PendingBalance)
	assert.GreaterOrEqual(t, view.PendingBalance, int64(0))

	// terminal states reject further transitions
	err = service.Pay(ctx, request.ID, "tx-again", "ops")
	assert.Error(t, err)
	err = service.Reject(ctx, request.ID, "ops")
	assert.Error(t, err)
}

func TestWithdrawalRejectKeepsBalance(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	service, _ := newBalanceFixture()

	require.NoError(t, service.Credit(ctx, 7, "flip-1", 50000))

	request, err := service.RequestWithdrawal(ctx, 7, now)
	require.NoError(t, err)
	require.NoError(t, service.Reject(ctx, request.ID, "ops"))

	view, err := service.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), view.PendingBalance)
	assert.True(t, view.CanWithdraw)

	// the slate is clean, a new request goes through
	_, err = service.RequestWithdrawal(ctx, 7, now)
	require.NoError(t, err)
}

func TestPayRequiresTxRef(t *testing.T) {
	ctx := context.Background()
	service, _ := newBalanceFixture()

	err := service.Pay(ctx, "whatever", "", "ops")
	assert.Error(t, err)
}
