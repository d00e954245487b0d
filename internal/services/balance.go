package services

import (
	"context"
	"errors"
	"log"
	"time"

	"flipclub/internal/models"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

// ServiceBalance keeps the won/withdrawn ledger and the withdrawal state
// machine. Amounts only move on two events: an idempotent credit per winning
// flip, and the paid transition of a withdrawal.
type ServiceBalance struct {
	container *do.Injector
	rs        *redsync.Redsync

	store  BalanceStore
	config ConfigSource
}

func NewServiceBalance(container *do.Injector) (*ServiceBalance, error) {
	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	store, err := do.Invoke[BalanceStore](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceBalance{container, rs, store, serviceConfig}, nil
}

// NewServiceBalanceDirect wires the service without a container.
func NewServiceBalanceDirect(store BalanceStore, config ConfigSource) *ServiceBalance {
	return &ServiceBalance{nil, nil, store, config}
}

// Credit adds a winning payout, keyed by flip id so redelivery is a no-op.
func (service *ServiceBalance) Credit(ctx context.Context, userID int64, flipID string, amount int64) error {
	if amount <= 0 {
		return nil
	}

	applied, err := service.store.Credit(ctx, userID, flipID, amount)
	if err != nil {
		return err
	}
	if !applied {
		log.Println("balance: duplicate credit skipped:", "flip:", flipID)
	}

	return nil
}

func (service *ServiceBalance) GetBalance(ctx context.Context, userID int64) (*models.BalanceView, error) {
	balance, err := service.store.Balance(ctx, userID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	min, err := service.config.GetIntConfig(ctx, CONFIG_MIN_WITHDRAWAL, DEFAULT_MIN_WITHDRAWAL)
	if err != nil {
		log.Println("balance: threshold config fallback:", err)
	}

	outstanding, err := service.store.Outstanding(ctx, userID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	pending := balance.Pending()
	return &models.BalanceView{
		TotalWon:       balance.TotalWon,
		TotalWithdrawn: balance.TotalWithdrawn,
		PendingBalance: pending,
		MinWithdrawal:  int64(min),
		CanWithdraw:    pending >= int64(min) && outstanding == nil,
	}, nil
}

// RequestWithdrawal opens a request for the full pending balance. The partial
// unique index on non-terminal requests is what actually enforces one at a
// time; the lock only avoids burning an insert on the common double-click.
func (service *ServiceBalance) RequestWithdrawal(ctx context.Context, userID int64, now time.Time) (*models.WithdrawalRequest, error) {
	if service.rs != nil {
		mutex := service.rs.NewMutex(LockKeyUserWithdrawal(userID))
		if err := mutex.TryLock(); err != nil {
			return nil, errorx.Wrap(ErrWithdrawalLock, errorx.Invalid)
		}
		//nolint:errcheck
		defer mutex.Unlock()
	}

	balance, err := service.store.Balance(ctx, userID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	min, err := service.config.GetIntConfig(ctx, CONFIG_MIN_WITHDRAWAL, DEFAULT_MIN_WITHDRAWAL)
	if err != nil {
		log.Println("balance: threshold config fallback:", err)
	}

	pending := balance.Pending()
	if pending < int64(min) {
		return nil, errorx.Wrap(ErrBelowThreshold, errorx.Invalid)
	}

	request := &models.WithdrawalRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    pending,
		Status:    models.WithdrawalStatusRequested,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}

	err = service.store.InsertWithdrawal(ctx, request)
	if errors.Is(err, ErrWithdrawalOutstanding) {
		return nil, errorx.Wrap(ErrWithdrawalOutstanding, errorx.Invalid)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return request, nil
}

func (service *ServiceBalance) ListWithdrawals(ctx context.Context, userID int64) ([]*models.WithdrawalRequest, error) {
	requests, err := service.store.ListWithdrawals(ctx, userID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return requests, nil
}

func (service *ServiceBalance) Approve(ctx context.Context, id string) error {
	ok, err := service.store.MarkApproved(ctx, id)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	if !ok {
		return errorx.Wrap(errors.New("request is not in requested state"), errorx.Invalid)
	}

	return nil
}

func (service *ServiceBalance) Reject(ctx context.Context, id string, settledBy string) error {
	ok, err := service.store.MarkRejected(ctx, id, settledBy)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	if !ok {
		return errorx.Wrap(errors.New("request is already settled"), errorx.Invalid)
	}

	return nil
}

// Pay settles an approved request. The transaction reference is recorded for
// reconciliation; the actual transfer happens in the external treasury.
func (service *ServiceBalance) Pay(ctx context.Context, id string, txRef string, settledBy string) error {
	if txRef == "" {
		return errorx.Wrap(errors.New("tx_ref is required"), errorx.Validation)
	}

	ok, err := service.store.MarkPaid(ctx, id, txRef, settledBy)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	if !ok {
		return errorx.Wrap(errors.New("request is not approved"), errorx.Invalid)
	}

	return nil
}
