package services

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"time"

	"flipclub/internal/models"
	"flipclub/internal/pkg"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

const (
	settleBackoffMin = 50 * time.Millisecond
	settleBackoffMax = 5 * time.Second
)

// ServiceFlip resolves coin flips. The outcome is generated server-side after
// the entitlement unit is consumed; client input is only the chosen side.
type ServiceFlip struct {
	container *do.Injector
	rs        *redsync.Redsync

	serviceEntitlement *ServiceEntitlement
	serviceBalance     *ServiceBalance
	config             ConfigSource
	flipStore          FlipStore
	entryStore         EntryStore
}

func NewServiceFlip(container *do.Injector) (*ServiceFlip, error) {
	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	serviceEntitlement, err := do.Invoke[*ServiceEntitlement](container)
	if err != nil {
		return nil, err
	}

	serviceBalance, err := do.Invoke[*ServiceBalance](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	flipStore, err := do.Invoke[FlipStore](container)
	if err != nil {
		return nil, err
	}

	entryStore, err := do.Invoke[EntryStore](container)
	if err != nil {
		return nil, err
	}

	return &ServiceFlip{container, rs, serviceEntitlement, serviceBalance, serviceConfig, flipStore, entryStore}, nil
}

// NewServiceFlipDirect wires the service without a container.
func NewServiceFlipDirect(serviceEntitlement *ServiceEntitlement, serviceBalance *ServiceBalance, config ConfigSource, flipStore FlipStore, entryStore EntryStore) *ServiceFlip {
	return &ServiceFlip{nil, nil, serviceEntitlement, serviceBalance, config, flipStore, entryStore}
}

// Resolve consumes one entitlement unit and settles the flip. The lock is an
// advisory fast-fail for doubled-up requests; correctness of consumption does
// not depend on it. Once a unit is consumed the flip always settles: the
// bookkeeping steps are idempotent on the flip id and retried, never undone.
func (service *ServiceFlip) Resolve(ctx context.Context, userID int64, side models.FlipSide, now time.Time) (*models.FlipOutcome, error) {
	if !side.Valid() {
		return nil, errorx.Wrap(errors.New("side must be heads or tails"), errorx.Validation)
	}

	if service.rs != nil {
		mutex := service.rs.NewMutex(LockKeyUserFlip(userID))
		if err := mutex.TryLock(); err != nil {
			return nil, errorx.Wrap(ErrFlipLock, errorx.Invalid)
		}
		//nolint:errcheck
		defer mutex.Unlock()
	}

	bonusUsed, bonusGrantID, err := service.serviceEntitlement.ConsumeOne(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	resolvedSide, err := randomSide()
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	isWinner := resolvedSide == side
	var payout int64
	if isWinner {
		reward, err := service.config.GetIntConfig(ctx, CONFIG_FLIP_REWARD_AMOUNT, DEFAULT_FLIP_REWARD_AMOUNT)
		if err != nil {
			log.Println("flip: reward config fallback:", err)
		}
		payout = int64(reward)
	}

	month := pkg.MonthKey(now)
	record := &models.FlipRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		Month:        month,
		ChosenSide:   side,
		ResolvedSide: resolvedSide,
		IsWinner:     isWinner,
		Payout:       payout,
		BonusUsed:    bonusUsed,
		BonusGrantID: bonusGrantID,
		CreatedAt:    now.UTC(),
	}

	settle(ctx, record.ID, "record", func(ctx context.Context) error {
		return service.flipStore.InsertFlipRecord(ctx, record)
	})

	if isWinner {
		settle(ctx, record.ID, "credit", func(ctx context.Context) error {
			return service.serviceBalance.Credit(ctx, userID, record.ID, payout)
		})
	}

	settle(ctx, record.ID, "entry", func(ctx context.Context) error {
		return service.entryStore.IncrementEntry(ctx, userID, month)
	})

	entries, err := service.entryStore.EntryCount(ctx, userID, month)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return &models.FlipOutcome{
		Side:             resolvedSide,
		IsWinner:         isWinner,
		Payout:           payout,
		EntriesThisMonth: entries,
	}, nil
}

// Status combines the daily allowance with the month's entry count.
func (service *ServiceFlip) Status(ctx context.Context, userID int64, now time.Time) (*models.FlipStatus, error) {
	status, err := service.serviceEntitlement.Status(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	entries, err := service.entryStore.EntryCount(ctx, userID, pkg.MonthKey(now))
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	status.MyEntriesThisMonth = entries

	return status, nil
}

func randomSide() (models.FlipSide, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(2))
	if err != nil {
		return "", err
	}
	if n.Int64() == 0 {
		return models.FlipSideHeads, nil
	}
	return models.FlipSideTails, nil
}

// settle runs one bookkeeping step until it succeeds. The entitlement unit is
// already spent at this point, so giving up would lose the flip; every step is
// idempotent on the flip id and safe to repeat. The context is detached so a
// hung-up client cannot abandon a half-settled flip.
func settle(ctx context.Context, flipID, step string, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	backoff := settleBackoffMin
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return
		}

		log.Println("flip: settle retry:", "flip:", flipID, "step:", step, "attempt:", attempt, "err:", err)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > settleBackoffMax {
			backoff = settleBackoffMax
		}
	}
}
