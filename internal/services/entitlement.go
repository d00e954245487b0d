package services

import (
	"context"
	"errors"
	"time"

	"flipclub/internal/interfaces"
	"flipclub/internal/models"
	"flipclub/internal/pkg"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

// ServiceEntitlement answers "can this user flip right now" and performs the
// one-unit consumption. Bonus units are consumed before tier units because
// grants can expire while tier allowance refills every UTC day.
type ServiceEntitlement struct {
	container    *do.Injector
	store        EntitlementStore
	tierResolver interfaces.TierResolver
}

func NewServiceEntitlement(container *do.Injector) (*ServiceEntitlement, error) {
	store, err := do.Invoke[EntitlementStore](container)
	if err != nil {
		return nil, err
	}

	tierResolver, err := do.Invoke[interfaces.TierResolver](container)
	if err != nil {
		return nil, err
	}

	return &ServiceEntitlement{container, store, tierResolver}, nil
}

// NewServiceEntitlementDirect wires the service without a container.
func NewServiceEntitlementDirect(store EntitlementStore, tierResolver interfaces.TierResolver) *ServiceEntitlement {
	return &ServiceEntitlement{nil, store, tierResolver}
}

// Status reports the user's remaining units for the day. There is no reset
// job: a new UTC day simply reads an empty counter row.
func (service *ServiceEntitlement) Status(ctx context.Context, userID int64, now time.Time) (*models.FlipStatus, error) {
	tier, err := service.tierResolver.Tier(ctx, userID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	day := pkg.DayKey(now)
	consumed, err := service.store.DailyConsumption(ctx, userID, day)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	tierRemaining := tier.DailyFlips() - consumed
	if tierRemaining < 0 {
		tierRemaining = 0
	}

	bonusRemaining, err := service.store.ActiveBonusUnits(ctx, userID, now)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return &models.FlipStatus{
		CanFlip:             tierRemaining > 0 || bonusRemaining > 0,
		Tier:                tier.String(),
		TierUnitsRemaining:  tierRemaining,
		BonusUnitsRemaining: bonusRemaining,
		ResetAt:             pkg.NextUTCMidnight(now),
	}, nil
}

// ConsumeOne takes exactly one unit, bonus pool first. It returns whether a
// bonus unit was used and, if so, which grant it came from. Both consumption
// paths are single conditional statements, so concurrent callers racing for
// the last unit resolve to exactly one winner without any lock here.
func (service *ServiceEntitlement) ConsumeOne(ctx context.Context, userID int64, now time.Time) (bool, *int64, error) {
	grant, err := service.store.ConsumeBonusUnit(ctx, userID, now)
	if err != nil {
		return false, nil, errorx.Wrap(err, errorx.Service)
	}
	if grant != nil {
		return true, &grant.ID, nil
	}

	tier, err := service.tierResolver.Tier(ctx, userID)
	if err != nil {
		return false, nil, errorx.Wrap(err, errorx.Service)
	}

	ok, err := service.store.ConsumeDailyUnit(ctx, userID, pkg.DayKey(now), tier.DailyFlips())
	if err != nil {
		return false, nil, errorx.Wrap(err, errorx.Service)
	}
	if !ok {
		return false, nil, errorx.Wrap(ErrNoEntitlement, errorx.Invalid)
	}

	return false, nil, nil
}

// Grant issues bonus units to a user. Admin-only.
func (service *ServiceEntitlement) Grant(ctx context.Context, userID int64, units int, reason, grantedBy string, expiresAt *time.Time, now time.Time) (*models.BonusGrant, error) {
	if units <= 0 {
		return nil, errorx.Wrap(errors.New("units must be positive"), errorx.Validation)
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, errorx.Wrap(errors.New("expiry must be in the future"), errorx.Validation)
	}

	grant := &models.BonusGrant{
		UserID:         userID,
		UnitsAwarded:   units,
		UnitsRemaining: units,
		Reason:         reason,
		GrantedBy:      grantedBy,
		GrantedAt:      now.UTC(),
		ExpiresAt:      expiresAt,
	}
	err := service.store.InsertBonusGrant(ctx, grant)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return grant, nil
}

func (service *ServiceEntitlement) GrantsByUser(ctx context.Context, userID int64) ([]*models.BonusGrant, error) {
	grants, err := service.store.BonusGrantsByUser(ctx, userID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return grants, nil
}
