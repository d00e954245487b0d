package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"flipclub/internal/models"
	"flipclub/internal/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntitlementFixture(tiers map[int64]models.Tier) (*ServiceEntitlement, *memEntitlementStore) {
	store := newMemEntitlementStore()
	service := NewServiceEntitlementDirect(store, &stubTierResolver{tiers: tiers})
	return service, store
}

func TestConsumeOneBonusFirst(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	service, _ := newEntitlementFixture(map[int64]models.Tier{7: models.TierBase})

	_, err := service.Grant(ctx, 7, 1, "promo", "admin", nil, now)
	require.NoError(t, err)

	bonusUsed, grantID, err := service.ConsumeOne(ctx, 7, now)
	require.NoError(t, err)
	assert.True(t, bonusUsed)
	require.NotNil(t, grantID)

	// bonus pool exhausted, falls through to the tier unit
	bonusUsed, grantID, err = service.ConsumeOne(ctx, 7, now)
	require.NoError(t, err)
	assert.False(t, bonusUsed)
	assert.Nil(t, grantID)

	_, _, err = service.ConsumeOne(ctx, 7, now)
	require.ErrorIs(t, err, ErrNoEntitlement)
}

func TestConsumeOneEarliestExpiringGrantFirst(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	service, _ := newEntitlementFixture(nil)

	late := now.Add(48 * time.Hour)
	soon := now.Add(1 * time.Hour)

	gLate, err := service.Grant(ctx, 7, 1, "late", "admin", &late, now)
	require.NoError(t, err)
	gSoon, err := service.Grant(ctx, 7, 1, "soon", "admin", &soon, now)
	require.NoError(t, err)

	_, grantID, err := service.ConsumeOne(ctx, 7, now)
	require.NoError(t, err)
	require.NotNil(t, grantID)
	assert.Equal(t, gSoon.ID, *grantID)

	_, grantID, err = service.ConsumeOne(ctx, 7, now)
	require.NoError(t, err)
	require.NotNil(t, grantID)
	assert.Equal(t, gLate.ID, *grantID)
}

func TestExpiredGrantIsInert(t *testing.T) {
	ctx := context.Background()
	service, _ := newEntitlementFixture(map[int64]models.Tier{7: models.TierBase})

	expiry := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	_, err := service.Grant(ctx, 7, 3, "promo", "admin", &expiry, expiry.Add(-time.Hour))
	require.NoError(t, err)

	after := expiry.Add(time.Minute)

	status, err := service.Status(ctx, 7, after)
	require.NoError(t, err)
	assert.Equal(t, 0, status.BonusUnitsRemaining)
	assert.Equal(t, 1, status.TierUnitsRemaining)

	bonusUsed, _, err := service.ConsumeOne(ctx, 7, after)
	require.NoError(t, err)
	assert.False(t, bonusUsed)

	_, _, err = service.ConsumeOne(ctx, 7, after)
	require.ErrorIs(t, err, ErrNoEntitlement)
}

func TestConsumeOneNoDoubleSpend(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	service, _ := newEntitlementFixture(map[int64]models.Tier{7: models.TierBronze})

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := service.ConsumeOne(ctx, 7, now)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, models.TierBronze.DailyFlips(), successes)
}

func TestAllowanceResetsNextUTCDay(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2026, 8, 15, 23, 50, 0, 0, time.UTC)
	service, _ := newEntitlementFixture(map[int64]models.Tier{7: models.TierBase})

	_, _, err := service.ConsumeOne(ctx, 7, day1)
	require.NoError(t, err)
	_, _, err = service.ConsumeOne(ctx, 7, day1)
	require.ErrorIs(t, err, ErrNoEntitlement)

	// no reset job, the next day simply reads a fresh counter
	day2 := day1.Add(time.Hour)
	require.Equal(t, "2026-08-16", pkg.DayKey(day2))

	_, _, err = service.ConsumeOne(ctx, 7, day2)
	require.NoError(t, err)
}

func TestStatusReflectsTierAndConsumption(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	service, _ := newEntitlementFixture(map[int64]models.Tier{7: models.TierSilver})

	status, err := service.Status(ctx, 7, now)
	require.NoError(t, err)
	assert.True(t, status.CanFlip)
	assert.Equal(t, "silver", status.Tier)
	assert.Equal(t, 3, status.TierUnitsRemaining)
	assert.Equal(t, time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC), status.ResetAt)

	for i := 0; i < 3; i++ {
		_, _, err = service.ConsumeOne(ctx, 7, now)
		require.NoError(t, err)
	}

	status, err = service.Status(ctx, 7, now)
	require.NoError(t, err)
	assert.False(t, status.CanFlip)
	assert.Equal(t, 0, status.TierUnitsRemaining)
}

func TestGrantValidation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	service, _ := newEntitlementFixture(nil)

	_, err := service.Grant(ctx, 7, 0, "promo", "admin", nil, now)
	assert.Error(t, err)

	// the expiry guard uses the caller's clock, not the wall clock
	past := now.Add(-time.Hour)
	_, err = service.Grant(ctx, 7, 1, "promo", "admin", &past, now)
	assert.Error(t, err)

	atNow := now
	_, err = service.Grant(ctx, 7, 1, "promo", "admin", &atNow, now)
	assert.Error(t, err)

	future := now.Add(time.Hour)
	grant, err := service.Grant(ctx, 7, 1, "promo", "admin", &future, now)
	require.NoError(t, err)
	assert.Equal(t, now, grant.GrantedAt)
}
