package services

import (
	"context"
	"testing"
	"time"

	"flipclub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthStatsComputedFromProjection(t *testing.T) {
	ctx := context.Background()
	entryStore := newMemEntryStore()
	service := NewServiceEntryDirect(entryStore, newMemFlipStore())

	entryStore.setEntry(1, "2026-08", 4)
	entryStore.setEntry(2, "2026-08", 2)
	entryStore.setEntry(3, "2026-07", 9)

	stats, err := service.MonthStats(ctx, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.TotalEntries)
	assert.Equal(t, int64(2), stats.TotalParticipants)
}

func TestAuditCleanLedger(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	f := newFlipFixture(nil)
	service := NewServiceEntryDirect(f.entryStore, f.flipStore)

	_, err := f.entitlement.Grant(ctx, 1, 5, "test", "admin", nil, now)
	require.NoError(t, err)
	_, err = f.entitlement.Grant(ctx, 2, 3, "test", "admin", nil, now)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = f.service.Resolve(ctx, 1, models.FlipSideHeads, now)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err = f.service.Resolve(ctx, 2, models.FlipSideTails, now)
		require.NoError(t, err)
	}

	result, err := service.Audit(ctx, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Users)
	assert.Empty(t, result.Mismatches)
}

func TestAuditDetectsDrift(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	f := newFlipFixture(nil)
	service := NewServiceEntryDirect(f.entryStore, f.flipStore)

	_, err := f.entitlement.Grant(ctx, 1, 4, "test", "admin", nil, now)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = f.service.Resolve(ctx, 1, models.FlipSideHeads, now)
		require.NoError(t, err)
	}

	// the projection drifts ahead of the log
	f.entryStore.setEntry(1, "2026-08", 6)
	// and a user appears in the projection with no flips at all
	f.entryStore.setEntry(2, "2026-08", 1)

	result, err := service.Audit(ctx, "2026-08")
	require.ErrorIs(t, err, ErrLedgerInconsistency)
	require.Len(t, result.Mismatches, 2)

	byUser := map[int64]AuditMismatch{}
	for _, m := range result.Mismatches {
		byUser[m.UserID] = m
	}
	assert.Equal(t, int64(4), byUser[1].Recounted)
	assert.Equal(t, int64(6), byUser[1].Projected)
	assert.Equal(t, int64(0), byUser[2].Recounted)
	assert.Equal(t, int64(1), byUser[2].Projected)
}

func TestEntriesFor(t *testing.T) {
	ctx := context.Background()
	entryStore := newMemEntryStore()
	service := NewServiceEntryDirect(entryStore, newMemFlipStore())

	entryStore.setEntry(7, "2026-08", 11)

	count, err := service.EntriesFor(ctx, 7, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, int64(11), count)

	count, err = service.EntriesFor(ctx, 7, "2026-07")
	require.NoError(t, err)
	assert.Zero(t, count)
}
