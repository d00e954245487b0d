package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"flipclub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDrawingFixture() (*ServiceDrawing, *memPrizeStore, *memEntryStore) {
	prizeStore := newMemPrizeStore()
	entryStore := newMemEntryStore()
	return NewServiceDrawingDirect(prizeStore, entryStore), prizeStore, entryStore
}

func activePrize(t *testing.T, service *ServiceDrawing, month string, drawingDate time.Time) {
	t.Helper()
	_, err := service.SetMonthlyPrize(context.Background(), &models.MonthlyPrize{
		Month:       month,
		Title:       "1 TON",
		DrawingDate: drawingDate,
	})
	require.NoError(t, err)
	require.NoError(t, service.Activate(context.Background(), month))
}

func TestSetMonthlyPrizeValidation(t *testing.T) {
	service, _, _ := newDrawingFixture()
	ctx := context.Background()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	_, err := service.SetMonthlyPrize(ctx, &models.MonthlyPrize{Month: "2026/08", Title: "x", DrawingDate: date})
	assert.Error(t, err)

	_, err = service.SetMonthlyPrize(ctx, &models.MonthlyPrize{Month: "2026-08", DrawingDate: date})
	assert.Error(t, err)

	_, err = service.SetMonthlyPrize(ctx, &models.MonthlyPrize{Month: "2026-08", Title: "x"})
	assert.Error(t, err)

	prize, err := service.SetMonthlyPrize(ctx, &models.MonthlyPrize{Month: "2026-08", Title: "x", DrawingDate: date})
	require.NoError(t, err)
	assert.Equal(t, models.PrizeStatusScheduled, prize.Status)
}

func TestDrawNotReady(t *testing.T) {
	service, _, entryStore := newDrawingFixture()
	ctx := context.Background()
	drawingDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	// no prize at all
	_, err := service.Draw(ctx, "2026-08", drawingDate)
	assert.Error(t, err)

	_, err = service.SetMonthlyPrize(ctx, &models.MonthlyPrize{Month: "2026-08", Title: "1 TON", DrawingDate: drawingDate})
	require.NoError(t, err)

	// still scheduled
	_, err = service.Draw(ctx, "2026-08", drawingDate)
	require.ErrorIs(t, err, ErrDrawNotReady)

	require.NoError(t, service.Activate(ctx, "2026-08"))

	// before the drawing date
	_, err = service.Draw(ctx, "2026-08", drawingDate.Add(-time.Minute))
	require.ErrorIs(t, err, ErrDrawNotReady)

	// due but nobody entered
	_, err = service.Draw(ctx, "2026-08", drawingDate)
	require.ErrorIs(t, err, ErrDrawNotReady)

	entryStore.setEntry(7, "2026-08", 3)
	result, err := service.Draw(ctx, "2026-08", drawingDate)
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.WinnerUserID)
	assert.Equal(t, int64(3), result.WinnerEntryCount)
	assert.Equal(t, int64(3), result.TotalEntries)
	assert.Equal(t, 1.0, result.Odds)
}

func TestDrawIsIdempotent(t *testing.T) {
	service, _, entryStore := newDrawingFixture()
	ctx := context.Background()
	drawingDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	activePrize(t, service, "2026-08", drawingDate)

	entryStore.setEntry(1, "2026-08", 5)
	entryStore.setEntry(2, "2026-08", 7)

	first, err := service.Draw(ctx, "2026-08", drawingDate)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := service.Draw(ctx, "2026-08", drawingDate.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, first.WinnerUserID, again.WinnerUserID)
		assert.Equal(t, first.WinnerEntryCount, again.WinnerEntryCount)
		assert.Equal(t, first.DrawnAt, again.DrawnAt)
	}
}

func TestDrawOddsFrozenAtDrawTime(t *testing.T) {
	service, _, entryStore := newDrawingFixture()
	ctx := context.Background()
	drawingDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	activePrize(t, service, "2026-08", drawingDate)

	entryStore.setEntry(1, "2026-08", 3)
	entryStore.setEntry(2, "2026-08", 1)

	first, err := service.Draw(ctx, "2026-08", drawingDate)
	require.NoError(t, err)
	assert.Equal(t, int64(4), first.TotalEntries)

	// late flips land in the projection after the draw
	entryStore.setEntry(3, "2026-08", 50)

	again, err := service.Draw(ctx, "2026-08", drawingDate.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.TotalEntries, again.TotalEntries)
	assert.Equal(t, first.Odds, again.Odds)
	assert.Equal(t, first.WinnerUserID, again.WinnerUserID)
}

func TestConcurrentDrawsAgreeOnOneWinner(t *testing.T) {
	service, _, entryStore := newDrawingFixture()
	ctx := context.Background()
	drawingDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	activePrize(t, service, "2026-08", drawingDate)

	for userID := int64(1); userID <= 20; userID++ {
		entryStore.setEntry(userID, "2026-08", userID)
	}

	const workers = 12
	results := make([]*models.DrawResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := service.Draw(ctx, "2026-08", drawingDate)
			if err == nil {
				results[i] = result
			}
		}(i)
	}
	wg.Wait()

	var winner int64
	for _, r := range results {
		require.NotNil(t, r)
		if winner == 0 {
			winner = r.WinnerUserID
		}
		assert.Equal(t, winner, r.WinnerUserID)
	}
}

func TestDrawnPrizeIsImmutable(t *testing.T) {
	service, _, entryStore := newDrawingFixture()
	ctx := context.Background()
	drawingDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	activePrize(t, service, "2026-08", drawingDate)
	entryStore.setEntry(7, "2026-08", 1)

	_, err := service.Draw(ctx, "2026-08", drawingDate)
	require.NoError(t, err)

	_, err = service.SetMonthlyPrize(ctx, &models.MonthlyPrize{Month: "2026-08", Title: "changed", DrawingDate: drawingDate})
	assert.Error(t, err)

	err = service.Cancel(ctx, "2026-08")
	assert.Error(t, err)
}

func TestCancelledPrizeNeverDraws(t *testing.T) {
	service, _, entryStore := newDrawingFixture()
	ctx := context.Background()
	drawingDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	activePrize(t, service, "2026-08", drawingDate)
	entryStore.setEntry(7, "2026-08", 1)

	require.NoError(t, service.Cancel(ctx, "2026-08"))

	_, err := service.Draw(ctx, "2026-08", drawingDate)
	require.ErrorIs(t, err, ErrDrawNotReady)
}

func TestDrawWeightedByEntries(t *testing.T) {
	ctx := context.Background()
	drawingDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	const draws = 3000
	wins := map[int64]int{}
	for i := 0; i < draws; i++ {
		service, _, entryStore := newDrawingFixture()
		activePrize(t, service, "2026-08", drawingDate)
		entryStore.setEntry(1, "2026-08", 10)
		entryStore.setEntry(2, "2026-08", 1)

		result, err := service.Draw(ctx, "2026-08", drawingDate)
		require.NoError(t, err)
		wins[result.WinnerUserID]++
	}

	ratio := float64(wins[1]) / float64(draws)
	// expected 10/11 ~ 0.909
	assert.InDelta(t, 10.0/11.0, ratio, 0.04)
	assert.Positive(t, wins[2])
}
