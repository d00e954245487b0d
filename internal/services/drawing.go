package services

import (
	"context"
	"errors"
	"log"
	"time"

	"flipclub/internal/models"
	"flipclub/internal/pkg"

	"github.com/go-redsync/redsync/v4"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/mroth/weightedrand/v2"
	"github.com/samber/do"
)

// ServiceDrawing owns the monthly prize lifecycle and the weighted draw.
// The drawn transition is a single guarded update, so a draw happens at most
// once per month no matter how many triggers fire.
type ServiceDrawing struct {
	container *do.Injector
	rs        *redsync.Redsync

	prizeStore PrizeStore
	entryStore EntryStore
}

func NewServiceDrawing(container *do.Injector) (*ServiceDrawing, error) {
	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	prizeStore, err := do.Invoke[PrizeStore](container)
	if err != nil {
		return nil, err
	}

	entryStore, err := do.Invoke[EntryStore](container)
	if err != nil {
		return nil, err
	}

	return &ServiceDrawing{container, rs, prizeStore, entryStore}, nil
}

// NewServiceDrawingDirect wires the service without a container.
func NewServiceDrawingDirect(prizeStore PrizeStore, entryStore EntryStore) *ServiceDrawing {
	return &ServiceDrawing{nil, nil, prizeStore, entryStore}
}

// SetMonthlyPrize creates or updates prize metadata for a month. A drawn or
// cancelled prize can no longer be edited.
func (service *ServiceDrawing) SetMonthlyPrize(ctx context.Context, prize *models.MonthlyPrize) (*models.MonthlyPrize, error) {
	if !pkg.ValidMonthKey(prize.Month) {
		return nil, errorx.Wrap(errors.New("invalid month"), errorx.Validation)
	}
	if prize.Title == "" {
		return nil, errorx.Wrap(errors.New("title is required"), errorx.Validation)
	}
	if prize.DrawingDate.IsZero() {
		return nil, errorx.Wrap(errors.New("drawing date is required"), errorx.Validation)
	}

	ok, err := service.prizeStore.UpsertPrize(ctx, prize)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if !ok {
		return nil, errorx.Wrap(errors.New("prize is finalized"), errorx.Invalid)
	}

	return service.prizeStore.GetPrize(ctx, prize.Month)
}

func (service *ServiceDrawing) Activate(ctx context.Context, month string) error {
	ok, err := service.prizeStore.ActivatePrize(ctx, month)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	if !ok {
		return errorx.Wrap(errors.New("prize is not scheduled"), errorx.Invalid)
	}

	return nil
}

func (service *ServiceDrawing) Cancel(ctx context.Context, month string) error {
	ok, err := service.prizeStore.CancelPrize(ctx, month)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	if !ok {
		return errorx.Wrap(errors.New("prize cannot be cancelled"), errorx.Invalid)
	}

	return nil
}

func (service *ServiceDrawing) GetPrize(ctx context.Context, month string) (*models.MonthlyPrize, error) {
	if !pkg.ValidMonthKey(month) {
		return nil, errorx.Wrap(errors.New("invalid month"), errorx.Validation)
	}

	prize, err := service.prizeStore.GetPrize(ctx, month)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if prize == nil {
		return nil, errorx.Wrap(errors.New("no prize for month"), errorx.NotExist)
	}

	return prize, nil
}

// Draw selects the month's winner, weighted by entry count. It is idempotent:
// once a winner is recorded every later call returns the same result. The
// redsync lock only narrows the racing window; the guarded drawn transition is
// what guarantees a single winner.
func (service *ServiceDrawing) Draw(ctx context.Context, month string, now time.Time) (*models.DrawResult, error) {
	prize, err := service.GetPrize(ctx, month)
	if err != nil {
		return nil, err
	}

	if prize.Status == models.PrizeStatusDrawn {
		return recordedResult(prize)
	}
	if prize.Status != models.PrizeStatusActive {
		return nil, errorx.Wrap(ErrDrawNotReady, errorx.Invalid)
	}
	if now.Before(prize.DrawingDate) {
		return nil, errorx.Wrap(ErrDrawNotReady, errorx.Invalid)
	}

	if service.rs != nil {
		mutex := service.rs.NewMutex(LockKeyDraw(month))
		if err := mutex.TryLock(); err != nil {
			// the lock holder may have finished the draw already
			prize, gerr := service.GetPrize(ctx, month)
			if gerr == nil && prize.Status == models.PrizeStatusDrawn {
				return recordedResult(prize)
			}
			return nil, errorx.Wrap(ErrDrawNotReady, errorx.Invalid)
		}
		//nolint:errcheck
		defer mutex.Unlock()
	}

	entries, err := service.entryStore.EntriesByMonth(ctx, month)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if len(entries) == 0 {
		return nil, errorx.Wrap(ErrDrawNotReady, errorx.Invalid)
	}

	choices := make([]weightedrand.Choice[int64, int64], 0, len(entries))
	var total int64
	for _, e := range entries {
		choices = append(choices, weightedrand.NewChoice(e.UserID, e.EntryCount))
		total += e.EntryCount
	}

	gacha, err := NewServiceGacha(choices)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	winnerID := gacha.Pick()
	var winnerEntries int64
	for _, e := range entries {
		if e.UserID == winnerID {
			winnerEntries = e.EntryCount
			break
		}
	}

	drawnAt := now.UTC()
	ok, err := service.prizeStore.MarkDrawn(ctx, month, winnerID, winnerEntries, total, drawnAt)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if !ok {
		// lost the transition race, return whoever got recorded
		prize, err := service.GetPrize(ctx, month)
		if err != nil {
			return nil, err
		}
		return recordedResult(prize)
	}

	log.Println("draw:", "month:", month, "winner:", winnerID, "entries:", winnerEntries, "total:", total)

	return &models.DrawResult{
		Month:            month,
		WinnerUserID:     winnerID,
		WinnerEntryCount: winnerEntries,
		TotalEntries:     total,
		Odds:             float64(winnerEntries) / float64(total),
		DrawnAt:          drawnAt,
	}, nil
}

// recordedResult rebuilds the result from the drawn row alone. The totals were
// frozen at draw time, so entries accruing afterwards never move the odds.
func recordedResult(prize *models.MonthlyPrize) (*models.DrawResult, error) {
	if prize.WinnerUserID == nil || prize.WinnerEntryCount == nil || prize.TotalEntries == nil || prize.DrawnAt == nil {
		return nil, errorx.Wrap(ErrLedgerInconsistency, errorx.Other)
	}

	result := &models.DrawResult{
		Month:            prize.Month,
		WinnerUserID:     *prize.WinnerUserID,
		WinnerEntryCount: *prize.WinnerEntryCount,
		TotalEntries:     *prize.TotalEntries,
		DrawnAt:          *prize.DrawnAt,
	}
	if result.TotalEntries > 0 {
		result.Odds = float64(result.WinnerEntryCount) / float64(result.TotalEntries)
	}

	return result, nil
}
