package datastore

import (
	"context"
	"database/sql"
	"time"

	"flipclub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableMonthlyPrize(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.MonthlyPrize)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.MonthlyPrize)(nil)).Index("index_monthly_prize_month").IfNotExists().Unique().Column("month").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetMonthlyPrize(ctx context.Context, db *bun.DB, month string) (*models.MonthlyPrize, error) {
	var prize models.MonthlyPrize
	err := db.NewSelect().Model(&prize).Where("month = ?", month).Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &prize, nil
}

// UpsertMonthlyPrize creates or updates the month's prize metadata. Drawn and
// cancelled rows are immutable; the guarded update leaves them untouched.
func UpsertMonthlyPrize(ctx context.Context, db *bun.DB, prize *models.MonthlyPrize) (bool, error) {
	res, err := db.NewRaw(`
		INSERT INTO monthly_prize (month, title, description, image_url, drawing_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (month) DO UPDATE
		SET title = EXCLUDED.title,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			drawing_date = EXCLUDED.drawing_date,
			updated_at = EXCLUDED.updated_at
		WHERE monthly_prize.status IN (?, ?)`,
		prize.Month, prize.Title, prize.Description, prize.ImageURL, prize.DrawingDate,
		string(models.PrizeStatusScheduled), time.Now().UTC(), time.Now().UTC(),
		string(models.PrizeStatusScheduled), string(models.PrizeStatusActive)).Exec(ctx)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func transitionPrizeStatus(ctx context.Context, db *bun.DB, month string, from, to models.PrizeStatus) (bool, error) {
	res, err := db.NewUpdate().Model((*models.MonthlyPrize)(nil)).
		Set("status = ?", string(to)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("month = ? AND status = ?", month, string(from)).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func ActivateMonthlyPrize(ctx context.Context, db *bun.DB, month string) (bool, error) {
	return transitionPrizeStatus(ctx, db, month, models.PrizeStatusScheduled, models.PrizeStatusActive)
}

func CancelMonthlyPrize(ctx context.Context, db *bun.DB, month string) (bool, error) {
	ok, err := transitionPrizeStatus(ctx, db, month, models.PrizeStatusScheduled, models.PrizeStatusCancelled)
	if err != nil || ok {
		return ok, err
	}

	return transitionPrizeStatus(ctx, db, month, models.PrizeStatusActive, models.PrizeStatusCancelled)
}

// MarkPrizeDrawn flips active -> drawn and records the winner in one guarded
// update. Exactly one caller ever sees a row affected; everyone else reads the
// recorded result. Total entries are frozen on the row so the reported odds
// never drift as later flips land in the projection.
func MarkPrizeDrawn(ctx context.Context, db *bun.DB, month string, winnerUserID, winnerEntryCount, totalEntries int64, drawnAt time.Time) (bool, error) {
	res, err := db.NewUpdate().Model((*models.MonthlyPrize)(nil)).
		Set("status = ?", string(models.PrizeStatusDrawn)).
		Set("winner_user_id = ?", winnerUserID).
		Set("winner_entry_count = ?", winnerEntryCount).
		Set("total_entries = ?", totalEntries).
		Set("drawn_at = ?", drawnAt).
		Set("updated_at = ?", drawnAt).
		Where("month = ? AND status = ?", month, string(models.PrizeStatusActive)).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
