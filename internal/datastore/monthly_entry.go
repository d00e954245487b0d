package datastore

import (
	"context"
	"database/sql"
	"time"

	"flipclub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableMonthlyEntry(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.MonthlyEntry)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.MonthlyEntry)(nil)).Index("index_monthly_entry_user_id_month").IfNotExists().Unique().Column("user_id", "month").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.MonthlyEntry)(nil)).Index("index_monthly_entry_month").IfNotExists().Column("month").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func IncrementMonthlyEntry(ctx context.Context, db *bun.DB, userID int64, month string) error {
	_, err := db.NewRaw(`
		INSERT INTO monthly_entry (user_id, month, entry_count, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (user_id, month) DO UPDATE
		SET entry_count = monthly_entry.entry_count + 1, updated_at = EXCLUDED.updated_at`,
		userID, month, time.Now().UTC()).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetEntryCount(ctx context.Context, db *bun.DB, userID int64, month string) (int64, error) {
	var entry models.MonthlyEntry
	err := db.NewSelect().Model(&entry).Where("user_id = ? AND month = ?", userID, month).Scan(ctx)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return entry.EntryCount, nil
}

func TotalEntries(ctx context.Context, db *bun.DB, month string) (int64, error) {
	var total int64
	err := db.NewSelect().
		ColumnExpr("COALESCE(SUM(entry_count), 0)").
		Model((*models.MonthlyEntry)(nil)).
		Where("month = ?", month).
		Scan(ctx, &total)
	if err != nil {
		return 0, err
	}

	return total, nil
}

func TotalParticipants(ctx context.Context, db *bun.DB, month string) (int64, error) {
	count, err := db.NewSelect().Model((*models.MonthlyEntry)(nil)).Where("month = ? AND entry_count > 0", month).Count(ctx)
	if err != nil {
		return 0, err
	}

	return int64(count), nil
}

func EntriesByMonth(ctx context.Context, db *bun.DB, month string) ([]models.UserEntries, error) {
	var entries []models.UserEntries
	err := db.NewSelect().
		ColumnExpr("user_id").
		ColumnExpr("entry_count").
		Model((*models.MonthlyEntry)(nil)).
		Where("month = ? AND entry_count > 0", month).
		OrderExpr("user_id ASC").
		Scan(ctx, &entries)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
