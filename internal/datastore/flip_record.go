package datastore

import (
	"context"

	"flipclub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableFlipRecord(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.FlipRecord)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.FlipRecord)(nil)).Index("index_flip_record_user_id_month").IfNotExists().Column("user_id", "month").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.FlipRecord)(nil)).Index("index_flip_record_month").IfNotExists().Column("month").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertFlipRecord is idempotent on the record id so the resolver can retry
// persistence without duplicating a flip.
func InsertFlipRecord(ctx context.Context, db *bun.DB, record *models.FlipRecord) error {
	_, err := db.NewInsert().Model(record).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CountFlipsByUserMonth(ctx context.Context, db *bun.DB, userID int64, month string) (int64, error) {
	count, err := db.NewSelect().Model((*models.FlipRecord)(nil)).Where("user_id = ? AND month = ?", userID, month).Count(ctx)
	if err != nil {
		return 0, err
	}

	return int64(count), nil
}

// RecountEntriesByMonth re-aggregates the canonical flip log; the monthly
// entry projection must always match this.
func RecountEntriesByMonth(ctx context.Context, db *bun.DB, month string) ([]models.UserEntries, error) {
	var entries []models.UserEntries
	err := db.NewSelect().
		ColumnExpr("user_id").
		ColumnExpr("COUNT(*) AS entry_count").
		Model((*models.FlipRecord)(nil)).
		Where("month = ?", month).
		GroupExpr("user_id").
		OrderExpr("user_id ASC").
		Scan(ctx, &entries)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
