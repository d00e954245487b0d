package datastore

import (
	"context"
	"database/sql"
	"time"

	"flipclub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableDailyEntitlement(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.DailyEntitlement)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.DailyEntitlement)(nil)).Index("index_daily_entitlement_user_id_day").IfNotExists().Unique().Column("user_id", "day").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetDailyConsumption(ctx context.Context, db *bun.DB, userID int64, day string) (int, error) {
	var ent models.DailyEntitlement
	err := db.NewSelect().Model(&ent).Where("user_id = ? AND day = ?", userID, day).Scan(ctx)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return ent.UnitsConsumed, nil
}

// ConsumeDailyUnit increments the day's counter only while it is below cap.
// The conditional upsert is the per-user serialization point: with one unit
// left, concurrent callers get exactly one row affected between them.
func ConsumeDailyUnit(ctx context.Context, db *bun.DB, userID int64, day string, cap int) (bool, error) {
	if cap <= 0 {
		return false, nil
	}

	res, err := db.NewRaw(`
		INSERT INTO daily_entitlement (user_id, day, units_consumed, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (user_id, day) DO UPDATE
		SET units_consumed = daily_entitlement.units_consumed + 1, updated_at = EXCLUDED.updated_at
		WHERE daily_entitlement.units_consumed < ?`,
		userID, day, time.Now().UTC(), cap).Exec(ctx)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
