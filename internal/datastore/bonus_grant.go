package datastore

import (
	"context"
	"database/sql"
	"time"

	"flipclub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableBonusGrant(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.BonusGrant)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.BonusGrant)(nil)).Index("index_bonus_grant_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertBonusGrant(ctx context.Context, db *bun.DB, grant *models.BonusGrant) error {
	_, err := db.NewInsert().Model(grant).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetBonusGrantsByUser(ctx context.Context, db *bun.DB, userID int64) ([]*models.BonusGrant, error) {
	var grants []*models.BonusGrant
	err := db.NewSelect().Model(&grants).Where("user_id = ?", userID).Order("granted_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	return grants, nil
}

func ActiveBonusUnits(ctx context.Context, db *bun.DB, userID int64, now time.Time) (int, error) {
	var total int
	err := db.NewSelect().
		ColumnExpr("COALESCE(SUM(units_remaining), 0)").
		Model((*models.BonusGrant)(nil)).
		Where("user_id = ?", userID).
		Where("units_remaining > 0").
		Where("expires_at IS NULL OR expires_at > ?", now).
		Scan(ctx, &total)
	if err != nil {
		return 0, err
	}

	return total, nil
}

// ConsumeBonusUnit decrements one unit from the soonest-expiring active grant.
// Returns nil when no active grant has units left. The guarded decrement keeps
// units_remaining from ever going below zero under concurrent callers.
func ConsumeBonusUnit(ctx context.Context, db *bun.DB, userID int64, now time.Time) (*models.BonusGrant, error) {
	var grant models.BonusGrant
	err := db.NewRaw(`
		UPDATE bonus_grant
		SET units_remaining = units_remaining - 1
		WHERE id = (
			SELECT id FROM bonus_grant
			WHERE user_id = ? AND units_remaining > 0
				AND (expires_at IS NULL OR expires_at > ?)
			ORDER BY expires_at ASC NULLS LAST, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND units_remaining > 0
		RETURNING *`,
		userID, now).Scan(ctx, &grant)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &grant, nil
}
