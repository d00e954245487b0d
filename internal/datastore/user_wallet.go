package datastore

import (
	"context"
	"time"

	"flipclub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUserWallet(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.UserWallet)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserWallet)(nil)).Index("index_user_wallet_ton").Unique().IfNotExists().Column("ton_wallet").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindUserWalletByUserID(ctx context.Context, db *bun.DB, userID int64) (*models.UserWallet, error) {
	var userWallet models.UserWallet
	err := db.NewSelect().Model(&userWallet).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &userWallet, nil
}

func FindUserWalletByTONWallet(ctx context.Context, db *bun.DB, tonWallet string) (*models.UserWallet, error) {
	var userWallet models.UserWallet
	err := db.NewSelect().Model(&userWallet).Where("ton_wallet = ?", tonWallet).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &userWallet, nil
}

func UpsertUserWallet(ctx context.Context, db *bun.DB, userWallet *models.UserWallet) (*models.UserWallet, error) {
	userWallet.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().Model(userWallet).
		On("CONFLICT (user_id) DO UPDATE").
		Set("ton_wallet = EXCLUDED.ton_wallet").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return userWallet, nil
}
