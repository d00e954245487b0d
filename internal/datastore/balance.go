package datastore

import (
	"context"
	"database/sql"
	"time"

	"flipclub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableBalance(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Balance)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateTable().Model((*models.BalanceCredit)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.BalanceCredit)(nil)).Index("index_balance_credit_flip_id").IfNotExists().Unique().Column("flip_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.BalanceCredit)(nil)).Index("index_balance_credit_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetBalance(ctx context.Context, db *bun.DB, userID int64) (*models.Balance, error) {
	var balance models.Balance
	err := db.NewSelect().Model(&balance).Where("user_id = ?", userID).Scan(ctx)
	if err == sql.ErrNoRows {
		return &models.Balance{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}

	return &balance, nil
}

// CreditBalance credits a payout exactly once per flip. The balance_credit row
// keyed by flip id is the idempotency guard; redelivery returns false without
// touching totals.
func CreditBalance(ctx context.Context, db *bun.DB, userID int64, flipID string, amount int64) (bool, error) {
	applied := false
	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		credit := &models.BalanceCredit{
			UserID:    userID,
			FlipID:    flipID,
			Amount:    amount,
			CreatedAt: time.Now().UTC(),
		}
		res, err := tx.NewInsert().Model(credit).On("CONFLICT (flip_id) DO NOTHING").Exec(ctx)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		_, err = tx.NewRaw(`
			INSERT INTO balance (user_id, total_won, total_withdrawn, updated_at)
			VALUES (?, ?, 0, ?)
			ON CONFLICT (user_id) DO UPDATE
			SET total_won = balance.total_won + EXCLUDED.total_won, updated_at = EXCLUDED.updated_at`,
			userID, amount, time.Now().UTC()).Exec(ctx)
		if err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}
