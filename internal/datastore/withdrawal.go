package datastore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"flipclub/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

func CreateTableWithdrawal(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.WithdrawalRequest)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.WithdrawalRequest)(nil)).Index("index_withdrawal_request_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	// One non-terminal request per user, enforced by the database rather than
	// by a read-then-write.
	_, err = db.NewRaw(`
		CREATE UNIQUE INDEX IF NOT EXISTS index_withdrawal_request_outstanding
		ON withdrawal_request (user_id)
		WHERE status IN ('requested', 'approved')`).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}

	return false
}

func InsertWithdrawalRequest(ctx context.Context, db *bun.DB, request *models.WithdrawalRequest) error {
	_, err := db.NewInsert().Model(request).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetWithdrawalByID(ctx context.Context, db *bun.DB, id string) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	err := db.NewSelect().Model(&request).Where("id = ?", id).Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &request, nil
}

func OutstandingWithdrawal(ctx context.Context, db *bun.DB, userID int64) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	err := db.NewSelect().Model(&request).
		Where("user_id = ? AND status IN (?, ?)", userID, string(models.WithdrawalStatusRequested), string(models.WithdrawalStatusApproved)).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &request, nil
}

func ListWithdrawalsByUser(ctx context.Context, db *bun.DB, userID int64) ([]*models.WithdrawalRequest, error) {
	var requests []*models.WithdrawalRequest
	err := db.NewSelect().Model(&requests).Where("user_id = ?", userID).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func transitionWithdrawalStatus(ctx context.Context, idb bun.IDB, id string, from, to models.WithdrawalStatus) (bool, error) {
	res, err := idb.NewUpdate().Model((*models.WithdrawalRequest)(nil)).
		Set("status = ?", string(to)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ? AND status = ?", id, string(from)).
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

func MarkWithdrawalApproved(ctx context.Context, db *bun.DB, id string) (bool, error) {
	return transitionWithdrawalStatus(ctx, db, id, models.WithdrawalStatusRequested, models.WithdrawalStatusApproved)
}

func MarkWithdrawalRejected(ctx context.Context, db *bun.DB, id string, settledBy string) (bool, error) {
	now := time.Now().UTC()
	res, err := db.NewUpdate().Model((*models.WithdrawalRequest)(nil)).
		Set("status = ?", string(models.WithdrawalStatusRejected)).
		Set("settled_by = ?", settledBy).
		Set("settled_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ? AND status IN (?, ?)", id, string(models.WithdrawalStatusRequested), string(models.WithdrawalStatusApproved)).
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

// MarkWithdrawalPaid settles an approved request: it stamps the treasury
// transaction reference and moves the amount into total_withdrawn in the same
// transaction. The guarded update makes a second settle attempt a no-op.
func MarkWithdrawalPaid(ctx context.Context, db *bun.DB, id string, txRef string, settledBy string) (bool, error) {
	settled := false
	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var request models.WithdrawalRequest
		err := tx.NewSelect().Model(&request).Where("id = ?", id).For("UPDATE").Scan(ctx)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		res, err := tx.NewUpdate().Model((*models.WithdrawalRequest)(nil)).
			Set("status = ?", string(models.WithdrawalStatusPaid)).
			Set("tx_ref = ?", txRef).
			Set("settled_by = ?", settledBy).
			Set("settled_at = ?", now).
			Set("updated_at = ?", now).
			Where("id = ? AND status = ?", id, string(models.WithdrawalStatusApproved)).
			Exec(ctx)
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

		_, err = tx.NewUpdate().Model((*models.Balance)(nil)).
			Set("total_withdrawn = total_withdrawn + ?", request.Amount).
			Set("updated_at = ?", now).
			Where("user_id = ?", request.UserID).
			Exec(ctx)
		if err != nil {
			return err
		}

		settled = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return settled, nil
}
