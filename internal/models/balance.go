package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Balance accumulates a user's won-but-unpaid reward amount. TotalWithdrawn
// only moves when a withdrawal request reaches paid.
type Balance struct {
	bun.BaseModel  `bun:"table:balance"`
	UserID         int64     `bun:"user_id,pk" json:"user_id"`
	TotalWon       int64     `bun:"total_won" json:"total_won"`
	TotalWithdrawn int64     `bun:"total_withdrawn" json:"total_withdrawn"`
	UpdatedAt      time.Time `bun:"updated_at" json:"updated_at"`
}

func (b *Balance) Pending() int64 {
	return b.TotalWon - b.TotalWithdrawn
}

// BalanceCredit is the idempotency record for a payout credit; the unique
// flip_id column makes re-delivery of the same payout a no-op.
type BalanceCredit struct {
	bun.BaseModel `bun:"table:balance_credit"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	FlipID        string    `bun:"flip_id" json:"flip_id"`
	Amount        int64     `bun:"amount" json:"amount"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

type BalanceView struct {
	TotalWon       int64 `json:"total_won"`
	TotalWithdrawn int64 `json:"total_withdrawn"`
	PendingBalance int64 `json:"pending_balance"`
	MinWithdrawal  int64 `json:"min_withdrawal"`
	CanWithdraw    bool  `json:"can_withdraw"`
}
