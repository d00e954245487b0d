package models

import (
	"time"

	"github.com/uptrace/bun"
)

type WithdrawalStatus string

const (
	WithdrawalStatusRequested WithdrawalStatus = "requested"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusPaid      WithdrawalStatus = "paid"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// Terminal reports whether the status can never change again.
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalStatusPaid || s == WithdrawalStatusRejected
}

// WithdrawalRequest moves requested -> approved -> paid, or
// requested -> rejected. Fund movement is done by the external treasury; this
// row only records the transaction reference once paid.
type WithdrawalRequest struct {
	bun.BaseModel `bun:"table:withdrawal_request"`
	ID            string           `bun:"id,pk" json:"id"`
	UserID        int64            `bun:"user_id" json:"user_id"`
	Amount        int64            `bun:"amount" json:"amount"`
	Status        WithdrawalStatus `bun:"status" json:"status"`
	TxRef         *string          `bun:"tx_ref" json:"tx_ref,omitempty"`
	SettledBy     *string          `bun:"settled_by" json:"settled_by,omitempty"`
	CreatedAt     time.Time        `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time        `bun:"updated_at" json:"updated_at"`
	SettledAt     *time.Time       `bun:"settled_at" json:"settled_at,omitempty"`
}
