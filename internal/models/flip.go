package models

import (
	"time"

	"github.com/uptrace/bun"
)

type FlipSide string

const (
	FlipSideHeads FlipSide = "heads"
	FlipSideTails FlipSide = "tails"
)

func (s FlipSide) Valid() bool {
	return s == FlipSideHeads || s == FlipSideTails
}

// FlipRecord is one resolved flip. Rows are append-only and are the canonical
// source for the monthly entry projection.
type FlipRecord struct {
	bun.BaseModel `bun:"table:flip_record"`
	ID            string    `bun:"id,pk" json:"id"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	Month         string    `bun:"month" json:"month"`
	ChosenSide    FlipSide  `bun:"chosen_side" json:"chosen_side"`
	ResolvedSide  FlipSide  `bun:"resolved_side" json:"resolved_side"`
	IsWinner      bool      `bun:"is_winner" json:"is_winner"`
	Payout        int64     `bun:"payout" json:"payout"`
	BonusUsed     bool      `bun:"bonus_used" json:"bonus_used"`
	BonusGrantID  *int64    `bun:"bonus_grant_id" json:"bonus_grant_id,omitempty"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

type FlipOutcome struct {
	Side             FlipSide `json:"side"`
	IsWinner         bool     `json:"is_winner"`
	Payout           int64    `json:"payout"`
	EntriesThisMonth int64    `json:"entries_this_month"`
}

type FlipStatus struct {
	CanFlip             bool      `json:"can_flip"`
	Tier                string    `json:"tier"`
	TierUnitsRemaining  int       `json:"units_remaining"`
	BonusUnitsRemaining int       `json:"bonus_units_remaining"`
	ResetAt             time.Time `json:"reset_at"`
	MyEntriesThisMonth  int64     `json:"my_entries_this_month"`
}
