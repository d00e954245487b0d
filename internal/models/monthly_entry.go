package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MonthlyEntry is a projection of flip_record counts, one row per
// (user, month). It must always match a recount of FlipRecord.
type MonthlyEntry struct {
	bun.BaseModel `bun:"table:monthly_entry"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	Month         string    `bun:"month" json:"month"`
	EntryCount    int64     `bun:"entry_count" json:"entry_count"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}

type UserEntries struct {
	UserID     int64 `bun:"user_id" json:"user_id"`
	EntryCount int64 `bun:"entry_count" json:"entry_count"`
}

type MonthStats struct {
	Month             string `json:"month"`
	TotalEntries      int64  `json:"total_entries"`
	TotalParticipants int64  `json:"total_participants"`
}
