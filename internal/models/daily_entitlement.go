package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DailyEntitlement tracks flips consumed for one (user, UTC day). Rows are
// created lazily on the first consume of the day; stale days are simply never
// read again, there is no reset job.
type DailyEntitlement struct {
	bun.BaseModel `bun:"table:daily_entitlement"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	Day           string    `bun:"day" json:"day"`
	UnitsConsumed int       `bun:"units_consumed" json:"units_consumed"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}
