package models

import (
	"time"

	"github.com/uptrace/bun"
)

// BonusGrant is an admin-issued allotment of extra flip units, consumed before
// tier units because grants may expire. Rows are never deleted.
type BonusGrant struct {
	bun.BaseModel  `bun:"table:bonus_grant"`
	ID             int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID         int64      `bun:"user_id" json:"user_id"`
	UnitsAwarded   int        `bun:"units_awarded" json:"units_awarded"`
	UnitsRemaining int        `bun:"units_remaining" json:"units_remaining"`
	Reason         string     `bun:"reason" json:"reason"`
	GrantedBy      string     `bun:"granted_by" json:"granted_by"`
	GrantedAt      time.Time  `bun:"granted_at,default:current_timestamp" json:"granted_at"`
	ExpiresAt      *time.Time `bun:"expires_at" json:"expires_at,omitempty"`
}

// Active reports whether the grant still has consumable units. Expired grants
// are inert even when UnitsRemaining is positive.
func (g *BonusGrant) Active(now time.Time) bool {
	if g.UnitsRemaining <= 0 {
		return false
	}
	if g.ExpiresAt != nil && !now.Before(*g.ExpiresAt) {
		return false
	}
	return true
}
