package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PrizeStatus string

const (
	PrizeStatusScheduled PrizeStatus = "scheduled"
	PrizeStatusActive    PrizeStatus = "active"
	PrizeStatusDrawn     PrizeStatus = "drawn"
	PrizeStatusCancelled PrizeStatus = "cancelled"
)

// MonthlyPrize is one row per calendar month. The active->drawn transition
// happens exactly once; a drawn row is immutable.
type MonthlyPrize struct {
	bun.BaseModel    `bun:"table:monthly_prize"`
	ID               int64       `bun:"id,pk,autoincrement" json:"id"`
	Month            string      `bun:"month" json:"month"`
	Title            string      `bun:"title" json:"title"`
	Description      string      `bun:"description" json:"description"`
	ImageURL         string      `bun:"image_url" json:"image_url"`
	DrawingDate      time.Time   `bun:"drawing_date" json:"drawing_date"`
	Status           PrizeStatus `bun:"status" json:"status"`
	WinnerUserID     *int64      `bun:"winner_user_id" json:"winner_user_id,omitempty"`
	WinnerEntryCount *int64      `bun:"winner_entry_count" json:"winner_entry_count,omitempty"`
	TotalEntries     *int64      `bun:"total_entries" json:"total_entries,omitempty"`
	DrawnAt          *time.Time  `bun:"drawn_at" json:"drawn_at,omitempty"`
	CreatedAt        time.Time   `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time   `bun:"updated_at" json:"updated_at"`
}

type DrawResult struct {
	Month            string    `json:"month"`
	WinnerUserID     int64     `json:"winner_user_id"`
	WinnerEntryCount int64     `json:"winner_entry_count"`
	TotalEntries     int64     `json:"total_entries"`
	Odds             float64   `json:"odds"`
	DrawnAt          time.Time `json:"drawn_at"`
}
