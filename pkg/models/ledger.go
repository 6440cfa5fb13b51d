package models

import "time"

// ActivityType classifies a ledger entry
type ActivityType string

const (
	ActivityReviewAnswer ActivityType = "review_answer"
	ActivityDuelMatch    ActivityType = "duel_match"
)

// LedgerEntry is one append-only XP reward
type LedgerEntry struct {
	ID           int64        `json:"id" db:"id"`
	UserID       int64        `json:"user_id" db:"user_id"`
	ActivityType ActivityType `json:"activity_type" db:"activity_type"`
	RefID        int64        `json:"ref_id" db:"ref_id"`
	XPDelta      int          `json:"xp_delta" db:"xp_delta"`
	Metadata     string       `json:"metadata" db:"metadata"` // JSON object
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}
