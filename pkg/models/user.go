package models

import "time"

// User represents a learner, keyed by the transport's user ID
type User struct {
	ID            int64     `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	FirstName     string    `json:"first_name" db:"first_name"`
	XPTotal       int64     `json:"xp_total" db:"xp_total"`
	StreakCount   int       `json:"streak_count" db:"streak_count"`
	StreakLastDay string    `json:"streak_last_day" db:"streak_last_day"` // local date, YYYY-MM-DD
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
