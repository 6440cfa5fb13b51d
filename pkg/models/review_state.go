package models

import "time"

const (
	// DefaultEaseFactor is the SM-2 starting ease
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the SM-2 ease floor
	MinEaseFactor = 1.3
	// MaxStage is the last question stage
	MaxStage = 4
)

// ReviewState tracks a user's progress with a specific word using the SM-2 algorithm
type ReviewState struct {
	UserID         int64      `json:"user_id" db:"user_id"`
	WordID         int64      `json:"word_id" db:"word_id"`
	Interval       int        `json:"interval" db:"interval_days"` // Current interval in days
	Repetitions    int        `json:"repetitions" db:"repetitions"`
	EaseFactor     float64    `json:"ease_factor" db:"ease_factor"`
	NextReviewDate string     `json:"next_review_date" db:"next_review_date"` // UTC date, YYYY-MM-DD
	LastReviewedAt *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	Ignored        bool       `json:"ignored" db:"ignored"`
	CorrectStreak  int        `json:"correct_streak" db:"correct_streak"`
	Stage          int        `json:"stage" db:"stage"` // 1-4
}

// NewReviewState returns the state a word starts with on first encounter
func NewReviewState(userID, wordID int64, today string) ReviewState {
	return ReviewState{
		UserID:         userID,
		WordID:         wordID,
		EaseFactor:     DefaultEaseFactor,
		NextReviewDate: today,
		Stage:          1,
	}
}
