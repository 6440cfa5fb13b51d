package models

import "time"

// ShownContext distinguishes the flow a question was delivered in
type ShownContext string

const (
	ContextReview ShownContext = "review"
	ContextDuel   ShownContext = "duel"
)

// QuestionShown records that a question was delivered to a user, and
// whether and how it was answered
type QuestionShown struct {
	ID         int64        `json:"id" db:"id"`
	UserID     int64        `json:"user_id" db:"user_id"`
	WordID     int64        `json:"word_id" db:"word_id"`
	QuestionID int64        `json:"question_id" db:"question_id"`
	Context    ShownContext `json:"context" db:"context"`
	ShownAt    time.Time    `json:"shown_at" db:"shown_at"`
	IsCorrect  *bool        `json:"is_correct" db:"is_correct"`
	AnsweredAt *time.Time   `json:"answered_at" db:"answered_at"`
}

// Answered reports whether the record already carries an answer
func (s QuestionShown) Answered() bool {
	return s.AnsweredAt != nil
}
