package models

import "time"

// DuelStatus is the lifecycle state of a match
type DuelStatus string

const (
	DuelWaiting    DuelStatus = "waiting"
	DuelInProgress DuelStatus = "in_progress"
	DuelCompleted  DuelStatus = "completed"
	DuelExpired    DuelStatus = "expired"
)

// DuelDifficulty selects the word level range of a match
type DuelDifficulty string

const (
	DifficultyEasy DuelDifficulty = "easy"
	DifficultyHard DuelDifficulty = "hard"
)

// Valid reports whether d is a known difficulty
func (d DuelDifficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyHard
}

// LevelRange returns the inclusive word level range for the difficulty
func (d DuelDifficulty) LevelRange() (int, int) {
	if d == DifficultyEasy {
		return 1, 2
	}
	return 1, 4
}

// DuelMatch is a two-player match over a fixed question set
type DuelMatch struct {
	ID             int64          `json:"id" db:"id"`
	Difficulty     DuelDifficulty `json:"difficulty" db:"difficulty"`
	Status         DuelStatus     `json:"status" db:"status"`
	Player1ID      int64          `json:"player1_id" db:"player1_id"`
	Player2ID      *int64         `json:"player2_id" db:"player2_id"`
	WinnerID       *int64         `json:"winner_id" db:"winner_id"`
	IsDraw         bool           `json:"is_draw" db:"is_draw"`
	Player1Correct int            `json:"player1_correct" db:"player1_correct"`
	Player2Correct int            `json:"player2_correct" db:"player2_correct"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	StartedAt      *time.Time     `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at" db:"completed_at"`
}

// HasPlayer reports whether userID holds a seat in the match
func (m DuelMatch) HasPlayer(userID int64) bool {
	return m.Player1ID == userID || (m.Player2ID != nil && *m.Player2ID == userID)
}

// Opponent returns the other player's ID, or 0 when the seat is empty
func (m DuelMatch) Opponent(userID int64) int64 {
	if m.Player1ID == userID {
		if m.Player2ID == nil {
			return 0
		}
		return *m.Player2ID
	}
	return m.Player1ID
}

// CorrectFor returns the stored correct count for userID
func (m DuelMatch) CorrectFor(userID int64) int {
	if m.Player1ID == userID {
		return m.Player1Correct
	}
	return m.Player2Correct
}

// DuelQuestion is one slot of a match's question set
type DuelQuestion struct {
	ID         int64 `json:"id" db:"id"`
	DuelID     int64 `json:"duel_id" db:"duel_id"`
	Index      int   `json:"index" db:"idx"` // 1-based
	WordID     int64 `json:"word_id" db:"word_id"`
	QuestionID int64 `json:"question_id" db:"question_id"`
}

// DuelAnswer is a player's answer to one duel question
type DuelAnswer struct {
	ID             int64     `json:"id" db:"id"`
	DuelID         int64     `json:"duel_id" db:"duel_id"`
	DuelQuestionID int64     `json:"duel_question_id" db:"duel_question_id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	ChosenOption   int       `json:"chosen_option" db:"chosen_option"`
	IsCorrect      bool      `json:"is_correct" db:"is_correct"`
	AnsweredAt     time.Time `json:"answered_at" db:"answered_at"`
}
