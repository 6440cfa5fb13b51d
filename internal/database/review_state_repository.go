package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/wordduel/pkg/models"
)

const reviewStateColumns = `rs.user_id, rs.word_id, rs.interval_days, rs.repetitions, rs.ease_factor, rs.next_review_date, rs.last_reviewed_at, rs.ignored, rs.correct_streak, rs.stage`

// PickTier tells which word-pick rule produced a word
type PickTier int

const (
	PickDue PickTier = iota + 1
	PickNew
	PickAhead
)

func (t PickTier) String() string {
	switch t {
	case PickDue:
		return "due"
	case PickNew:
		return "new"
	case PickAhead:
		return "ahead"
	}
	return "unknown"
}

// DueCount is the number of due words for one user
type DueCount struct {
	UserID int64 `db:"user_id"`
	Count  int   `db:"due"`
}

// ReviewStateRepository handles per (user, word) spaced repetition state
type ReviewStateRepository struct {
	db *DB
}

// NewReviewStateRepository creates a new repository instance
func NewReviewStateRepository(db *DB) *ReviewStateRepository {
	return &ReviewStateRepository{db: db}
}

// Get returns the state of a word for a user
func (r *ReviewStateRepository) Get(ctx context.Context, userID, wordID int64) (*models.ReviewState, error) {
	var st models.ReviewState
	err := r.db.GetContext(ctx, &st,
		"SELECT "+reviewStateColumns+" FROM review_states rs WHERE rs.user_id = ? AND rs.word_id = ?",
		userID, wordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review state: %w", err)
	}
	return &st, nil
}

// PickWord returns the next word a user should review on the given UTC day:
// a due word first, then a word never seen, then any tracked word ahead of
// schedule. Words in skip are passed over. ErrNotFound means no candidate is
// left: the catalog is empty, fully ignored or fully skipped.
func (r *ReviewStateRepository) PickWord(ctx context.Context, userID int64, today string, skip ...int64) (int64, PickTier, error) {
	var wordID int64
	exclude, excludeArgs := notIn("w.id", skip)

	err := r.db.GetContext(ctx, &wordID, `
		SELECT rs.word_id FROM review_states rs
		JOIN words w ON w.id = rs.word_id
		WHERE rs.user_id = ? AND rs.ignored = 0 AND w.active = 1 AND rs.next_review_date <= ?`+exclude+`
		ORDER BY rs.next_review_date, w.sort_order, w.id
		LIMIT 1`, append([]interface{}{userID, today}, excludeArgs...)...)
	if err == nil {
		return wordID, PickDue, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, 0, fmt.Errorf("failed to get due word: %w", err)
	}

	err = r.db.GetContext(ctx, &wordID, `
		SELECT w.id FROM words w
		WHERE w.active = 1 AND NOT EXISTS (
			SELECT 1 FROM review_states rs WHERE rs.user_id = ? AND rs.word_id = w.id
		)`+exclude+`
		ORDER BY w.sort_order, w.id
		LIMIT 1`, append([]interface{}{userID}, excludeArgs...)...)
	if err == nil {
		return wordID, PickNew, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, 0, fmt.Errorf("failed to get new word: %w", err)
	}

	err = r.db.GetContext(ctx, &wordID, `
		SELECT rs.word_id FROM review_states rs
		JOIN words w ON w.id = rs.word_id
		WHERE rs.user_id = ? AND rs.ignored = 0 AND w.active = 1`+exclude+`
		ORDER BY rs.next_review_date, w.sort_order, w.id
		LIMIT 1`, append([]interface{}{userID}, excludeArgs...)...)
	if err == nil {
		return wordID, PickAhead, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, 0, fmt.Errorf("failed to get word ahead of schedule: %w", err)
	}
	return 0, 0, ErrNotFound
}

// notIn builds an " AND col NOT IN (...)" clause, empty for no ids
func notIn(col string, ids []int64) (string, []interface{}) {
	if len(ids) == 0 {
		return "", nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return " AND " + col + " NOT IN (?" + strings.Repeat(", ?", len(ids)-1) + ")", args
}

// InsertDefaultStmt creates the state if it does not exist yet
func (r *ReviewStateRepository) InsertDefaultStmt(st models.ReviewState) Stmt {
	return S(`
		INSERT INTO review_states (user_id, word_id, interval_days, repetitions, ease_factor, next_review_date, ignored, correct_streak, stage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, word_id) DO NOTHING`,
		st.UserID, st.WordID, st.Interval, st.Repetitions, st.EaseFactor,
		st.NextReviewDate, Bool(st.Ignored), st.CorrectStreak, st.Stage)
}

// UpdateStmt writes the scheduling fields of an existing state
func (r *ReviewStateRepository) UpdateStmt(st models.ReviewState) Stmt {
	return Stmt{
		Query: `
			UPDATE review_states SET
				interval_days = ?, repetitions = ?, ease_factor = ?, next_review_date = ?,
				last_reviewed_at = ?, correct_streak = ?, stage = ?
			WHERE user_id = ? AND word_id = ?`,
		Args: []interface{}{
			st.Interval, st.Repetitions, st.EaseFactor, st.NextReviewDate,
			st.LastReviewedAt, st.CorrectStreak, st.Stage,
			st.UserID, st.WordID,
		},
		MustAffect: true,
	}
}

// IgnoreStmt sets the ignored flag, creating a default state first if absent
func (r *ReviewStateRepository) IgnoreStmt(st models.ReviewState) Stmt {
	return S(`
		INSERT INTO review_states (user_id, word_id, interval_days, repetitions, ease_factor, next_review_date, ignored, correct_streak, stage)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (user_id, word_id) DO UPDATE SET ignored = 1`,
		st.UserID, st.WordID, st.Interval, st.Repetitions, st.EaseFactor,
		st.NextReviewDate, st.CorrectStreak, st.Stage)
}

// CountDueByUser returns, per user, the number of non-ignored words due on
// or before today
func (r *ReviewStateRepository) CountDueByUser(ctx context.Context, today string) ([]DueCount, error) {
	var counts []DueCount
	err := r.db.SelectContext(ctx, &counts, `
		SELECT rs.user_id, COUNT(*) AS due FROM review_states rs
		JOIN words w ON w.id = rs.word_id
		WHERE rs.ignored = 0 AND w.active = 1 AND rs.next_review_date <= ?
		GROUP BY rs.user_id
		ORDER BY rs.user_id`, today)
	if err != nil {
		return nil, fmt.Errorf("failed to count due words: %w", err)
	}
	return counts, nil
}
