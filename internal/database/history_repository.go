package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wordduel/pkg/models"
)

// HistoryRepository stores question_shown records
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new repository instance
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// ShownStmt records a delivery. A repeat delivery of an unanswered question
// changes nothing; a repeat of an answered one re-arms the record.
func (r *HistoryRepository) ShownStmt(userID, wordID, questionID int64, shown models.ShownContext, at time.Time) Stmt {
	return S(`
		INSERT INTO question_shown (user_id, word_id, question_id, context, shown_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, question_id, context) DO UPDATE SET
			shown_at = excluded.shown_at,
			is_correct = NULL,
			answered_at = NULL
		WHERE question_shown.answered_at IS NOT NULL`,
		userID, wordID, questionID, shown, at.UTC())
}

// AnsweredStmt marks a shown record answered exactly once
func (r *HistoryRepository) AnsweredStmt(userID, questionID int64, shown models.ShownContext, correct bool, at time.Time) Stmt {
	return Stmt{
		Query: `
			UPDATE question_shown SET is_correct = ?, answered_at = ?
			WHERE user_id = ? AND question_id = ? AND context = ? AND answered_at IS NULL`,
		Args:       []interface{}{Bool(correct), at.UTC(), userID, questionID, shown},
		MustAffect: true,
	}
}

// Get returns the shown record for (user, question, context)
func (r *HistoryRepository) Get(ctx context.Context, userID, questionID int64, shown models.ShownContext) (*models.QuestionShown, error) {
	var rec models.QuestionShown
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, user_id, word_id, question_id, context, shown_at, is_correct, answered_at
		FROM question_shown
		WHERE user_id = ? AND question_id = ? AND context = ?`,
		userID, questionID, shown)
	if err != nil {
		return nil, fmt.Errorf("failed to get shown record: %w", err)
	}
	return &rec, nil
}
