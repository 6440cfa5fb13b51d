// Package history keeps the shown/answered bookkeeping shared by the review
// and duel flows.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/example/wordduel/internal/apperr"
	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/pkg/models"
)

var (
	// ErrNotShown is returned when an answer targets a question never delivered
	ErrNotShown = apperr.New(apperr.CodeNotFound, "question was not shown")
	// ErrAlreadyAnswered is returned for a repeated answer
	ErrAlreadyAnswered = apperr.New(apperr.CodeAlreadyDone, "question already answered")
)

// Tracker records deliveries and answers. Its statement builders are meant
// to be joined into a caller's batch; MarkShown and MarkAnswered run alone.
type Tracker struct {
	db   *database.DB
	repo *database.HistoryRepository
}

// NewTracker creates a tracker over db
func NewTracker(db *database.DB) *Tracker {
	return &Tracker{db: db, repo: database.NewHistoryRepository(db)}
}

// ShownStmt returns the idempotent "shown" write
func (t *Tracker) ShownStmt(userID, wordID, questionID int64, shown models.ShownContext, at time.Time) database.Stmt {
	return t.repo.ShownStmt(userID, wordID, questionID, shown, at)
}

// AnsweredStmt returns the answered-once write. It must affect a row, so a
// duplicate rolls back the enclosing batch.
func (t *Tracker) AnsweredStmt(userID, questionID int64, shown models.ShownContext, correct bool, at time.Time) database.Stmt {
	return t.repo.AnsweredStmt(userID, questionID, shown, correct, at)
}

// MarkShown records a delivery
func (t *Tracker) MarkShown(ctx context.Context, userID, wordID, questionID int64, shown models.ShownContext, at time.Time) error {
	_, err := t.db.Batch(ctx, t.ShownStmt(userID, wordID, questionID, shown, at))
	return err
}

// MarkAnswered records the answer to a delivered question
func (t *Tracker) MarkAnswered(ctx context.Context, userID, questionID int64, shown models.ShownContext, correct bool, at time.Time) error {
	_, err := t.db.Batch(ctx, t.AnsweredStmt(userID, questionID, shown, correct, at))
	if errors.Is(err, database.ErrBatchConflict) {
		return t.Classify(ctx, userID, questionID, shown)
	}
	return err
}

// Classify explains why an answered write affected no rows
func (t *Tracker) Classify(ctx context.Context, userID, questionID int64, shown models.ShownContext) error {
	rec, err := t.repo.Get(ctx, userID, questionID, shown)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotShown
	}
	if err != nil {
		return err
	}
	if rec.Answered() {
		return ErrAlreadyAnswered
	}
	return apperr.Internal("shown record changed during answer", nil)
}

// Get returns the shown record for (user, question, context)
func (t *Tracker) Get(ctx context.Context, userID, questionID int64, shown models.ShownContext) (*models.QuestionShown, error) {
	rec, err := t.repo.Get(ctx, userID, questionID, shown)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotShown
	}
	return rec, err
}
