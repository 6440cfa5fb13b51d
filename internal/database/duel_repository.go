package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wordduel/pkg/models"
)

const matchColumns = `id, difficulty, status, player1_id, player2_id, winner_id, is_draw, player1_correct, player2_correct, created_at, started_at, completed_at`

// DuelRepository handles duel matches, their question sets and answers
type DuelRepository struct {
	db *DB
}

// NewDuelRepository creates a new repository instance
func NewDuelRepository(db *DB) *DuelRepository {
	return &DuelRepository{db: db}
}

// GetMatch returns a match by ID
func (r *DuelRepository) GetMatch(ctx context.Context, id int64) (*models.DuelMatch, error) {
	var m models.DuelMatch
	err := r.db.GetContext(ctx, &m, "SELECT "+matchColumns+" FROM duel_matches WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &m, nil
}

// ActiveForUser returns the user's waiting or in-progress match
func (r *DuelRepository) ActiveForUser(ctx context.Context, userID int64) (*models.DuelMatch, error) {
	var m models.DuelMatch
	err := r.db.GetContext(ctx, &m, "SELECT "+matchColumns+` FROM duel_matches
		WHERE status IN ('waiting', 'in_progress') AND (player1_id = ? OR player2_id = ?)
		ORDER BY id DESC LIMIT 1`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active match: %w", err)
	}
	return &m, nil
}

// LatestForUser returns the user's most recent match in any status
func (r *DuelRepository) LatestForUser(ctx context.Context, userID int64) (*models.DuelMatch, error) {
	var m models.DuelMatch
	err := r.db.GetContext(ctx, &m, "SELECT "+matchColumns+` FROM duel_matches
		WHERE player1_id = ? OR player2_id = ?
		ORDER BY id DESC LIMIT 1`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest match: %w", err)
	}
	return &m, nil
}

// OldestWaiting returns the oldest open match of a difficulty that userID
// did not create
func (r *DuelRepository) OldestWaiting(ctx context.Context, difficulty models.DuelDifficulty, userID int64) (*models.DuelMatch, error) {
	var m models.DuelMatch
	err := r.db.GetContext(ctx, &m, "SELECT "+matchColumns+` FROM duel_matches
		WHERE status = 'waiting' AND difficulty = ? AND player2_id IS NULL AND player1_id != ?
		ORDER BY created_at, id LIMIT 1`, difficulty, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get waiting match: %w", err)
	}
	return &m, nil
}

// CreateWaiting opens a new match owned by userID
func (r *DuelRepository) CreateWaiting(ctx context.Context, userID int64, difficulty models.DuelDifficulty, at time.Time) (int64, error) {
	id, err := r.db.InsertReturningID(ctx, `
		INSERT INTO duel_matches (difficulty, status, player1_id, created_at)
		VALUES (?, 'waiting', ?, ?)`, difficulty, userID, at.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create match: %w", err)
	}
	return id, nil
}

// Join takes the second seat of a waiting match. It reports false when the
// seat was already taken.
func (r *DuelRepository) Join(ctx context.Context, matchID, userID int64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE duel_matches SET player2_id = ?, status = 'in_progress', started_at = ?
		WHERE id = ? AND player2_id IS NULL AND status = 'waiting' AND player1_id != ?`,
		userID, at.UTC(), matchID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to join match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to join match: %w", err)
	}
	return n == 1, nil
}

// InProgressGuardStmt affects one row only while the match is in progress
func (r *DuelRepository) InProgressGuardStmt(matchID int64) Stmt {
	return Stmt{
		Query:      `UPDATE duel_matches SET status = status WHERE id = ? AND status = 'in_progress'`,
		Args:       []interface{}{matchID},
		MustAffect: true,
	}
}

// CountQuestions returns the size of a match's allocated question set
func (r *DuelRepository) CountQuestions(ctx context.Context, matchID int64) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM duel_questions WHERE duel_id = ?", matchID); err != nil {
		return 0, fmt.Errorf("failed to count duel questions: %w", err)
	}
	return n, nil
}

// ClaimQuestionsStmt marks the match's question set as taken. Only one
// allocation can claim a match; later ones affect zero rows.
func (r *DuelRepository) ClaimQuestionsStmt(matchID int64) Stmt {
	return Stmt{
		Query:      `UPDATE duel_matches SET questions_claimed = 1 WHERE id = ? AND questions_claimed = 0`,
		Args:       []interface{}{matchID},
		MustAffect: true,
	}
}

// InsertQuestionStmt allocates one slot; an already filled slot is kept
func (r *DuelRepository) InsertQuestionStmt(matchID int64, idx int, wordID, questionID int64) Stmt {
	return S(`
		INSERT INTO duel_questions (duel_id, idx, word_id, question_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (duel_id, idx) DO NOTHING`, matchID, idx, wordID, questionID)
}

// ListQuestions returns a match's question set in slot order
func (r *DuelRepository) ListQuestions(ctx context.Context, matchID int64) ([]models.DuelQuestion, error) {
	var qs []models.DuelQuestion
	err := r.db.SelectContext(ctx, &qs, `
		SELECT id, duel_id, idx, word_id, question_id FROM duel_questions
		WHERE duel_id = ? ORDER BY idx`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get duel questions: %w", err)
	}
	return qs, nil
}

// GetQuestion returns one duel question slot
func (r *DuelRepository) GetQuestion(ctx context.Context, id int64) (*models.DuelQuestion, error) {
	var q models.DuelQuestion
	err := r.db.GetContext(ctx, &q, `
		SELECT id, duel_id, idx, word_id, question_id FROM duel_questions WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get duel question: %w", err)
	}
	return &q, nil
}

// HasAnswered reports whether the user already answered a duel question
func (r *DuelRepository) HasAnswered(ctx context.Context, duelQuestionID, userID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM duel_answers WHERE duel_question_id = ? AND user_id = ?`,
		duelQuestionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check duel answer: %w", err)
	}
	return n > 0, nil
}

// AnswerStmt stores an answer; a duplicate affects no rows
func (r *DuelRepository) AnswerStmt(a models.DuelAnswer) Stmt {
	return Stmt{
		Query: `
			INSERT INTO duel_answers (duel_id, duel_question_id, user_id, chosen_option, is_correct, answered_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (duel_question_id, user_id) DO NOTHING`,
		Args: []interface{}{
			a.DuelID, a.DuelQuestionID, a.UserID, a.ChosenOption, Bool(a.IsCorrect), a.AnsweredAt.UTC(),
		},
		MustAffect: true,
	}
}

// Progress is a player's answered and correct counts in a match
type Progress struct {
	Answered int `db:"answered"`
	Correct  int `db:"correct"`
}

// ProgressFor returns the player's answer counts for a match
func (r *DuelRepository) ProgressFor(ctx context.Context, matchID, userID int64) (Progress, error) {
	var p Progress
	err := r.db.GetContext(ctx, &p, `
		SELECT COUNT(*) AS answered, COALESCE(SUM(is_correct), 0) AS correct
		FROM duel_answers WHERE duel_id = ? AND user_id = ?`, matchID, userID)
	if err != nil {
		return Progress{}, fmt.Errorf("failed to get duel progress: %w", err)
	}
	return p, nil
}

// FinalizeStmt completes an in-progress match with its outcome
func (r *DuelRepository) FinalizeStmt(m models.DuelMatch, at time.Time) Stmt {
	return Stmt{
		Query: `
			UPDATE duel_matches SET
				status = 'completed', winner_id = ?, is_draw = ?,
				player1_correct = ?, player2_correct = ?, completed_at = ?
			WHERE id = ? AND status = 'in_progress'`,
		Args: []interface{}{
			m.WinnerID, Bool(m.IsDraw), m.Player1Correct, m.Player2Correct, at.UTC(), m.ID,
		},
		MustAffect: true,
	}
}

// ExpireStarted moves in-progress matches started before cutoff to expired
func (r *DuelRepository) ExpireStarted(ctx context.Context, cutoff, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE duel_matches SET status = 'expired', completed_at = ?
		WHERE status = 'in_progress' AND started_at < ?`, at.UTC(), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire matches: %w", err)
	}
	return res.RowsAffected()
}

// ListStaleWaiting returns IDs of waiting matches created before cutoff
func (r *DuelRepository) ListStaleWaiting(ctx context.Context, cutoff time.Time) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id FROM duel_matches
		WHERE status = 'waiting' AND player2_id IS NULL AND created_at < ?
		ORDER BY id`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get stale matches: %w", err)
	}
	return ids, nil
}

// DeleteWaitingStmts removes a match still waiting for a second player,
// dependent rows first
func (r *DuelRepository) DeleteWaitingStmts(matchID int64) []Stmt {
	guard := `EXISTS (SELECT 1 FROM duel_matches WHERE id = ? AND status = 'waiting' AND player2_id IS NULL)`
	return []Stmt{
		S(`DELETE FROM duel_answers WHERE duel_id = ? AND `+guard, matchID, matchID),
		S(`DELETE FROM duel_questions WHERE duel_id = ? AND `+guard, matchID, matchID),
		{
			Query:      `DELETE FROM duel_matches WHERE id = ? AND status = 'waiting' AND player2_id IS NULL`,
			Args:       []interface{}{matchID},
			MustAffect: true,
		},
	}
}

// DeleteStmts removes a match and its dependent rows regardless of status
func (r *DuelRepository) DeleteStmts(matchID int64) []Stmt {
	return []Stmt{
		S(`DELETE FROM duel_answers WHERE duel_id = ?`, matchID),
		S(`DELETE FROM duel_questions WHERE duel_id = ?`, matchID),
		S(`DELETE FROM duel_matches WHERE id = ?`, matchID),
	}
}

// NextUnanswered returns the lowest slot of a match the user has not answered
func (r *DuelRepository) NextUnanswered(ctx context.Context, matchID, userID int64) (*models.DuelQuestion, error) {
	var q models.DuelQuestion
	err := r.db.GetContext(ctx, &q, `
		SELECT dq.id, dq.duel_id, dq.idx, dq.word_id, dq.question_id
		FROM duel_questions dq
		WHERE dq.duel_id = ? AND NOT EXISTS (
			SELECT 1 FROM duel_answers a WHERE a.duel_question_id = dq.id AND a.user_id = ?
		)
		ORDER BY dq.idx LIMIT 1`, matchID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get next duel question: %w", err)
	}
	return &q, nil
}
