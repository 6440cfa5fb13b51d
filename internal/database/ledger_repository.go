package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wordduel/pkg/models"
)

// LedgerRepository handles the append-only XP ledger
type LedgerRepository struct {
	db *DB
}

// NewLedgerRepository creates a new repository instance
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// InsertStmt appends an entry. Entries covered by the unique
// (user, duel_match, ref) index are inserted at most once, so callers can
// follow it with an IfPrevAffected total update.
func (r *LedgerRepository) InsertStmt(e models.LedgerEntry) Stmt {
	metadata := e.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	return S(`
		INSERT INTO xp_ledger (user_id, activity_type, ref_id, xp_delta, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		e.UserID, e.ActivityType, e.RefID, e.XPDelta, metadata, e.CreatedAt.UTC())
}

// Sum returns the total of a user's ledger deltas
func (r *LedgerRepository) Sum(ctx context.Context, userID int64) (int64, error) {
	var sum int64
	err := r.db.GetContext(ctx, &sum, "SELECT COALESCE(SUM(xp_delta), 0) FROM xp_ledger WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger: %w", err)
	}
	return sum, nil
}

// SumBetween returns the total of a user's deltas created in [from, to)
func (r *LedgerRepository) SumBetween(ctx context.Context, userID int64, from, to time.Time) (int64, error) {
	var sum int64
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(xp_delta), 0) FROM xp_ledger
		WHERE user_id = ? AND created_at >= ? AND created_at < ?`,
		userID, from.UTC(), to.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger: %w", err)
	}
	return sum, nil
}

// ListByUser returns a user's most recent entries, newest first
func (r *LedgerRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, activity_type, ref_id, xp_delta, metadata, created_at
		FROM xp_ledger WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return entries, nil
}
