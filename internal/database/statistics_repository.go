package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/wordduel/pkg/models"
)

// StatisticsRepository aggregates user progress for the stats screen
type StatisticsRepository struct {
	db *DB
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// GetUserStatistics returns the user's totals. today is the UTC review day;
// dayStart and dayEnd bound the user's local day for XP earned today.
func (r *StatisticsRepository) GetUserStatistics(ctx context.Context, userID int64, today string, dayStart, dayEnd time.Time) (*models.Statistics, error) {
	stats := &models.Statistics{UserID: userID}

	// users appear with their first reward; until then the totals are zero
	user, err := NewUserRepository(r.db).GetByID(ctx, userID)
	switch {
	case err == nil:
		stats.XPTotal = user.XPTotal
		stats.StreakCount = user.StreakCount
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	var words struct {
		Tracked int `db:"tracked"`
		Ignored int `db:"ignored_count"`
		Due     int `db:"due"`
	}
	err = r.db.GetContext(ctx, &words, `
		SELECT
			COUNT(*) AS tracked,
			COALESCE(SUM(ignored), 0) AS ignored_count,
			COALESCE(SUM(CASE WHEN ignored = 0 AND next_review_date <= ? THEN 1 ELSE 0 END), 0) AS due
		FROM review_states WHERE user_id = ?`, today, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get word statistics: %w", err)
	}
	stats.WordsTracked = words.Tracked
	stats.WordsIgnored = words.Ignored
	stats.DueToday = words.Due

	var duels struct {
		Played int `db:"played"`
		Won    int `db:"won"`
	}
	err = r.db.GetContext(ctx, &duels, `
		SELECT
			COUNT(*) AS played,
			COALESCE(SUM(CASE WHEN winner_id = ? THEN 1 ELSE 0 END), 0) AS won
		FROM duel_matches
		WHERE status = 'completed' AND (player1_id = ? OR player2_id = ?)`,
		userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get duel statistics: %w", err)
	}
	stats.DuelsPlayed = duels.Played
	stats.DuelsWon = duels.Won

	stats.XPEarnedToday, err = NewLedgerRepository(r.db).SumBetween(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
