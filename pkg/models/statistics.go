package models

// Statistics summarises a user's progress for the stats screen
type Statistics struct {
	UserID        int64 `json:"user_id" db:"user_id"`
	XPTotal       int64 `json:"xp_total" db:"xp_total"`
	StreakCount   int   `json:"streak_count" db:"streak_count"`
	WordsTracked  int   `json:"words_tracked" db:"words_tracked"`
	WordsIgnored  int   `json:"words_ignored" db:"words_ignored"`
	DueToday      int   `json:"due_today" db:"due_today"`
	DuelsPlayed   int   `json:"duels_played" db:"duels_played"`
	DuelsWon      int   `json:"duels_won" db:"duels_won"`
	XPEarnedToday int64 `json:"xp_earned_today" db:"xp_earned_today"`

	// Recent holds the latest ledger credits, newest first
	Recent []LedgerEntry `json:"recent" db:"-"`
}
