package database

import (
	"context"
	"fmt"
	"strings"
)

// schema is written once with dialect tokens:
//
//	{{pk}}     auto-increment primary key
//	{{bigint}} 64-bit integer
//	{{ts}}     timestamp
//	{{float}}  double precision float
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{bigint}} PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		xp_total {{bigint}} NOT NULL DEFAULT 0,
		streak_count INTEGER NOT NULL DEFAULT 0,
		streak_last_day TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS words (
		id {{pk}},
		english_word TEXT NOT NULL UNIQUE,
		translation TEXT NOT NULL,
		level INTEGER NOT NULL DEFAULT 1 CHECK (level BETWEEN 1 AND 4),
		lesson TEXT NOT NULL DEFAULT '',
		synonyms TEXT NOT NULL DEFAULT '',
		antonyms TEXT NOT NULL DEFAULT '',
		sort_order INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_words_active_order ON words(active, sort_order, id)`,
	`CREATE INDEX IF NOT EXISTS idx_words_level ON words(active, level)`,

	`CREATE TABLE IF NOT EXISTS questions (
		id {{pk}},
		word_id {{bigint}} NOT NULL REFERENCES words(id),
		prompt TEXT NOT NULL,
		option_1 TEXT NOT NULL,
		option_2 TEXT NOT NULL,
		option_3 TEXT NOT NULL,
		option_4 TEXT NOT NULL,
		correct_option INTEGER NOT NULL CHECK (correct_option BETWEEN 1 AND 4),
		explanation TEXT NOT NULL DEFAULT '',
		style TEXT NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_word_style ON questions(word_id, style)`,

	`CREATE TABLE IF NOT EXISTS review_states (
		user_id {{bigint}} NOT NULL,
		word_id {{bigint}} NOT NULL REFERENCES words(id),
		interval_days INTEGER NOT NULL DEFAULT 0,
		repetitions INTEGER NOT NULL DEFAULT 0,
		ease_factor {{float}} NOT NULL DEFAULT 2.5,
		next_review_date TEXT NOT NULL,
		last_reviewed_at {{ts}},
		ignored INTEGER NOT NULL DEFAULT 0,
		correct_streak INTEGER NOT NULL DEFAULT 0,
		stage INTEGER NOT NULL DEFAULT 1 CHECK (stage BETWEEN 1 AND 4),
		PRIMARY KEY (user_id, word_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_states_due ON review_states(user_id, ignored, next_review_date)`,

	`CREATE TABLE IF NOT EXISTS question_shown (
		id {{pk}},
		user_id {{bigint}} NOT NULL,
		word_id {{bigint}} NOT NULL,
		question_id {{bigint}} NOT NULL REFERENCES questions(id),
		context TEXT NOT NULL,
		shown_at {{ts}} NOT NULL,
		is_correct INTEGER,
		answered_at {{ts}},
		UNIQUE (user_id, question_id, context)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_question_shown_word ON question_shown(user_id, word_id, context)`,

	`CREATE TABLE IF NOT EXISTS duel_matches (
		id {{pk}},
		difficulty TEXT NOT NULL,
		status TEXT NOT NULL,
		player1_id {{bigint}} NOT NULL,
		player2_id {{bigint}},
		winner_id {{bigint}},
		is_draw INTEGER NOT NULL DEFAULT 0,
		player1_correct INTEGER NOT NULL DEFAULT 0,
		player2_correct INTEGER NOT NULL DEFAULT 0,
		questions_claimed INTEGER NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL,
		started_at {{ts}},
		completed_at {{ts}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_duel_matches_waiting ON duel_matches(status, difficulty, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_duel_matches_player1 ON duel_matches(player1_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_duel_matches_player2 ON duel_matches(player2_id, status)`,

	`CREATE TABLE IF NOT EXISTS duel_questions (
		id {{pk}},
		duel_id {{bigint}} NOT NULL REFERENCES duel_matches(id),
		idx INTEGER NOT NULL,
		word_id {{bigint}} NOT NULL,
		question_id {{bigint}} NOT NULL REFERENCES questions(id),
		UNIQUE (duel_id, idx)
	)`,

	`CREATE TABLE IF NOT EXISTS duel_answers (
		id {{pk}},
		duel_id {{bigint}} NOT NULL REFERENCES duel_matches(id),
		duel_question_id {{bigint}} NOT NULL REFERENCES duel_questions(id),
		user_id {{bigint}} NOT NULL,
		chosen_option INTEGER NOT NULL,
		is_correct INTEGER NOT NULL,
		answered_at {{ts}} NOT NULL,
		UNIQUE (duel_question_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_duel_answers_duel_user ON duel_answers(duel_id, user_id)`,

	`CREATE TABLE IF NOT EXISTS xp_ledger (
		id {{pk}},
		user_id {{bigint}} NOT NULL REFERENCES users(id),
		activity_type TEXT NOT NULL,
		ref_id {{bigint}} NOT NULL,
		xp_delta INTEGER NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_xp_ledger_user_time ON xp_ledger(user_id, created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_xp_ledger_duel ON xp_ledger(user_id, activity_type, ref_id) WHERE activity_type = 'duel_match'`,
}

// Migrate creates necessary tables if they don't exist
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.DB.ExecContext(ctx, db.dialectDDL(stmt)); err != nil {
			return fmt.Errorf("failed to apply schema: %w\n%s", err, stmt)
		}
	}
	return nil
}

func (db *DB) dialectDDL(stmt string) string {
	var r *strings.Replacer
	if db.IsPostgres() {
		r = strings.NewReplacer(
			"{{pk}}", "BIGSERIAL PRIMARY KEY",
			"{{bigint}}", "BIGINT",
			"{{ts}}", "TIMESTAMPTZ",
			"{{float}}", "DOUBLE PRECISION",
		)
	} else {
		r = strings.NewReplacer(
			"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
			"{{bigint}}", "INTEGER",
			"{{ts}}", "TIMESTAMP",
			"{{float}}", "REAL",
		)
	}
	return r.Replace(stmt)
}
