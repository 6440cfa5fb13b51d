package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wordduel/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, username, first_name, xp_total, streak_count, streak_last_day, created_at
		FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

// Register creates the user or refreshes their profile fields
func (r *UserRepository) Register(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, first_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name`,
		user.ID, user.Username, user.FirstName, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// EnsureStmt creates a bare user row if absent
func (r *UserRepository) EnsureStmt(userID int64, at time.Time) Stmt {
	return S(`INSERT INTO users (id, created_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`, userID, at.UTC())
}

// AddXPStmt increments the denormalized XP total
func (r *UserRepository) AddXPStmt(userID int64, delta int) Stmt {
	return Stmt{
		Query:      `UPDATE users SET xp_total = xp_total + ? WHERE id = ?`,
		Args:       []interface{}{delta, userID},
		MustAffect: true,
	}
}

// AdvanceStreak moves the streak from the observed last streak day to today.
// It reports false when another request already moved it.
func (r *UserRepository) AdvanceStreak(ctx context.Context, userID int64, prevDay, today string, count int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET streak_count = ?, streak_last_day = ?
		WHERE id = ? AND streak_last_day = ? AND streak_last_day != ?`,
		count, today, userID, prevDay, today)
	if err != nil {
		return false, fmt.Errorf("failed to update streak: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update streak: %w", err)
	}
	return n == 1, nil
}
