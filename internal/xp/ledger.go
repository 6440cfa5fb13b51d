// Package xp credits rewards through the append-only ledger and tracks
// daily streaks.
package xp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/wordduel/internal/config"
	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/metrics"
	"github.com/example/wordduel/pkg/models"
)

// Service credits XP and maintains streaks
type Service struct {
	db     *database.DB
	users  *database.UserRepository
	ledger *database.LedgerRepository
	cfg    config.XPConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an XP service
func NewService(db *database.DB, cfg config.XPConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:     db,
		users:  database.NewUserRepository(db),
		ledger: database.NewLedgerRepository(db),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Config returns the reward amounts in use
func (s *Service) Config() config.XPConfig {
	return s.cfg
}

// Reward is one ledger credit
type Reward struct {
	UserID   int64
	Activity models.ActivityType
	RefID    int64
	Delta    int
	Metadata map[string]interface{}
	At       time.Time
}

func (r Reward) entry() models.LedgerEntry {
	metadata := "{}"
	if len(r.Metadata) > 0 {
		if b, err := json.Marshal(r.Metadata); err == nil {
			metadata = string(b)
		}
	}
	return models.LedgerEntry{
		UserID:       r.UserID,
		ActivityType: r.Activity,
		RefID:        r.RefID,
		XPDelta:      r.Delta,
		Metadata:     metadata,
		CreatedAt:    r.At,
	}
}

// RewardStmts returns the paired ledger insert and total increment. The
// increment only runs if the insert added a row, so rewards keyed by a
// unique (user, activity, ref) are credited at most once.
func (s *Service) RewardStmts(r Reward) []database.Stmt {
	if r.At.IsZero() {
		r.At = s.now()
	}
	add := s.users.AddXPStmt(r.UserID, r.Delta)
	add.IfPrevAffected = true
	return []database.Stmt{
		s.users.EnsureStmt(r.UserID, r.At),
		s.ledger.InsertStmt(r.entry()),
		add,
	}
}

// Credited reports whether the reward statements at offset in a batch's
// affected counts actually inserted a ledger entry
func Credited(affected []int64, offset int) bool {
	return len(affected) > offset+1 && affected[offset+1] == 1
}

// Award credits a reward in its own batch. It reports whether the entry was
// new.
func (s *Service) Award(ctx context.Context, r Reward) (bool, error) {
	affected, err := s.db.Batch(ctx, s.RewardStmts(r)...)
	if err != nil {
		return false, fmt.Errorf("failed to award xp: %w", err)
	}
	credited := Credited(affected, 0)
	if credited {
		metrics.XPAwardedTotal.WithLabelValues(string(r.Activity)).Add(float64(r.Delta))
	}
	return credited, nil
}

// Observe records metrics for a reward applied inside a caller's batch
func (s *Service) Observe(r Reward, credited bool) {
	if credited {
		metrics.XPAwardedTotal.WithLabelValues(string(r.Activity)).Add(float64(r.Delta))
	}
}

// Balance returns the ledger sum and the denormalized total for a user
func (s *Service) Balance(ctx context.Context, userID int64) (ledgerSum, total int64, err error) {
	ledgerSum, err = s.ledger.Sum(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return ledgerSum, user.XPTotal, nil
}
