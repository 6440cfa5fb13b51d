package duel

import (
	"context"
	"errors"

	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/metrics"
	"github.com/example/wordduel/internal/observability"
)

// SweepResult counts what one cleanup pass did
type SweepResult struct {
	Expired int64
	Deleted int
}

// Sweep expires matches running longer than StaleAfter and deletes waiting
// matches nobody joined within WaitingTTL. A match joined while the sweep
// runs is left alone.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now()

	expired, err := s.repo.ExpireStarted(ctx, now.Add(-s.opts.StaleAfter), now)
	if err != nil {
		return res, err
	}
	res.Expired = expired
	metrics.DuelSweptTotal.WithLabelValues("expired").Add(float64(expired))

	ids, err := s.repo.ListStaleWaiting(ctx, now.Add(-s.opts.WaitingTTL))
	if err != nil {
		return res, err
	}
	for _, id := range ids {
		_, err := s.db.Batch(ctx, s.repo.DeleteWaitingStmts(id)...)
		if errors.Is(err, database.ErrBatchConflict) {
			continue
		}
		if err != nil {
			return res, err
		}
		res.Deleted++
		s.logger.Debug("stale duel deleted", observability.LogFieldMatchID, id)
	}
	metrics.DuelSweptTotal.WithLabelValues("deleted").Add(float64(res.Deleted))

	if res.Expired > 0 || res.Deleted > 0 {
		s.logger.Info("duel sweep finished", "expired", res.Expired, "deleted", res.Deleted)
	}
	return res, nil
}
