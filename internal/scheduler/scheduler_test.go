package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/database/dbtest"
	"github.com/example/wordduel/internal/duel"
	"github.com/example/wordduel/internal/observability"
	"github.com/example/wordduel/pkg/models"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[int64]int
	fail int64
}

func (n *recordingNotifier) SendReminders(ctx context.Context, userID int64, count int) error {
	if userID == n.fail {
		return errors.New("blocked")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = map[int64]int{}
	}
	n.sent[userID] = count
	return nil
}

type countingSweeper struct{ calls int }

func (s *countingSweeper) Sweep(ctx context.Context) (duel.SweepResult, error) {
	s.calls++
	return duel.SweepResult{}, nil
}

func TestSendReminders(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	words := dbtest.Words(t, db, "w", 3, 1)
	states := database.NewReviewStateRepository(db)

	var stmts []database.Stmt
	// user 1: two due, one tomorrow; user 2: one due but ignored; user 3: due
	for i, w := range words {
		day := "2026-03-10"
		if i == 2 {
			day = "2026-03-11"
		}
		stmts = append(stmts, states.InsertDefaultStmt(models.NewReviewState(1, w.ID, day)))
	}
	stmts = append(stmts,
		states.IgnoreStmt(models.NewReviewState(2, words[0].ID, "2026-03-10")),
		states.InsertDefaultStmt(models.NewReviewState(3, words[0].ID, "2026-03-01")),
	)
	_, err := db.Batch(ctx, stmts...)
	require.NoError(t, err)

	n := &recordingNotifier{fail: 3}
	s := New(db, &countingSweeper{}, n, Options{}, observability.Discard())
	s.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, s.SendReminders(ctx))
	assert.Equal(t, map[int64]int{1: 2}, n.sent)
}

func TestJobRunsSweep(t *testing.T) {
	db := dbtest.New(t)
	sw := &countingSweeper{}
	s := New(db, sw, nil, Options{}, observability.Discard())

	s.job("duel sweep", s.sweep)()
	assert.Equal(t, 1, sw.calls)
}
