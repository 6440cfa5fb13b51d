package duel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordduel/internal/catalog"
	"github.com/example/wordduel/internal/config"
	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/database/dbtest"
	"github.com/example/wordduel/internal/history"
	"github.com/example/wordduel/internal/observability"
	"github.com/example/wordduel/internal/xp"
	"github.com/example/wordduel/pkg/models"
)

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db  *database.DB
	svc *Service
	xp  *xp.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	logger := observability.Discard()
	rewards := xp.NewService(db, config.XPConfig{
		DuelPerQuestion:      10,
		DuelWinBonus:         30,
		DuelDrawBonus:        15,
		DuelLoseBonus:        0,
		StreakDailyThreshold: 1000,
	}, logger)
	svc := NewService(db,
		catalog.New(db, nil, time.Second, logger),
		history.NewTracker(db),
		rewards,
		DefaultOptions(),
		logger,
	)
	svc.now = func() time.Time { return t0 }
	return &fixture{db: db, svc: svc, xp: rewards}
}

// stock adds n words at level with one question each; option 1 is correct
func (f *fixture) stock(t *testing.T, prefix string, n, level int) {
	t.Helper()
	for _, w := range dbtest.Words(t, f.db, prefix, n, level) {
		dbtest.Question(t, f.db, w.ID, models.StyleMeaning)
	}
}

// play answers every remaining question of the user's match, the first
// correct ones right and the rest wrong
func (f *fixture) play(t *testing.T, userID int64, correct int) *AnswerResult {
	t.Helper()
	ctx := context.Background()
	cur, err := f.svc.NextQuestion(ctx, userID)
	require.NoError(t, err)

	var last *AnswerResult
	for i := 0; cur != nil; i++ {
		choice := 2
		if i < correct {
			choice = cur.Question.CorrectOption
		}
		last, err = f.svc.Answer(ctx, userID, cur.Slot.ID, choice)
		require.NoError(t, err)
		cur = last.Next
	}
	return last
}

func (f *fixture) assertBalanced(t *testing.T, userID int64, want int64) {
	t.Helper()
	sum, total, err := f.xp.Balance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, want, total)
	assert.Equal(t, sum, total)
}

func TestFullMatch(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "w", 8, 1)
	ctx := context.Background()
	const alice, bob = int64(1), int64(2)

	created, err := f.svc.Start(ctx, alice, models.DifficultyEasy)
	require.NoError(t, err)
	assert.False(t, created.Joined)
	assert.Equal(t, models.DuelWaiting, created.Match.Status)
	assert.Nil(t, created.Current)

	_, err = f.svc.NextQuestion(ctx, alice)
	assert.True(t, errors.Is(err, ErrWaitingForOpponent))

	joined, err := f.svc.Start(ctx, bob, models.DifficultyEasy)
	require.NoError(t, err)
	assert.True(t, joined.Joined)
	assert.Equal(t, created.Match.ID, joined.Match.ID)
	assert.Equal(t, models.DuelInProgress, joined.Match.Status)
	require.NotNil(t, joined.Current)
	assert.Equal(t, 5, joined.Current.Total)
	assert.Equal(t, 1, joined.Current.Slot.Index)

	last := f.play(t, alice, 5)
	assert.True(t, last.Waiting)
	assert.Nil(t, last.Result)

	last = f.play(t, bob, 3)
	require.NotNil(t, last.Result)
	res := last.Result

	a, b := res.For(alice), res.For(bob)
	assert.Equal(t, xp.OutcomeWin, a.Outcome)
	assert.Equal(t, 80, a.XP)
	assert.True(t, a.Credited)
	assert.Equal(t, xp.OutcomeLose, b.Outcome)
	assert.Equal(t, 30, b.XP)
	require.NotNil(t, res.Match.WinnerID)
	assert.Equal(t, alice, *res.Match.WinnerID)

	f.assertBalanced(t, alice, 80)
	f.assertBalanced(t, bob, 30)

	// later observers see the stored outcome and credit nothing
	again, err := f.svc.Finalize(ctx, res.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, again.For(alice).XP)
	assert.False(t, again.For(alice).Credited)
	assert.False(t, again.For(bob).Credited)

	st, err := f.svc.Status(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, models.DuelCompleted, st.Match.Status)
	assert.Equal(t, 3, st.Mine.Correct)
	assert.Equal(t, 5, st.Opponent.Correct)
	require.NotNil(t, st.Result)

	f.assertBalanced(t, alice, 80)
	f.assertBalanced(t, bob, 30)

	// finished players may start again
	_, err = f.svc.Start(ctx, alice, models.DifficultyEasy)
	assert.NoError(t, err)
}

func TestDraw(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "w", 5, 2)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, 1, models.DifficultyEasy)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, 2, models.DifficultyEasy)
	require.NoError(t, err)

	f.play(t, 1, 4)
	res := f.play(t, 2, 4).Result
	require.NotNil(t, res)
	assert.True(t, res.Match.IsDraw)
	assert.Nil(t, res.Match.WinnerID)
	assert.Equal(t, 55, res.For(1).XP)
	assert.Equal(t, 55, res.For(2).XP)
}

func TestStartWhileActiveRejected(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "w", 5, 1)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, 1, models.DifficultyEasy)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, 1, models.DifficultyHard)
	assert.True(t, errors.Is(err, ErrAlreadyInDuel))

	_, err = f.svc.Start(ctx, 2, models.DifficultyEasy)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, 2, models.DifficultyEasy)
	assert.True(t, errors.Is(err, ErrAlreadyInDuel))

	_, err = f.svc.Start(ctx, 3, models.DuelDifficulty("medium"))
	assert.True(t, errors.Is(err, ErrInvalidDifficulty))
}

func TestDifficultiesDoNotPair(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "w", 5, 1)
	ctx := context.Background()

	easy, err := f.svc.Start(ctx, 1, models.DifficultyEasy)
	require.NoError(t, err)
	hard, err := f.svc.Start(ctx, 2, models.DifficultyHard)
	require.NoError(t, err)
	assert.False(t, hard.Joined)
	assert.NotEqual(t, easy.Match.ID, hard.Match.ID)
}

func TestConcurrentJoinsSingleWinner(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "w", 10, 1)
	ctx := context.Background()

	open, err := f.svc.Start(ctx, 1, models.DifficultyHard)
	require.NoError(t, err)

	players := []int64{2, 3, 4, 5}
	results := make([]*StartResult, len(players))
	var wg sync.WaitGroup
	for i, p := range players {
		wg.Add(1)
		go func(i int, p int64) {
			defer wg.Done()
			res, err := f.svc.Start(ctx, p, models.DifficultyHard)
			assert.NoError(t, err)
			results[i] = res
		}(i, p)
	}
	wg.Wait()

	joinedOpen := 0
	for _, res := range results {
		require.NotNil(t, res)
		if res.Match.ID == open.Match.ID {
			joinedOpen++
		}
	}
	assert.Equal(t, 1, joinedOpen)

	m, err := database.NewDuelRepository(f.db).GetMatch(ctx, open.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DuelInProgress, m.Status)
	require.NotNil(t, m.Player2ID)
	assert.NotEqual(t, m.Player1ID, *m.Player2ID)
}

func TestConcurrentFinalizeCreditsOnce(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "w", 5, 1)
	ctx := context.Background()
	repo := database.NewDuelRepository(f.db)

	_, err := f.svc.Start(ctx, 1, models.DifficultyEasy)
	require.NoError(t, err)
	started, err := f.svc.Start(ctx, 2, models.DifficultyEasy)
	require.NoError(t, err)
	matchID := started.Match.ID

	// answers stored directly so nothing finalizes yet
	slots, err := repo.ListQuestions(ctx, matchID)
	require.NoError(t, err)
	var stmts []database.Stmt
	for i, slot := range slots {
		for _, user := range []int64{1, 2} {
			stmts = append(stmts, repo.AnswerStmt(models.DuelAnswer{
				DuelID: matchID, DuelQuestionID: slot.ID, UserID: user,
				ChosenOption: 1, IsCorrect: user == 1 || i < 3, AnsweredAt: t0,
			}))
		}
	}
	_, err = f.db.Batch(ctx, stmts...)
	require.NoError(t, err)

	const callers = 4
	results := make([]*Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Finalize(ctx, matchID)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	credits := map[int64]int{}
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, 80, res.For(1).XP)
		assert.Equal(t, 30, res.For(2).XP)
		for _, p := range res.Players {
			if p.Credited {
				credits[p.UserID]++
			}
		}
	}
	assert.Equal(t, map[int64]int{1: 1, 2: 1}, credits)
	f.assertBalanced(t, 1, 80)
	f.assertBalanced(t, 2, 30)
}

func TestAnswerRejections(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "w", 5, 1)
	ctx := context.Background()

	created, err := f.svc.Start(ctx, 1, models.DifficultyEasy)
	require.NoError(t, err)
	slots, err := database.NewDuelRepository(f.db).ListQuestions(ctx, created.Match.ID)
	require.NoError(t, err)
	require.Len(t, slots, 5)

	// nobody joined yet
	_, err = f.svc.Answer(ctx, 1, slots[0].ID, 1)
	assert.True(t, errors.Is(err, ErrMatchNotActive))

	started, err := f.svc.Start(ctx, 2, models.DifficultyEasy)
	require.NoError(t, err)
	cur := started.Current
	require.NotNil(t, cur)

	_, err = f.svc.Answer(ctx, 3, cur.Slot.ID, 1)
	assert.True(t, errors.Is(err, ErrNotParticipant))

	_, err = f.svc.Answer(ctx, 2, 9999, 1)
	assert.True(t, errors.Is(err, ErrQuestionNotFound))

	_, err = f.svc.Answer(ctx, 2, cur.Slot.ID, 5)
	assert.True(t, errors.Is(err, ErrInvalidChoice))

	res, err := f.svc.Answer(ctx, 2, cur.Slot.ID, 1)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	require.NotNil(t, res.Next)
	assert.Equal(t, 2, res.Next.Slot.Index)

	_, err = f.svc.Answer(ctx, 2, cur.Slot.ID, 2)
	assert.True(t, errors.Is(err, ErrAlreadyAnswered))

	st, err := f.svc.Status(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, database.Progress{Answered: 1, Correct: 1}, st.Mine)
	assert.Equal(t, 5, st.Total)

	_, err = f.svc.Finalize(ctx, created.Match.ID)
	assert.True(t, errors.Is(err, ErrStillWaiting))
}

func TestShortCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// no words at all
	_, err := f.svc.Start(ctx, 1, models.DifficultyEasy)
	assert.True(t, errors.Is(err, ErrNoQuestions))
	_, err = f.svc.Status(ctx, 1)
	assert.True(t, errors.Is(err, ErrNoMatch))

	// level 3 words only count for hard duels; a word without questions is skipped
	f.stock(t, "h", 3, 3)
	dbtest.Word(t, f.db, "bare", 3)

	_, err = f.svc.Start(ctx, 1, models.DifficultyEasy)
	assert.True(t, errors.Is(err, ErrNoQuestions))

	_, err = f.svc.Start(ctx, 1, models.DifficultyHard)
	require.NoError(t, err)
	started, err := f.svc.Start(ctx, 2, models.DifficultyHard)
	require.NoError(t, err)
	assert.Equal(t, 3, started.Current.Total)
}

func TestSweep(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "w", 5, 1)
	ctx := context.Background()

	running, err := f.svc.Start(ctx, 1, models.DifficultyEasy)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, 2, models.DifficultyEasy)
	require.NoError(t, err)
	waiting, err := f.svc.Start(ctx, 3, models.DifficultyHard)
	require.NoError(t, err)

	// nothing is old enough yet
	res, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)

	f.svc.now = func() time.Time { return t0.Add(73 * time.Hour) }
	res, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Expired: 1, Deleted: 1}, res)

	repo := database.NewDuelRepository(f.db)
	m, err := repo.GetMatch(ctx, running.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DuelExpired, m.Status)

	_, err = repo.GetMatch(ctx, waiting.Match.ID)
	assert.True(t, errors.Is(err, database.ErrNotFound))
	n, err := repo.CountQuestions(ctx, waiting.Match.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.svc.NextQuestion(ctx, 2)
	assert.True(t, errors.Is(err, ErrNoActiveMatch))
	_, err = f.svc.Finalize(ctx, running.Match.ID)
	assert.True(t, errors.Is(err, ErrMatchNotActive))
}

func TestConcurrentAllocationSingleDraw(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "w", 12, 1)
	ctx := context.Background()
	repo := database.NewDuelRepository(f.db)

	id, err := repo.CreateWaiting(ctx, 1, models.DifficultyEasy, t0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	counts := make([]int, 4)
	errs := make([]error, 4)
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i], errs[i] = f.svc.allocate(ctx, id)
		}(i)
	}
	wg.Wait()

	for i := range counts {
		require.NoError(t, errs[i])
		assert.Equal(t, 5, counts[i])
	}

	qs, err := repo.ListQuestions(ctx, id)
	require.NoError(t, err)
	require.Len(t, qs, 5)
	words := map[int64]bool{}
	for i, q := range qs {
		assert.Equal(t, i+1, q.Index)
		words[q.WordID] = true
	}
	assert.Len(t, words, 5, "slots come from a single draw")

	_, err = f.db.Batch(ctx, repo.ClaimQuestionsStmt(id))
	assert.True(t, errors.Is(err, database.ErrBatchConflict))
}
