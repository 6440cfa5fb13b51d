// Package duel pairs learners into head-to-head matches over a shared
// question set and settles the result through the XP ledger.
package duel

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/example/wordduel/internal/apperr"
	"github.com/example/wordduel/internal/catalog"
	"github.com/example/wordduel/internal/config"
	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/history"
	"github.com/example/wordduel/internal/metrics"
	"github.com/example/wordduel/internal/observability"
	"github.com/example/wordduel/internal/xp"
	"github.com/example/wordduel/pkg/models"
)

var (
	ErrInvalidDifficulty  = apperr.New(apperr.CodeInvalidArgument, "unknown duel difficulty")
	ErrInvalidChoice      = apperr.New(apperr.CodeInvalidArgument, "invalid choice")
	ErrAlreadyInDuel      = apperr.New(apperr.CodeConflict, "already in a duel")
	ErrNoActiveMatch      = apperr.New(apperr.CodeNotFound, "no active duel")
	ErrNoMatch            = apperr.New(apperr.CodeNotFound, "no duels yet")
	ErrMatchNotFound      = apperr.New(apperr.CodeNotFound, "duel not found")
	ErrQuestionNotFound   = apperr.New(apperr.CodeNotFound, "duel question not found")
	ErrNotParticipant     = apperr.New(apperr.CodeConflict, "not a participant of this duel")
	ErrMatchNotActive     = apperr.New(apperr.CodeConflict, "duel is not in progress")
	ErrWaitingForOpponent = apperr.New(apperr.CodeConflict, "waiting for an opponent")
	ErrStillWaiting       = apperr.New(apperr.CodeConflict, "opponent has not finished yet")
	ErrAlreadyAnswered    = apperr.New(apperr.CodeAlreadyDone, "duel question already answered")
	ErrNoQuestions        = apperr.New(apperr.CodeUnavailable, "not enough questions for a duel")
)

// Options tune matchmaking and cleanup
type Options struct {
	QuestionsPerMatch int
	JoinAttempts      int
	StaleAfter        time.Duration
	WaitingTTL        time.Duration
}

// DefaultOptions returns five questions per match, three join attempts and
// the 24h/72h cleanup windows
func DefaultOptions() Options {
	return Options{
		QuestionsPerMatch: 5,
		JoinAttempts:      3,
		StaleAfter:        24 * time.Hour,
		WaitingTTL:        72 * time.Hour,
	}
}

// OptionsFrom reads the cleanup windows from cfg
func OptionsFrom(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg.DuelStaleAfter > 0 {
		opts.StaleAfter = cfg.DuelStaleAfter
	}
	if cfg.DuelWaitingTTL > 0 {
		opts.WaitingTTL = cfg.DuelWaitingTTL
	}
	return opts
}

// Current is the next duel question for a player
type Current struct {
	Match    models.DuelMatch
	Slot     models.DuelQuestion
	Question models.Question
	Total    int
}

// StartResult is the match a start request ended up in
type StartResult struct {
	Match   models.DuelMatch
	Joined  bool
	Current *Current // set when the match started right away
}

// AnswerResult is the outcome of one duel answer. Exactly one of Next,
// Result or Waiting describes what comes after it.
type AnswerResult struct {
	Correct       bool
	CorrectOption int
	Question      models.Question
	Next          *Current
	Result        *Result
	Waiting       bool
}

// Service runs matchmaking, answering and settlement
type Service struct {
	db      *database.DB
	repo    *database.DuelRepository
	catalog *catalog.Catalog
	history *history.Tracker
	xp      *xp.Service
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
	perm    func(n int) []int
}

// NewService wires the duel flow
func NewService(db *database.DB, cat *catalog.Catalog, tracker *history.Tracker, rewards *xp.Service, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.QuestionsPerMatch <= 0 {
		opts.QuestionsPerMatch = def.QuestionsPerMatch
	}
	if opts.JoinAttempts <= 0 {
		opts.JoinAttempts = def.JoinAttempts
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = def.StaleAfter
	}
	if opts.WaitingTTL <= 0 {
		opts.WaitingTTL = def.WaitingTTL
	}
	return &Service{
		db:      db,
		repo:    database.NewDuelRepository(db),
		catalog: cat,
		history: tracker,
		xp:      rewards,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		perm:    rand.Perm,
	}
}

// Start joins the oldest open match of the difficulty or opens a new one.
// A user with a waiting or running match is rejected.
func (s *Service) Start(ctx context.Context, userID int64, difficulty models.DuelDifficulty) (*StartResult, error) {
	if !difficulty.Valid() {
		return nil, ErrInvalidDifficulty
	}
	_, err := s.repo.ActiveForUser(ctx, userID)
	if err == nil {
		metrics.DuelStartsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrAlreadyInDuel
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, apperr.Internal("failed to check active duel", err)
	}

	for attempt := 0; attempt < s.opts.JoinAttempts; attempt++ {
		open, err := s.repo.OldestWaiting(ctx, difficulty, userID)
		if errors.Is(err, database.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, apperr.Internal("failed to find open duel", err)
		}

		joined, err := s.repo.Join(ctx, open.ID, userID, s.now())
		if err != nil {
			return nil, apperr.Internal("failed to join duel", err)
		}
		if !joined {
			metrics.DuelJoinConflictsTotal.Inc()
			continue
		}
		return s.started(ctx, open.ID, userID)
	}

	return s.open(ctx, userID, difficulty)
}

// started finishes a successful join
func (s *Service) started(ctx context.Context, matchID, userID int64) (*StartResult, error) {
	n, err := s.allocate(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if _, err := s.db.Batch(ctx, s.repo.DeleteStmts(matchID)...); err != nil {
			return nil, apperr.Internal("failed to drop empty duel", err)
		}
		metrics.DuelStartsTotal.WithLabelValues("no_questions").Inc()
		return nil, ErrNoQuestions
	}

	m, err := s.match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	cur, err := s.serve(ctx, *m, userID)
	if err != nil {
		return nil, err
	}
	metrics.DuelStartsTotal.WithLabelValues("joined").Inc()
	s.logger.Info("duel started",
		observability.LogFieldMatchID, m.ID,
		observability.LogFieldUserID, userID,
		"opponent", m.Player1ID, "questions", n)
	return &StartResult{Match: *m, Joined: true, Current: cur}, nil
}

// open creates a waiting match and allocates its question set
func (s *Service) open(ctx context.Context, userID int64, difficulty models.DuelDifficulty) (*StartResult, error) {
	id, err := s.repo.CreateWaiting(ctx, userID, difficulty, s.now())
	if err != nil {
		return nil, apperr.Internal("failed to create duel", err)
	}

	n, err := s.allocate(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		_, err := s.db.Batch(ctx, s.repo.DeleteWaitingStmts(id)...)
		if err == nil {
			metrics.DuelStartsTotal.WithLabelValues("no_questions").Inc()
			return nil, ErrNoQuestions
		}
		// someone joined in the meantime and allocated for both
		if !errors.Is(err, database.ErrBatchConflict) {
			return nil, apperr.Internal("failed to drop empty duel", err)
		}
	}

	m, err := s.match(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.DuelStartsTotal.WithLabelValues("created").Inc()
	s.logger.Info("duel created",
		observability.LogFieldMatchID, id,
		observability.LogFieldUserID, userID,
		"difficulty", difficulty, "questions", n)
	return &StartResult{Match: *m}, nil
}

// allocate fills the match's question slots once. Words without any
// question are skipped without using up a slot. The insert batch starts by
// claiming the match, so of two concurrent allocations only one draw lands.
func (s *Service) allocate(ctx context.Context, matchID int64) (int, error) {
	existing, err := s.repo.CountQuestions(ctx, matchID)
	if err != nil {
		return 0, apperr.Internal("failed to count duel questions", err)
	}
	if existing > 0 {
		return existing, nil
	}

	m, err := s.match(ctx, matchID)
	if err != nil {
		return 0, err
	}
	lo, hi := m.Difficulty.LevelRange()
	ids, err := s.catalog.WordIDsInLevelRange(ctx, lo, hi)
	if err != nil {
		return 0, err
	}

	stmts := []database.Stmt{s.repo.ClaimQuestionsStmt(matchID)}
	for _, i := range s.perm(len(ids)) {
		if len(stmts)-1 == s.opts.QuestionsPerMatch {
			break
		}
		word, err := s.catalog.Word(ctx, ids[i])
		if err != nil {
			continue
		}
		q, err := s.catalog.AnyQuestion(ctx, *word)
		if err != nil {
			s.logger.Debug("word skipped for duel",
				observability.LogFieldMatchID, matchID,
				observability.LogFieldWordID, word.ID, "error", err)
			continue
		}
		stmts = append(stmts, s.repo.InsertQuestionStmt(matchID, len(stmts), word.ID, q.ID))
	}
	if len(stmts) == 1 {
		return s.repo.CountQuestions(ctx, matchID)
	}
	_, err = s.db.Batch(ctx, stmts...)
	if errors.Is(err, database.ErrBatchConflict) {
		s.logger.Debug("duel questions allocated concurrently", observability.LogFieldMatchID, matchID)
	} else if err != nil {
		return 0, apperr.Internal("failed to allocate duel questions", err)
	}
	return s.repo.CountQuestions(ctx, matchID)
}

// NextQuestion returns the user's next unanswered question in their running
// match, or nil when they answered everything
func (s *Service) NextQuestion(ctx context.Context, userID int64) (*Current, error) {
	m, err := s.repo.ActiveForUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNoActiveMatch
	}
	if err != nil {
		return nil, apperr.Internal("failed to load active duel", err)
	}
	if m.Status == models.DuelWaiting {
		return nil, ErrWaitingForOpponent
	}
	return s.serve(ctx, *m, userID)
}

// serve loads the next unanswered slot and records it as shown
func (s *Service) serve(ctx context.Context, m models.DuelMatch, userID int64) (*Current, error) {
	slot, err := s.repo.NextUnanswered(ctx, m.ID, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("failed to load duel question", err)
	}
	q, err := s.catalog.Question(ctx, slot.QuestionID)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountQuestions(ctx, m.ID)
	if err != nil {
		return nil, apperr.Internal("failed to count duel questions", err)
	}
	if err := s.history.MarkShown(ctx, userID, slot.WordID, q.ID, models.ContextDuel, s.now()); err != nil {
		return nil, apperr.Internal("failed to record shown question", err)
	}
	return &Current{Match: m, Slot: *slot, Question: *q, Total: total}, nil
}

// Answer records the user's choice for a duel question, then serves the
// next question or finalizes once the user has answered all of them
func (s *Service) Answer(ctx context.Context, userID, duelQuestionID int64, choice int) (*AnswerResult, error) {
	if !models.ValidChoice(choice) {
		return nil, ErrInvalidChoice
	}
	slot, err := s.repo.GetQuestion(ctx, duelQuestionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, apperr.Internal("failed to load duel question", err)
	}
	m, err := s.match(ctx, slot.DuelID)
	if err != nil {
		return nil, err
	}
	if !m.HasPlayer(userID) {
		return nil, ErrNotParticipant
	}
	if m.Status != models.DuelInProgress {
		return nil, ErrMatchNotActive
	}
	done, err := s.repo.HasAnswered(ctx, slot.ID, userID)
	if err != nil {
		return nil, apperr.Internal("failed to check duel answer", err)
	}
	if done {
		return nil, ErrAlreadyAnswered
	}
	q, err := s.catalog.Question(ctx, slot.QuestionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	correct := q.IsCorrect(choice)
	answered := s.history.AnsweredStmt(userID, q.ID, models.ContextDuel, correct, now)
	answered.MustAffect = false

	_, err = s.db.Batch(ctx,
		s.repo.InProgressGuardStmt(m.ID),
		s.repo.AnswerStmt(models.DuelAnswer{
			DuelID:         m.ID,
			DuelQuestionID: slot.ID,
			UserID:         userID,
			ChosenOption:   choice,
			IsCorrect:      correct,
			AnsweredAt:     now,
		}),
		s.history.ShownStmt(userID, slot.WordID, q.ID, models.ContextDuel, now),
		answered,
	)
	if err != nil {
		var conflict *database.ConflictError
		if errors.As(err, &conflict) {
			if conflict.Index == 0 {
				return nil, ErrMatchNotActive
			}
			return nil, ErrAlreadyAnswered
		}
		return nil, apperr.Internal("failed to store duel answer", err)
	}

	result := &AnswerResult{Correct: correct, CorrectOption: q.CorrectOption, Question: *q}

	result.Next, err = s.serve(ctx, *m, userID)
	if err != nil {
		return nil, err
	}
	if result.Next != nil {
		return result, nil
	}

	result.Result, err = s.Finalize(ctx, m.ID)
	if errors.Is(err, ErrStillWaiting) {
		result.Waiting = true
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Finalize completes a match once both players answered every question and
// credits both of them. Calling it again, or after another caller won the
// race, returns the stored outcome without crediting twice.
func (s *Service) Finalize(ctx context.Context, matchID int64) (*Result, error) {
	m, err := s.match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status == models.DuelCompleted {
		return s.settle(ctx, *m)
	}
	if m.Status != models.DuelInProgress || m.Player2ID == nil {
		return nil, ErrMatchNotActive
	}

	total, err := s.repo.CountQuestions(ctx, m.ID)
	if err != nil {
		return nil, apperr.Internal("failed to count duel questions", err)
	}
	p1, err := s.repo.ProgressFor(ctx, m.ID, m.Player1ID)
	if err != nil {
		return nil, apperr.Internal("failed to load duel progress", err)
	}
	p2, err := s.repo.ProgressFor(ctx, m.ID, *m.Player2ID)
	if err != nil {
		return nil, apperr.Internal("failed to load duel progress", err)
	}
	if p1.Answered < total || p2.Answered < total {
		return nil, ErrStillWaiting
	}

	decided := decide(*m, p1.Correct, p2.Correct)
	res := s.result(decided, total)
	now := s.now()
	rewards := res.rewards(now)

	stmts := []database.Stmt{s.repo.FinalizeStmt(decided, now)}
	for _, r := range rewards {
		stmts = append(stmts, s.xp.RewardStmts(r)...)
	}
	affected, err := s.db.Batch(ctx, stmts...)
	if errors.Is(err, database.ErrBatchConflict) {
		stored, err := s.match(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if stored.Status != models.DuelCompleted {
			return nil, ErrMatchNotActive
		}
		return s.settle(ctx, *stored)
	}
	if err != nil {
		return nil, apperr.Internal("failed to finalize duel", err)
	}

	for i, r := range rewards {
		credited := xp.Credited(affected, 1+3*i)
		s.xp.Observe(r, credited)
		res.Players[i].Credited = credited
	}
	s.checkStreaks(ctx, res, now)

	label := "win"
	if decided.IsDraw {
		label = "draw"
	}
	metrics.DuelFinalizedTotal.WithLabelValues(label).Inc()
	s.logger.Info("duel finalized",
		observability.LogFieldMatchID, m.ID,
		"player1_correct", decided.Player1Correct,
		"player2_correct", decided.Player2Correct,
		"draw", decided.IsDraw)
	return res, nil
}

// settle credits both players of a completed match from its stored outcome.
// Players already credited are left alone.
func (s *Service) settle(ctx context.Context, m models.DuelMatch) (*Result, error) {
	total, err := s.repo.CountQuestions(ctx, m.ID)
	if err != nil {
		return nil, apperr.Internal("failed to count duel questions", err)
	}
	res := s.result(m, total)
	now := s.now()
	for i, r := range res.rewards(now) {
		credited, err := s.xp.Award(ctx, r)
		if err != nil {
			return nil, apperr.Internal("failed to settle duel", err)
		}
		res.Players[i].Credited = credited
	}
	s.checkStreaks(ctx, res, now)
	return res, nil
}

func (s *Service) checkStreaks(ctx context.Context, res *Result, at time.Time) {
	for i := range res.Players {
		p := &res.Players[i]
		if !p.Credited {
			continue
		}
		streak, err := s.xp.CheckStreak(ctx, p.UserID, at)
		if err != nil {
			s.logger.Warn("streak check failed",
				observability.LogFieldUserID, p.UserID,
				observability.LogFieldMatchID, res.Match.ID, "error", err)
			continue
		}
		p.Streak = streak
	}
}

// Status is a player's view of their latest match
type Status struct {
	Match    models.DuelMatch
	Total    int
	Mine     database.Progress
	Opponent database.Progress
	Result   *Result // set for completed matches
}

// Status returns the user's latest match with both players' progress.
// Looking at a completed match settles it if that has not happened yet.
func (s *Service) Status(ctx context.Context, userID int64) (*Status, error) {
	m, err := s.repo.LatestForUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, apperr.Internal("failed to load duel", err)
	}

	st := &Status{Match: *m}
	if st.Total, err = s.repo.CountQuestions(ctx, m.ID); err != nil {
		return nil, apperr.Internal("failed to count duel questions", err)
	}
	if st.Mine, err = s.repo.ProgressFor(ctx, m.ID, userID); err != nil {
		return nil, apperr.Internal("failed to load duel progress", err)
	}
	if opp := m.Opponent(userID); opp != 0 {
		if st.Opponent, err = s.repo.ProgressFor(ctx, m.ID, opp); err != nil {
			return nil, apperr.Internal("failed to load duel progress", err)
		}
	}
	if m.Status == models.DuelCompleted {
		if st.Result, err = s.settle(ctx, *m); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *Service) match(ctx context.Context, id int64) (*models.DuelMatch, error) {
	m, err := s.repo.GetMatch(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, apperr.Internal("failed to load duel", err)
	}
	return m, nil
}
