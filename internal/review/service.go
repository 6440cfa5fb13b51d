// Package review serves spaced-repetition review items and applies answers.
package review

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/example/wordduel/internal/apperr"
	"github.com/example/wordduel/internal/catalog"
	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/history"
	"github.com/example/wordduel/internal/metrics"
	"github.com/example/wordduel/internal/observability"
	"github.com/example/wordduel/internal/spaced_repetition"
	"github.com/example/wordduel/internal/xp"
	"github.com/example/wordduel/pkg/models"
)

var (
	// ErrNothingToReview is returned when the catalog is empty or fully ignored
	ErrNothingToReview = apperr.New(apperr.CodeNotFound, "no words to review")
	// ErrInvalidChoice is returned for a choice outside 1-4
	ErrInvalidChoice = apperr.New(apperr.CodeInvalidArgument, "invalid choice")
)

// Item is the question to show next
type Item struct {
	Word         models.Word
	Question     models.Question
	State        models.ReviewState
	WordTier     database.PickTier
	QuestionTier catalog.Tier
}

// AnswerResult is the outcome of a review answer
type AnswerResult struct {
	Correct       bool
	CorrectOption int
	Question      models.Question
	State         models.ReviewState
	XPAwarded     int
	Streak        xp.StreakResult
}

// Service runs the review flow
type Service struct {
	db       *database.DB
	states   *database.ReviewStateRepository
	stats    *database.StatisticsRepository
	ledger   *database.LedgerRepository
	catalog  *catalog.Catalog
	selector *catalog.Selector
	history  *history.Tracker
	xp       *xp.Service
	sm2      *spaced_repetition.SM2
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the review flow
func NewService(db *database.DB, cat *catalog.Catalog, sel *catalog.Selector, tracker *history.Tracker, rewards *xp.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       db,
		states:   database.NewReviewStateRepository(db),
		stats:    database.NewStatisticsRepository(db),
		ledger:   database.NewLedgerRepository(db),
		catalog:  cat,
		selector: sel,
		history:  tracker,
		xp:       rewards,
		sm2:      spaced_repetition.NewSM2(),
		logger:   logger,
		now:      time.Now,
	}
}

// recentCredits is how many ledger entries Stats returns
const recentCredits = 5

// generateBudget bounds how many picked words may trigger question
// generation within one NextItem call
const generateBudget = 3

// NextItem picks the next word for the user, tops up its question stock and
// selects the question to show. A word left without questions is passed over
// for the next candidate in the same order. The shown record is written
// before return.
func (s *Service) NextItem(ctx context.Context, userID int64) (*Item, error) {
	now := s.now()
	today := spaced_repetition.Today(now)

	var skipped []int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wordID, wordTier, err := s.states.PickWord(ctx, userID, today, skipped...)
		if errors.Is(err, database.ErrNotFound) {
			if len(skipped) > 0 {
				return nil, catalog.ErrNoQuestions
			}
			return nil, ErrNothingToReview
		}
		if err != nil {
			return nil, apperr.Internal("failed to pick word", err)
		}

		word, err := s.catalog.Word(ctx, wordID)
		if err != nil {
			return nil, err
		}
		if len(skipped) < generateBudget {
			s.catalog.EnsureStock(ctx, *word)
		}

		state, err := s.state(ctx, userID, word.ID, today)
		if err != nil {
			return nil, err
		}

		q, qTier, err := s.selector.Select(ctx, userID, word.ID, state.Stage)
		if errors.Is(err, catalog.ErrNoQuestions) {
			s.logger.Debug("word has no questions, trying the next one",
				observability.LogFieldUserID, userID,
				observability.LogFieldWordID, word.ID)
			skipped = append(skipped, word.ID)
			continue
		}
		if err != nil {
			return nil, err
		}

		_, err = s.db.Batch(ctx,
			s.states.InsertDefaultStmt(state),
			s.history.ShownStmt(userID, word.ID, q.ID, models.ContextReview, now),
		)
		if err != nil {
			return nil, apperr.Internal("failed to record shown question", err)
		}

		metrics.ReviewItemsServedTotal.WithLabelValues(string(qTier)).Inc()
		s.logger.Debug("review item served",
			observability.LogFieldUserID, userID,
			observability.LogFieldWordID, word.ID,
			"question_id", q.ID, "word_tier", wordTier.String(), "question_tier", qTier,
			"skipped", len(skipped))

		return &Item{Word: *word, Question: *q, State: state, WordTier: wordTier, QuestionTier: qTier}, nil
	}
}

// Answer applies the user's choice for a shown review question. State,
// history and reward are written in one batch; a repeated answer reports
// ALREADY_DONE and changes nothing.
func (s *Service) Answer(ctx context.Context, userID, questionID int64, choice int) (*AnswerResult, error) {
	if !models.ValidChoice(choice) {
		return nil, ErrInvalidChoice
	}
	q, err := s.catalog.Question(ctx, questionID)
	if err != nil {
		return nil, err
	}
	rec, err := s.history.Get(ctx, userID, q.ID, models.ContextReview)
	if err != nil {
		return nil, err
	}
	if rec.Answered() {
		return nil, history.ErrAlreadyAnswered
	}

	now := s.now()
	state, err := s.state(ctx, userID, q.WordID, spaced_repetition.Today(now))
	if err != nil {
		return nil, err
	}

	correct := q.IsCorrect(choice)
	next := s.sm2.RecordAnswer(state, correct, now)

	stmts := []database.Stmt{
		s.history.AnsweredStmt(userID, q.ID, models.ContextReview, correct, now),
		s.states.InsertDefaultStmt(state),
		s.states.UpdateStmt(next),
	}

	var reward xp.Reward
	if correct {
		reward = xp.Reward{
			UserID:   userID,
			Activity: models.ActivityReviewAnswer,
			RefID:    rec.ID,
			Delta:    s.xp.Config().ReviewCorrect,
			Metadata: map[string]interface{}{"word_id": q.WordID, "question_id": q.ID, "style": q.Style},
			At:       now,
		}
		stmts = append(stmts, s.xp.RewardStmts(reward)...)
	}

	affected, err := s.db.Batch(ctx, stmts...)
	if err != nil {
		var conflict *database.ConflictError
		if errors.As(err, &conflict) && conflict.Index == 0 {
			return nil, s.history.Classify(ctx, userID, q.ID, models.ContextReview)
		}
		return nil, apperr.Internal("failed to apply review answer", err)
	}

	result := &AnswerResult{
		Correct:       correct,
		CorrectOption: q.CorrectOption,
		Question:      *q,
		State:         next,
	}
	metrics.ReviewAnswersTotal.WithLabelValues(strconv.FormatBool(correct)).Inc()

	if correct {
		credited := xp.Credited(affected, 3)
		s.xp.Observe(reward, credited)
		if credited {
			result.XPAwarded = reward.Delta
		}
		result.Streak, err = s.xp.CheckStreak(ctx, userID, now)
		if err != nil {
			s.logger.Warn("streak check failed", observability.LogFieldUserID, userID, "error", err)
		}
	}
	return result, nil
}

// Ignore removes a word from the user's rotation. There is no way back.
func (s *Service) Ignore(ctx context.Context, userID, wordID int64) error {
	word, err := s.catalog.Word(ctx, wordID)
	if err != nil {
		return err
	}
	st := models.NewReviewState(userID, word.ID, spaced_repetition.Today(s.now()))
	if _, err := s.db.Batch(ctx, s.states.IgnoreStmt(st)); err != nil {
		return apperr.Internal("failed to ignore word", err)
	}
	return nil
}

// Stats returns the user's progress summary
func (s *Service) Stats(ctx context.Context, userID int64) (*models.Statistics, error) {
	now := s.now()
	_, start, end := xp.LocalDay(now, s.xp.Config().StreakUTCOffset)
	stats, err := s.stats.GetUserStatistics(ctx, userID, spaced_repetition.Today(now), start, end)
	if err != nil {
		return nil, err
	}
	stats.Recent, err = s.ledger.ListByUser(ctx, userID, recentCredits)
	if err != nil {
		return nil, apperr.Internal("failed to load recent credits", err)
	}
	return stats, nil
}

// state loads the stored state or the default one for a first encounter
func (s *Service) state(ctx context.Context, userID, wordID int64, today string) (models.ReviewState, error) {
	st, err := s.states.Get(ctx, userID, wordID)
	if errors.Is(err, database.ErrNotFound) {
		return models.NewReviewState(userID, wordID, today), nil
	}
	if err != nil {
		return models.ReviewState{}, apperr.Internal("failed to load review state", err)
	}
	return *st, nil
}
