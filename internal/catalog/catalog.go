// Package catalog owns vocabulary words and their generated questions: it
// keeps each word stocked per style and picks the question to show next.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/example/wordduel/internal/apperr"
	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/metrics"
	"github.com/example/wordduel/internal/observability"
	"github.com/example/wordduel/pkg/models"
)

var (
	// ErrWordNotFound is returned for an unknown word
	ErrWordNotFound = apperr.New(apperr.CodeNotFound, "word not found")
	// ErrQuestionNotFound is returned for an unknown question
	ErrQuestionNotFound = apperr.New(apperr.CodeNotFound, "question not found")
	// ErrNoQuestions is returned when a word has no question and none could
	// be generated
	ErrNoQuestions = apperr.New(apperr.CodeUnavailable, "no questions available")
)

// Catalog reads words and questions and grows the question stock on demand
type Catalog struct {
	words     *database.WordRepository
	questions *database.QuestionRepository
	gen       Generator
	timeout   time.Duration
	logger    *slog.Logger
	intn      func(n int) int
}

// New creates a catalog. gen may be nil, in which case no questions are
// generated.
func New(db *database.DB, gen Generator, timeout time.Duration, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Catalog{
		words:     database.NewWordRepository(db),
		questions: database.NewQuestionRepository(db),
		gen:       gen,
		timeout:   timeout,
		logger:    logger,
		intn:      rand.Intn,
	}
}

// Word returns an active or inactive word by ID
func (c *Catalog) Word(ctx context.Context, id int64) (*models.Word, error) {
	w, err := c.words.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrWordNotFound
	}
	return w, err
}

// Question returns a question by ID
func (c *Catalog) Question(ctx context.Context, id int64) (*models.Question, error) {
	q, err := c.questions.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	return q, err
}

// WordIDsInLevelRange lists active words for duel allocation
func (c *Catalog) WordIDsInLevelRange(ctx context.Context, lo, hi int) ([]int64, error) {
	return c.words.ListIDsInLevelRange(ctx, lo, hi)
}

// EnsureStock issues at most one generation request for the word's first
// under-stocked style and returns how many questions were added. Failures
// are logged and absorbed.
func (c *Catalog) EnsureStock(ctx context.Context, word models.Word) int {
	counts, err := c.questions.CountByStyle(ctx, word.ID)
	if err != nil {
		c.logger.Warn("failed to count question stock",
			observability.LogFieldWordID, word.ID, "error", err)
		return 0
	}
	style, missing, ok := NextDeficit(word, counts)
	if !ok {
		return 0
	}
	added, err := c.Generate(ctx, word, style, missing)
	if err != nil {
		c.logger.Warn("question generation failed",
			observability.LogFieldWordID, word.ID, "style", style, "error", err)
	}
	return added
}

// Generate requests count questions of style for word and appends the valid
// ones. The request is bounded by the catalog timeout.
func (c *Catalog) Generate(ctx context.Context, word models.Word, style models.QuestionStyle, count int) (int, error) {
	if c.gen == nil {
		return 0, errNoGenerator
	}
	if count <= 0 {
		return 0, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	generated, err := c.gen.Generate(genCtx, RequestFor(word, style, count))
	metrics.GenerationDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		result := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			result = "timeout"
		}
		metrics.GenerationRequestsTotal.WithLabelValues(result).Inc()
		return 0, fmt.Errorf("generate %s questions for %q: %w", style, word.EnglishWord, err)
	}
	metrics.GenerationRequestsTotal.WithLabelValues("ok").Inc()

	if len(generated) > count {
		generated = generated[:count]
	}
	added := 0
	for _, g := range generated {
		if err := g.Validate(); err != nil {
			c.logger.Debug("dropping invalid generated question",
				observability.LogFieldWordID, word.ID, "error", err)
			continue
		}
		q := g.Question(word.ID, style)
		if err := c.questions.Create(ctx, &q); err != nil {
			return added, err
		}
		added++
	}
	metrics.QuestionsGeneratedTotal.Add(float64(added))
	return added, nil
}

// AnyQuestion returns a random question of any style for word, generating
// one when the word has none
func (c *Catalog) AnyQuestion(ctx context.Context, word models.Word) (*models.Question, error) {
	qs, err := c.questions.ListByWord(ctx, word.ID)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		style, _, ok := NextDeficit(word, nil)
		if !ok {
			style = models.StyleMeaning
		}
		if _, err := c.Generate(ctx, word, style, 1); err != nil {
			c.logger.Warn("question generation failed",
				observability.LogFieldWordID, word.ID, "style", style, "error", err)
		}
		if qs, err = c.questions.ListByWord(ctx, word.ID); err != nil {
			return nil, err
		}
	}
	if len(qs) == 0 {
		return nil, ErrNoQuestions
	}
	q := qs[c.intn(len(qs))]
	return &q, nil
}
