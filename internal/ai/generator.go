// Package ai implements question generation on top of chat completion APIs
// and an offline generator built from the catalog itself.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/wordduel/internal/catalog"
	"github.com/example/wordduel/internal/config"
	"github.com/example/wordduel/internal/database"
)

// Completer is a chat model reduced to one system and one user message
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// QuestionGenerator asks a chat model for questions. Requests wait on a
// shared rate limiter and give up when the context ends.
type QuestionGenerator struct {
	llm     Completer
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewQuestionGenerator wraps llm. perMinute <= 0 disables the limit.
func NewQuestionGenerator(llm Completer, perMinute int, logger *slog.Logger) *QuestionGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	burst := 1
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
		burst = perMinute / 10
		if burst < 1 {
			burst = 1
		}
	}
	return &QuestionGenerator{
		llm:     llm,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Generate implements catalog.Generator
func (g *QuestionGenerator) Generate(ctx context.Context, req catalog.Request) ([]catalog.Generated, error) {
	if req.Count <= 0 {
		return nil, nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limited: %w", err)
	}

	reply, err := g.llm.Complete(ctx, systemPrompt, userPrompt(req))
	if err != nil {
		return nil, err
	}
	questions, err := parseQuestions(reply)
	if err != nil {
		return nil, err
	}
	if len(questions) > req.Count {
		questions = questions[:req.Count]
	}
	g.logger.Debug("questions generated", "word", req.Word.Text, "style", req.Style, "count", len(questions))
	return questions, nil
}

// NewGenerator builds the generator selected by AI_PROVIDER
func NewGenerator(cfg *config.Config, db *database.DB, logger *slog.Logger) (catalog.Generator, error) {
	switch cfg.AIProvider {
	case "openai":
		llm, err := NewChatGPT(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return NewQuestionGenerator(llm, cfg.GenerationRatePerMin, logger), nil
	case "anthropic":
		llm, err := NewClaude(cfg.AnthropicKey, cfg.AnthropicModel)
		if err != nil {
			return nil, err
		}
		return NewQuestionGenerator(llm, cfg.GenerationRatePerMin, logger), nil
	case "local":
		return NewLocalGenerator(database.NewWordRepository(db)), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}
