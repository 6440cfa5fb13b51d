package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/wordduel/pkg/models"
)

// WordInfo is what a generator knows about the word
type WordInfo struct {
	Text        string
	Translation string
	Level       int
	Synonyms    []string
	Antonyms    []string
}

// Request asks for Count questions of one style about a word
type Request struct {
	Word  WordInfo
	Style models.QuestionStyle
	Count int
}

// RequestFor builds a generation request for word
func RequestFor(word models.Word, style models.QuestionStyle, count int) Request {
	return Request{
		Word: WordInfo{
			Text:        word.EnglishWord,
			Translation: word.Translation,
			Level:       word.Level,
			Synonyms:    word.SynonymList(),
			Antonyms:    word.AntonymList(),
		},
		Style: style,
		Count: count,
	}
}

// Generated is one question returned by a generator
type Generated struct {
	Prompt        string                     `json:"prompt"`
	Options       [models.OptionCount]string `json:"options"`
	CorrectOption int                        `json:"correct_option"` // 1-4
	Explanation   string                     `json:"explanation"`
}

// Generator produces multiple-choice questions. It may return fewer than
// the requested count, including none.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Generated, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, req Request) ([]Generated, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, req Request) ([]Generated, error) {
	return f(ctx, req)
}

var errNoGenerator = errors.New("no question generator configured")

// Validate checks a generated question before it is stocked
func (g Generated) Validate() error {
	if strings.TrimSpace(g.Prompt) == "" {
		return errors.New("empty prompt")
	}
	if !models.ValidChoice(g.CorrectOption) {
		return fmt.Errorf("correct option %d out of range", g.CorrectOption)
	}
	seen := make(map[string]bool, models.OptionCount)
	for i, opt := range g.Options {
		key := strings.ToLower(strings.TrimSpace(opt))
		if key == "" {
			return fmt.Errorf("option %d is empty", i+1)
		}
		if seen[key] {
			return fmt.Errorf("option %d duplicates another option", i+1)
		}
		seen[key] = true
	}
	return nil
}

// Question converts a generated question for storage
func (g Generated) Question(wordID int64, style models.QuestionStyle) models.Question {
	return models.Question{
		WordID:        wordID,
		Prompt:        strings.TrimSpace(g.Prompt),
		Option1:       strings.TrimSpace(g.Options[0]),
		Option2:       strings.TrimSpace(g.Options[1]),
		Option3:       strings.TrimSpace(g.Options[2]),
		Option4:       strings.TrimSpace(g.Options[3]),
		CorrectOption: g.CorrectOption,
		Explanation:   strings.TrimSpace(g.Explanation),
		Style:         style,
	}
}
