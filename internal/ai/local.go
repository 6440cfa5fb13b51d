package ai

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/example/wordduel/internal/catalog"
	"github.com/example/wordduel/pkg/models"
)

// WordLister lists the active catalog
type WordLister interface {
	ListActive(ctx context.Context) ([]models.Word, error)
}

// LocalGenerator builds questions without a model, drawing wrong options
// from other catalog words. Styles that need definitions fall back to
// translation-based prompts.
type LocalGenerator struct {
	words WordLister

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLocalGenerator creates a generator over the catalog
func NewLocalGenerator(words WordLister) *LocalGenerator {
	return &LocalGenerator{
		words: words,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate implements catalog.Generator
func (g *LocalGenerator) Generate(ctx context.Context, req catalog.Request) ([]catalog.Generated, error) {
	all, err := g.words.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var others []models.Word
	for _, w := range all {
		if !strings.EqualFold(w.EnglishWord, req.Word.Text) {
			others = append(others, w)
		}
	}

	out := make([]catalog.Generated, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		q, ok := g.build(req, others)
		if !ok {
			break
		}
		out = append(out, q)
	}
	return out, nil
}

func (g *LocalGenerator) build(req catalog.Request, others []models.Word) (catalog.Generated, bool) {
	w := req.Word
	var prompt, correct string
	var pool []string

	switch req.Style {
	case models.StyleSynonym, models.StyleAntonym:
		related := w.Synonyms
		kind := "synonym"
		if req.Style == models.StyleAntonym {
			related, kind = w.Antonyms, "antonym"
		}
		if len(related) == 0 {
			return catalog.Generated{}, false
		}
		correct = related[g.intn(len(related))]
		prompt = fmt.Sprintf("Pick a %s of \"%s\"", kind, w.Text)
		for _, o := range others {
			pool = append(pool, o.EnglishWord)
		}
	case models.StyleReverse, models.StyleWordFromDefinition:
		correct = w.Text
		prompt = fmt.Sprintf("Which English word means \"%s\"?", w.Translation)
		for _, o := range others {
			pool = append(pool, o.EnglishWord)
		}
	default:
		correct = w.Translation
		prompt = fmt.Sprintf("What does \"%s\" mean?", w.Text)
		for _, o := range others {
			pool = append(pool, o.Translation)
		}
	}

	wrong := g.distractors(pool, correct, models.OptionCount-1)
	if len(wrong) < models.OptionCount-1 {
		return catalog.Generated{}, false
	}

	options := append(wrong, correct)
	correctIndex := len(options) - 1
	g.mu.Lock()
	g.rnd.Shuffle(len(options), func(i, j int) {
		if i == correctIndex {
			correctIndex = j
		} else if j == correctIndex {
			correctIndex = i
		}
		options[i], options[j] = options[j], options[i]
	})
	g.mu.Unlock()

	q := catalog.Generated{
		Prompt:        prompt,
		CorrectOption: correctIndex + 1,
		Explanation:   fmt.Sprintf("%s: %s", w.Text, w.Translation),
	}
	copy(q.Options[:], options)
	return q, true
}

// distractors picks n distinct options from pool that differ from correct
func (g *LocalGenerator) distractors(pool []string, correct string, n int) []string {
	shuffled := append([]string(nil), pool...)
	g.mu.Lock()
	g.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	g.mu.Unlock()

	seen := map[string]bool{strings.ToLower(correct): true}
	out := make([]string, 0, n)
	for _, s := range shuffled {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	return out
}

func (g *LocalGenerator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Intn(n)
}
