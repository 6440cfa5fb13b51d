package catalog

import (
	"context"
	"math/rand"

	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/pkg/models"
)

// Tier tells which selection rule produced a question
type Tier string

const (
	TierPreferred Tier = "preferred" // unseen, stage style
	TierUnseen    Tier = "unseen"    // unseen, any style
	TierRepeat    Tier = "repeat"    // already shown
)

// Selector picks the review question to show for a word
type Selector struct {
	questions *database.QuestionRepository
	intn      func(n int) int
}

// NewSelector creates a selector drawing uniformly with math/rand
func NewSelector(db *database.DB) *Selector {
	return &Selector{questions: database.NewQuestionRepository(db), intn: rand.Intn}
}

// Select returns an unseen question of the stage's preferred style, else any
// unseen question, else any question at all
func (s *Selector) Select(ctx context.Context, userID int64, wordID int64, stage int) (*models.Question, Tier, error) {
	if style := models.PreferredStyle(stage); style != models.StyleNone {
		qs, err := s.questions.ListUnseen(ctx, userID, wordID, models.ContextReview, style)
		if err != nil {
			return nil, "", err
		}
		if len(qs) > 0 {
			return s.pick(qs), TierPreferred, nil
		}
	}

	qs, err := s.questions.ListUnseen(ctx, userID, wordID, models.ContextReview, models.StyleNone)
	if err != nil {
		return nil, "", err
	}
	if len(qs) > 0 {
		tier := TierUnseen
		if models.PreferredStyle(stage) == models.StyleNone {
			tier = TierPreferred
		}
		return s.pick(qs), tier, nil
	}

	qs, err = s.questions.ListByWord(ctx, wordID)
	if err != nil {
		return nil, "", err
	}
	if len(qs) == 0 {
		return nil, "", ErrNoQuestions
	}
	return s.pick(qs), TierRepeat, nil
}

func (s *Selector) pick(qs []models.Question) *models.Question {
	q := qs[s.intn(len(qs))]
	return &q
}
