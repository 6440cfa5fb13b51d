package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordduel/internal/catalog"
	"github.com/example/wordduel/internal/observability"
	"github.com/example/wordduel/pkg/models"
)

type stubLLM struct {
	reply  string
	err    error
	system string
	user   string
}

func (s *stubLLM) Complete(ctx context.Context, system, user string) (string, error) {
	s.system, s.user = system, user
	return s.reply, s.err
}

func request(style models.QuestionStyle, count int) catalog.Request {
	return catalog.RequestFor(models.Word{
		EnglishWord: "big",
		Translation: "большой",
		Level:       1,
		Synonyms:    "large,huge",
		Antonyms:    "small",
	}, style, count)
}

func TestParseFencedReply(t *testing.T) {
	llm := &stubLLM{reply: "```json\n" + `{"questions": [
		{"prompt": "What does big mean?", "options": ["большой", "малый", "красный", "быстрый"], "correct_option": 1, "explanation": "big = большой"},
		{"prompt": "broken", "options": ["a", "b"], "correct_option": 1},
		{"prompt": "Pick the meaning", "options": ["a", "b", "c", "большой"], "correct_option": 4}
	]}` + "\n```"}
	g := NewQuestionGenerator(llm, 0, observability.Discard())

	out, err := g.Generate(context.Background(), request(models.StyleMeaning, 2))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "большой", out[0].Options[0])
	assert.Equal(t, 4, out[1].CorrectOption)

	assert.Contains(t, llm.user, "Word: big")
	assert.Contains(t, llm.user, "Synonyms: large, huge")
	assert.Contains(t, llm.user, "Style: meaning")
}

func TestGenerateErrors(t *testing.T) {
	g := NewQuestionGenerator(&stubLLM{err: errors.New("down")}, 0, observability.Discard())
	_, err := g.Generate(context.Background(), request(models.StyleMeaning, 1))
	assert.Error(t, err)

	g = NewQuestionGenerator(&stubLLM{reply: "not json"}, 0, observability.Discard())
	_, err = g.Generate(context.Background(), request(models.StyleMeaning, 1))
	assert.Error(t, err)
}

func TestGenerateHonorsCancelledContext(t *testing.T) {
	g := NewQuestionGenerator(&stubLLM{reply: `{"questions": []}`}, 1, observability.Discard())
	ctx := context.Background()

	_, err := g.Generate(ctx, request(models.StyleMeaning, 1))
	require.NoError(t, err)

	// the single token is spent; a cancelled caller must not wait a minute
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = g.Generate(cancelled, request(models.StyleMeaning, 1))
	assert.Error(t, err)
}

type staticWords []models.Word

func (s staticWords) ListActive(ctx context.Context) ([]models.Word, error) {
	return s, nil
}

func TestLocalGenerator(t *testing.T) {
	words := staticWords{
		{EnglishWord: "big", Translation: "большой"},
		{EnglishWord: "red", Translation: "красный"},
		{EnglishWord: "fast", Translation: "быстрый"},
		{EnglishWord: "old", Translation: "старый"},
		{EnglishWord: "new", Translation: "новый"},
	}
	g := NewLocalGenerator(words)
	ctx := context.Background()

	for _, style := range []models.QuestionStyle{models.StyleMeaning, models.StyleReverse, models.StyleSynonym, models.StyleAntonym} {
		out, err := g.Generate(ctx, request(style, 3))
		require.NoError(t, err)
		require.Len(t, out, 3, style)
		for _, q := range out {
			require.NoError(t, q.Validate(), style)
		}
	}

	out, err := g.Generate(ctx, request(models.StyleMeaning, 1))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "большой", out[0].Options[out[0].CorrectOption-1])
}

func TestLocalGeneratorNeedsDistractors(t *testing.T) {
	g := NewLocalGenerator(staticWords{{EnglishWord: "big", Translation: "большой"}})
	out, err := g.Generate(context.Background(), request(models.StyleMeaning, 2))
	require.NoError(t, err)
	assert.Empty(t, out)
}
