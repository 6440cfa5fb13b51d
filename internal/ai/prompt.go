package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/wordduel/internal/catalog"
	"github.com/example/wordduel/pkg/models"
)

const systemPrompt = `You write multiple-choice vocabulary questions for language learners.
Reply with JSON only: {"questions": [{"prompt": "...", "options": ["...", "...", "...", "..."], "correct_option": 1, "explanation": "..."}]}.
Every question has exactly four distinct options and correct_option is the 1-based index of the right one.`

var styleInstructions = map[models.QuestionStyle]string{
	models.StyleMeaning:            "Ask for the meaning of the English word; options are translations.",
	models.StyleDefinition:         "Ask which English definition matches the word; options are short English definitions.",
	models.StyleWordFromDefinition: "Give an English definition and ask which English word it describes; options are English words.",
	models.StyleSynonym:            "Ask for a synonym of the word; exactly one option is a synonym.",
	models.StyleAntonym:            "Ask for an antonym of the word; exactly one option is an antonym.",
	models.StyleReverse:            "Give the translation and ask for the English word; options are English words.",
}

// userPrompt describes one generation request
func userPrompt(req catalog.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Word: %s\nTranslation: %s\nLevel: %d of 4\n", req.Word.Text, req.Word.Translation, req.Word.Level)
	if len(req.Word.Synonyms) > 0 {
		fmt.Fprintf(&b, "Synonyms: %s\n", strings.Join(req.Word.Synonyms, ", "))
	}
	if len(req.Word.Antonyms) > 0 {
		fmt.Fprintf(&b, "Antonyms: %s\n", strings.Join(req.Word.Antonyms, ", "))
	}
	fmt.Fprintf(&b, "Style: %s. %s\n", req.Style, styleInstructions[req.Style])
	fmt.Fprintf(&b, "Write %d different question(s). Vary the position of the correct option.", req.Count)
	return b.String()
}

type questionBatch struct {
	Questions []struct {
		Prompt        string   `json:"prompt"`
		Options       []string `json:"options"`
		CorrectOption int      `json:"correct_option"`
		Explanation   string   `json:"explanation"`
	} `json:"questions"`
}

// parseQuestions decodes a model reply. Items without four options are
// dropped; the catalog validates the rest.
func parseQuestions(reply string) ([]catalog.Generated, error) {
	cleaned := stripCodeFences(reply)

	var batch questionBatch
	if err := json.Unmarshal([]byte(cleaned), &batch); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	out := make([]catalog.Generated, 0, len(batch.Questions))
	for _, q := range batch.Questions {
		if len(q.Options) != models.OptionCount {
			continue
		}
		g := catalog.Generated{
			Prompt:        q.Prompt,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
		}
		copy(g.Options[:], q.Options)
		out = append(out, g)
	}
	return out, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
