package catalog

import "github.com/example/wordduel/pkg/models"

// StockTarget is the number of questions a word should carry for a style
type StockTarget struct {
	Style models.QuestionStyle
	Count int
}

// stockTargets is checked in order; the first style below target is the
// one generated next
var stockTargets = []StockTarget{
	{models.StyleMeaning, 3},
	{models.StyleDefinition, 3},
	{models.StyleWordFromDefinition, 4},
	{models.StyleSynonym, 2},
	{models.StyleAntonym, 2},
}

// Targets returns the stock targets that apply to word
func Targets(word models.Word) []StockTarget {
	targets := make([]StockTarget, 0, len(stockTargets))
	for _, t := range stockTargets {
		if t.Style == models.StyleSynonym && len(word.SynonymList()) == 0 {
			continue
		}
		if t.Style == models.StyleAntonym && len(word.AntonymList()) == 0 {
			continue
		}
		targets = append(targets, t)
	}
	return targets
}

// NextDeficit returns the first style stocked below its target and how many
// questions it is missing. ok is false when the word is fully stocked.
func NextDeficit(word models.Word, counts map[models.QuestionStyle]int) (style models.QuestionStyle, missing int, ok bool) {
	for _, t := range Targets(word) {
		if have := counts[t.Style]; have < t.Count {
			return t.Style, t.Count - have, true
		}
	}
	return models.StyleNone, 0, false
}
