package models

import "time"

// QuestionStyle is the kind of multiple-choice question generated for a word
type QuestionStyle string

const (
	StyleMeaning            QuestionStyle = "meaning"
	StyleDefinition         QuestionStyle = "definition"
	StyleWordFromDefinition QuestionStyle = "word_from_definition"
	StyleSynonym            QuestionStyle = "synonym"
	StyleAntonym            QuestionStyle = "antonym"
	StyleReverse            QuestionStyle = "reverse"
)

// StyleNone means "no style preference"
const StyleNone QuestionStyle = ""

// Valid reports whether s is one of the known styles
func (s QuestionStyle) Valid() bool {
	switch s {
	case StyleMeaning, StyleDefinition, StyleWordFromDefinition,
		StyleSynonym, StyleAntonym, StyleReverse:
		return true
	}
	return false
}

// PreferredStyle maps a review stage to the style shown at that stage.
// Stage 4 and above has no preference.
func PreferredStyle(stage int) QuestionStyle {
	switch stage {
	case 1:
		return StyleMeaning
	case 2:
		return StyleDefinition
	case 3:
		return StyleWordFromDefinition
	default:
		if stage < 1 {
			return StyleMeaning
		}
		return StyleNone
	}
}

// OptionCount is the number of choices every question carries
const OptionCount = 4

// Question is a multiple-choice question about a single word
type Question struct {
	ID            int64         `json:"id" db:"id"`
	WordID        int64         `json:"word_id" db:"word_id"`
	Prompt        string        `json:"prompt" db:"prompt"`
	Option1       string        `json:"option_1" db:"option_1"`
	Option2       string        `json:"option_2" db:"option_2"`
	Option3       string        `json:"option_3" db:"option_3"`
	Option4       string        `json:"option_4" db:"option_4"`
	CorrectOption int           `json:"correct_option" db:"correct_option"` // 1-4
	Explanation   string        `json:"explanation" db:"explanation"`
	Style         QuestionStyle `json:"style" db:"style"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// Options returns the four choices in display order
func (q Question) Options() [OptionCount]string {
	return [OptionCount]string{q.Option1, q.Option2, q.Option3, q.Option4}
}

// IsCorrect reports whether choice (1-based) is the correct option
func (q Question) IsCorrect(choice int) bool {
	return choice == q.CorrectOption
}

// ValidChoice reports whether choice is within 1..OptionCount
func ValidChoice(choice int) bool {
	return choice >= 1 && choice <= OptionCount
}
