package models

import (
	"strings"
	"time"
)

// Word represents an English word to be learned
type Word struct {
	ID          int64     `json:"id" db:"id"`
	EnglishWord string    `json:"english_word" db:"english_word"`
	Translation string    `json:"translation" db:"translation"`
	Level       int       `json:"level" db:"level"` // 1-4 scale of difficulty
	Lesson      string    `json:"lesson" db:"lesson"`
	Synonyms    string    `json:"synonyms" db:"synonyms"` // comma separated
	Antonyms    string    `json:"antonyms" db:"antonyms"` // comma separated
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// SynonymList returns the parsed synonym list
func (w Word) SynonymList() []string {
	return splitList(w.Synonyms)
}

// AntonymList returns the parsed antonym list
func (w Word) AntonymList() []string {
	return splitList(w.Antonyms)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
