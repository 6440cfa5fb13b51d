package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/wordduel/pkg/models"
)

// Answer and ignore buttons carry compact tokens:
//
//	r:<question>:<choice>      review answer
//	d:<duelQuestion>:<choice>  duel answer
//	i:<word>                   ignore word
const (
	kindReview = "r"
	kindDuel   = "d"
	kindIgnore = "i"
)

// Menu buttons
const (
	callbackMainMenu  = "main_menu"
	callbackLearn     = "learn"
	callbackDuelEasy  = "duel_easy"
	callbackDuelHard  = "duel_hard"
	callbackDuelState = "duel_status"
	callbackStats     = "stats"
)

type callbackToken struct {
	Kind   string
	ID     int64
	Choice int
}

func reviewToken(questionID int64, choice int) string {
	return fmt.Sprintf("%s:%d:%d", kindReview, questionID, choice)
}

func duelToken(duelQuestionID int64, choice int) string {
	return fmt.Sprintf("%s:%d:%d", kindDuel, duelQuestionID, choice)
}

func ignoreToken(wordID int64) string {
	return fmt.Sprintf("%s:%d", kindIgnore, wordID)
}

// parseToken decodes an answer or ignore token. ok is false for data that
// is not a token at all, such as menu buttons.
func parseToken(data string) (tok callbackToken, ok bool, err error) {
	parts := strings.Split(data, ":")
	switch parts[0] {
	case kindReview, kindDuel:
		if len(parts) != 3 {
			return tok, true, fmt.Errorf("malformed answer token %q", data)
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return tok, true, fmt.Errorf("invalid id in token %q: %w", data, err)
		}
		choice, err := strconv.Atoi(parts[2])
		if err != nil || !models.ValidChoice(choice) {
			return tok, true, fmt.Errorf("invalid choice in token %q", data)
		}
		return callbackToken{Kind: parts[0], ID: id, Choice: choice}, true, nil
	case kindIgnore:
		if len(parts) != 2 {
			return tok, true, fmt.Errorf("malformed ignore token %q", data)
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return tok, true, fmt.Errorf("invalid id in token %q: %w", data, err)
		}
		return callbackToken{Kind: kindIgnore, ID: id}, true, nil
	}
	return tok, false, nil
}
