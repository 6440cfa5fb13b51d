package bot

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wordduel/internal/apperr"
	"github.com/example/wordduel/internal/duel"
	"github.com/example/wordduel/internal/review"
	"github.com/example/wordduel/internal/xp"
	"github.com/example/wordduel/pkg/models"
)

const welcomeText = `Welcome to WordDuel! 🎓

Available commands:
/learn - Review your words
/duel easy|hard - Challenge another learner
/status - Your current duel
/stats - Show your statistics
/menu - Show main menu`

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// MainMenuButtons returns the buttons for the main menu
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Learn", CallbackData: callbackLearn},
			{Text: "📊 Statistics", CallbackData: callbackStats},
		},
		{
			{Text: "⚔️ Duel (easy)", CallbackData: callbackDuelEasy},
			{Text: "🔥 Duel (hard)", CallbackData: callbackDuelHard},
		},
		{
			{Text: "📋 Duel status", CallbackData: callbackDuelState},
		},
	}
}

// questionButtons lays out the four choices one per row
func questionButtons(q models.Question, token func(choice int) string) [][]MenuButton {
	options := q.Options()
	rows := make([][]MenuButton, 0, len(options)+1)
	for i, text := range options {
		rows = append(rows, []MenuButton{{
			Text:         fmt.Sprintf("%d. %s", i+1, text),
			CallbackData: token(i + 1),
		}})
	}
	return rows
}

func reviewItemMessage(chatID int64, item *review.Item) tgbotapi.MessageConfig {
	buttons := questionButtons(item.Question, func(choice int) string {
		return reviewToken(item.Question.ID, choice)
	})
	buttons = append(buttons, []MenuButton{{Text: "🚫 I know this word", CallbackData: ignoreToken(item.Word.ID)}})

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("📖 %s\n\n%s", item.Word.EnglishWord, item.Question.Prompt))
	msg.ReplyMarkup = createKeyboard(buttons)
	return msg
}

func duelQuestionMessage(chatID int64, cur *duel.Current) tgbotapi.MessageConfig {
	buttons := questionButtons(cur.Question, func(choice int) string {
		return duelToken(cur.Slot.ID, choice)
	})
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("⚔️ Question %d/%d\n\n%s", cur.Slot.Index, cur.Total, cur.Question.Prompt))
	msg.ReplyMarkup = createKeyboard(buttons)
	return msg
}

func feedbackText(correct bool, q models.Question, correctOption int) string {
	var text strings.Builder
	if correct {
		text.WriteString("✅ Correct!")
	} else {
		options := q.Options()
		text.WriteString(fmt.Sprintf("❌ Wrong. Correct answer: %d. %s", correctOption, options[correctOption-1]))
	}
	if q.Explanation != "" {
		text.WriteString("\n💡 " + q.Explanation)
	}
	return text.String()
}

func reviewFeedbackText(res *review.AnswerResult) string {
	text := feedbackText(res.Correct, res.Question, res.CorrectOption)
	if res.XPAwarded > 0 {
		text += fmt.Sprintf("\n+%d XP", res.XPAwarded)
	}
	if res.Correct {
		text += fmt.Sprintf("\nNext review in %d %s", res.State.Interval, plural(res.State.Interval, "day", "days"))
	}
	return text
}

func streakText(s xp.StreakResult) string {
	switch s.Event {
	case xp.StreakStarted:
		return "🔥 New streak started! Keep it going tomorrow."
	case xp.StreakContinued:
		return fmt.Sprintf("🔥 Streak continued: %d %s in a row!", s.Count, plural(s.Count, "day", "days"))
	}
	return ""
}

func duelResultText(res *duel.Result, userID int64) string {
	me := res.For(userID)
	var text strings.Builder
	switch me.Outcome {
	case xp.OutcomeWin:
		text.WriteString("🏆 You won the duel!")
	case xp.OutcomeDraw:
		text.WriteString("🤝 The duel ended in a draw.")
	default:
		text.WriteString("😔 You lost the duel.")
	}
	opp := res.Players[0]
	if opp.UserID == userID {
		opp = res.Players[1]
	}
	text.WriteString(fmt.Sprintf("\n\nYou: %d/%d\nOpponent: %d/%d\n+%d XP", me.Correct, res.Total, opp.Correct, res.Total, me.XP))
	return text.String()
}

func duelStatusText(st *duel.Status) string {
	m := st.Match
	switch m.Status {
	case models.DuelWaiting:
		return fmt.Sprintf("⏳ Waiting for an opponent (%s).", m.Difficulty)
	case models.DuelInProgress:
		return fmt.Sprintf("⚔️ Duel in progress (%s)\n\nYou: %d/%d answered\nOpponent: %d/%d answered",
			m.Difficulty, st.Mine.Answered, st.Total, st.Opponent.Answered, st.Total)
	case models.DuelExpired:
		return "⌛ Your last duel expired before both players finished."
	}
	return ""
}

func statsText(s *models.Statistics) string {
	var text strings.Builder
	text.WriteString("📊 Your statistics\n\n")
	text.WriteString(fmt.Sprintf("XP: %d (+%d today)\n", s.XPTotal, s.XPEarnedToday))
	text.WriteString(fmt.Sprintf("Streak: %d %s\n", s.StreakCount, plural(s.StreakCount, "day", "days")))
	text.WriteString(fmt.Sprintf("Words in rotation: %d\n", s.WordsTracked-s.WordsIgnored))
	text.WriteString(fmt.Sprintf("Due today: %d\n", s.DueToday))
	text.WriteString(fmt.Sprintf("Duels: %d played, %d won", s.DuelsPlayed, s.DuelsWon))
	if len(s.Recent) > 0 {
		text.WriteString("\n\nRecent XP:")
		for _, e := range s.Recent {
			text.WriteString(fmt.Sprintf("\n+%d %s (%s)", e.XPDelta, activityLabel(e.ActivityType), e.CreatedAt.Format("Jan 2")))
		}
	}
	return text.String()
}

func activityLabel(a models.ActivityType) string {
	switch a {
	case models.ActivityReviewAnswer:
		return "review"
	case models.ActivityDuelMatch:
		return "duel"
	}
	return string(a)
}

func reminderText(count int) string {
	return fmt.Sprintf("⏰ You have %d %s to review today! Tap Learn to start.", count, plural(count, "word", "words"))
}

// errorText turns a service error into a message for the user
func errorText(err error) string {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return "❌ Something went wrong. Please try again later."
	}
	switch e.Code {
	case apperr.CodeUnavailable:
		return "⏳ Questions are not ready yet. Please try again in a minute."
	case apperr.CodeInternal:
		return "❌ Something went wrong. Please try again later."
	case apperr.CodeAlreadyDone:
		return "ℹ️ " + capitalize(e.Message) + "."
	}
	return "⚠️ " + capitalize(e.Message) + "."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
