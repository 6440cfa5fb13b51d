package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordduel/internal/apperr"
	"github.com/example/wordduel/internal/catalog"
	"github.com/example/wordduel/internal/config"
	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/database/dbtest"
	"github.com/example/wordduel/internal/duel"
	"github.com/example/wordduel/internal/history"
	"github.com/example/wordduel/internal/observability"
	"github.com/example/wordduel/internal/review"
	"github.com/example/wordduel/internal/xp"
	"github.com/example/wordduel/pkg/models"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	requests int
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.messages = append(s.messages, msg)
	}
	return tgbotapi.Message{}, nil
}

func (s *recordingSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// to returns the texts sent to chatID, in order
func (s *recordingSender) to(chatID int64) []tgbotapi.MessageConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

func newTestBot(t *testing.T) (*Bot, *recordingSender, *database.DB) {
	t.Helper()
	db := dbtest.New(t)
	logger := observability.Discard()
	cat := catalog.New(db, nil, time.Second, logger)
	tracker := history.NewTracker(db)
	rewards := xp.NewService(db, config.XPConfig{
		ReviewCorrect:        10,
		DuelPerQuestion:      10,
		DuelWinBonus:         30,
		DuelDrawBonus:        15,
		StreakDailyThreshold: 1000,
	}, logger)

	out := &recordingSender{}
	b := newBot(out, Services{
		Review:   review.NewService(db, cat, catalog.NewSelector(db), tracker, rewards, logger),
		Duel:     duel.NewService(db, cat, tracker, rewards, duel.DefaultOptions(), logger),
		Users:    database.NewUserRepository(db),
		Importer: catalog.NewImporter(db),
	}, &BotConfig{AdminUserIDs: []int64{99}, HandlerTimeout: 10 * time.Second}, logger)
	return b, out, db
}

func command(userID int64, text string) tgbotapi.Update {
	cmd := strings.SplitN(text, " ", 2)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "u", FirstName: "U"},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{{
			Type: "bot_command", Offset: 0, Length: len(cmd),
		}},
	}}
}

func press(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}}
}

// buttons flattens an inline keyboard into its callback data
func buttons(msg tgbotapi.MessageConfig) []string {
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		return nil
	}
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		data string
		want callbackToken
		ok   bool
		err  bool
	}{
		{data: "r:12:3", want: callbackToken{Kind: kindReview, ID: 12, Choice: 3}, ok: true},
		{data: "d:7:1", want: callbackToken{Kind: kindDuel, ID: 7, Choice: 1}, ok: true},
		{data: "i:5", want: callbackToken{Kind: kindIgnore, ID: 5}, ok: true},
		{data: "r:12:5", ok: true, err: true},
		{data: "d:x:1", ok: true, err: true},
		{data: "r:12", ok: true, err: true},
		{data: "i:", ok: true, err: true},
		{data: callbackLearn},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, ok, err := parseToken(tt.data)
			assert.Equal(t, tt.ok, ok)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	tok, _, err := parseToken(reviewToken(42, 4))
	require.NoError(t, err)
	assert.Equal(t, callbackToken{Kind: kindReview, ID: 42, Choice: 4}, tok)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "⚠️ Already in a duel.", errorText(duel.ErrAlreadyInDuel))
	assert.Equal(t, "ℹ️ Question already answered.", errorText(history.ErrAlreadyAnswered))
	assert.Contains(t, errorText(catalog.ErrNoQuestions), "not ready")
	assert.Contains(t, errorText(apperr.Internal("boom", nil)), "Something went wrong")
	assert.Contains(t, errorText(errors.New("raw")), "Something went wrong")
}

func TestReviewFlow(t *testing.T) {
	b, out, db := newTestBot(t)
	ctx := context.Background()
	w := dbtest.Word(t, db, "apple", 1)
	dbtest.Question(t, db, w.ID, models.StyleMeaning)
	dbtest.Question(t, db, w.ID, models.StyleDefinition)
	const user = int64(10)

	b.handleUpdate(ctx, command(user, "/start"))
	u, err := database.NewUserRepository(db).GetByID(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "u", u.Username)

	out.reset()
	b.handleUpdate(ctx, command(user, "/learn"))
	msgs := out.to(user)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "apple")
	data := buttons(msgs[0])
	require.Len(t, data, 5)
	assert.Equal(t, ignoreToken(w.ID), data[4])

	// option 1 is correct
	out.reset()
	b.handleUpdate(ctx, press(user, data[0]))
	msgs = out.to(user)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[0].Text, "Correct")
	assert.Contains(t, msgs[0].Text, "+10 XP")
	require.Len(t, msgs, 2, "the next item follows the feedback")
	assert.NotEqual(t, data[0], buttons(msgs[1])[0])

	// a repeated press is reported, not applied again
	out.reset()
	b.handleUpdate(ctx, press(user, data[0]))
	msgs = out.to(user)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "already answered")

	out.reset()
	b.handleUpdate(ctx, press(user, data[4]))
	msgs = out.to(user)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "removed")
	assert.Contains(t, msgs[1].Text, "Nothing to review")

	out.reset()
	b.handleUpdate(ctx, command(user, "/stats"))
	msgs = out.to(user)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "XP: 10")
	assert.Contains(t, msgs[0].Text, "+10 review")
}

func TestDuelFlow(t *testing.T) {
	b, out, db := newTestBot(t)
	ctx := context.Background()
	for _, w := range dbtest.Words(t, db, "w", 5, 1) {
		dbtest.Question(t, db, w.ID, models.StyleMeaning)
	}
	const alice, bob = int64(1), int64(2)

	b.handleUpdate(ctx, command(alice, "/duel easy"))
	msgs := out.to(alice)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Looking for an opponent")

	b.handleUpdate(ctx, command(alice, "/duel"))
	msgs = out.to(alice)
	assert.Contains(t, msgs[len(msgs)-1].Text, "Already in a duel")

	out.reset()
	b.handleUpdate(ctx, press(bob, callbackDuelEasy))
	require.Len(t, out.to(bob), 2)
	require.Len(t, out.to(alice), 2, "the waiting player gets the start notice and a question")

	answerAll := func(user int64, correct int) {
		for i := 0; ; i++ {
			msgs := out.to(user)
			last := msgs[len(msgs)-1]
			data := buttons(last)
			if len(data) != 4 {
				return
			}
			choice := data[1] // wrong
			if i < correct {
				choice = data[0]
			}
			b.handleUpdate(ctx, press(user, choice))
		}
	}

	answerAll(alice, 5)
	msgs = out.to(alice)
	assert.Contains(t, msgs[len(msgs)-1].Text, "Waiting for your opponent")

	answerAll(bob, 3)
	aliceMsgs, bobMsgs := out.to(alice), out.to(bob)
	assert.Contains(t, aliceMsgs[len(aliceMsgs)-1].Text, "You won")
	assert.Contains(t, aliceMsgs[len(aliceMsgs)-1].Text, "+80 XP")
	assert.Contains(t, bobMsgs[len(bobMsgs)-1].Text, "You lost")
	assert.Contains(t, bobMsgs[len(bobMsgs)-1].Text, "+30 XP")

	out.reset()
	b.handleUpdate(ctx, command(bob, "/status"))
	msgs = out.to(bob)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "3/5")
}

func TestImportRequiresAdmin(t *testing.T) {
	b, out, _ := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command(5, "/import"))
	assert.Contains(t, out.to(5)[0].Text, "only available for administrators")
	assert.False(t, b.isAwaitingUpload(5))

	b.handleUpdate(ctx, command(99, "/import"))
	assert.True(t, b.isAwaitingUpload(99))
}

func TestSendReminders(t *testing.T) {
	b, out, _ := newTestBot(t)
	require.NoError(t, b.SendReminders(context.Background(), 7, 3))
	msgs := out.to(7)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "3 words")
	assert.Equal(t, []string{callbackLearn}, buttons(msgs[0]))
}
