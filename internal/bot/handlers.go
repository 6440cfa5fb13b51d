package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"

	"github.com/example/wordduel/internal/catalog"
	"github.com/example/wordduel/internal/duel"
	"github.com/example/wordduel/internal/observability"
	"github.com/example/wordduel/internal/review"
	"github.com/example/wordduel/pkg/models"
)

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	if !message.IsCommand() {
		logger := observability.ForAction(b.logger, "message", userID)
		if message.Document != nil && b.isAwaitingUpload(userID) {
			b.handleDocument(ctx, logger, message)
			return
		}
		b.reply(logger, chatID, "I don't understand. Use /menu to show the main menu.")
		return
	}

	logger := observability.ForAction(b.logger, message.Command(), userID)
	switch message.Command() {
	case "start":
		b.handleStart(ctx, logger, message)
	case "menu":
		b.showMainMenu(logger, chatID)
	case "learn":
		b.sendReviewItem(ctx, logger, chatID, userID)
	case "duel":
		difficulty := models.DifficultyEasy
		if arg := strings.TrimSpace(message.CommandArguments()); arg != "" {
			difficulty = models.DuelDifficulty(strings.ToLower(arg))
		}
		b.handleDuelStart(ctx, logger, chatID, userID, difficulty)
	case "status":
		b.handleDuelStatus(ctx, logger, chatID, userID)
	case "stats":
		b.handleStats(ctx, logger, chatID, userID)
	case "import":
		if !b.isAdmin(userID) {
			b.reply(logger, chatID, "This command is only available for administrators.")
			return
		}
		b.setAwaitingUpload(userID, true)
		b.send(logger, tgbotapi.NewMessage(chatID, "Send an .xlsx or .csv file with columns: word, translation, level, lesson, synonyms, antonyms."))
	default:
		b.reply(logger, chatID, "Unknown command. Use /menu to show the main menu.")
	}
}

// handleCallbackQuery handles button presses
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	logger := observability.ForAction(b.logger, "callback", userID)

	// Always answer the callback query to remove the loading state
	if _, err := b.out.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		logger.Warn("failed to answer callback", "error", err)
	}
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	switch callback.Data {
	case callbackMainMenu:
		b.showMainMenu(logger, chatID)
		return
	case callbackLearn:
		b.sendReviewItem(ctx, logger, chatID, userID)
		return
	case callbackDuelEasy:
		b.handleDuelStart(ctx, logger, chatID, userID, models.DifficultyEasy)
		return
	case callbackDuelHard:
		b.handleDuelStart(ctx, logger, chatID, userID, models.DifficultyHard)
		return
	case callbackDuelState:
		b.handleDuelStatus(ctx, logger, chatID, userID)
		return
	case callbackStats:
		b.handleStats(ctx, logger, chatID, userID)
		return
	}

	tok, ok, err := parseToken(callback.Data)
	if !ok {
		b.reply(logger, chatID, "⚠️ Unknown action")
		return
	}
	if err != nil {
		logger.Warn("bad callback token", "data", callback.Data, "error", err)
		b.reply(logger, chatID, "⚠️ Unknown action")
		return
	}

	switch tok.Kind {
	case kindReview:
		b.handleReviewAnswer(ctx, logger, chatID, userID, tok.ID, tok.Choice)
	case kindDuel:
		b.handleDuelAnswer(ctx, logger, chatID, userID, tok.ID, tok.Choice)
	case kindIgnore:
		b.handleIgnore(ctx, logger, chatID, userID, tok.ID)
	}
}

// handleStart registers the user and shows the welcome text
func (b *Bot) handleStart(ctx context.Context, logger *slog.Logger, message *tgbotapi.Message) {
	user := &models.User{
		ID:        message.From.ID,
		Username:  message.From.UserName,
		FirstName: message.From.FirstName,
	}
	if err := b.svc.Users.Register(ctx, user); err != nil {
		logger.Error("failed to register user", "error", err)
	}
	b.reply(logger, message.Chat.ID, welcomeText)
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(logger *slog.Logger, chatID int64) {
	b.reply(logger, chatID, "Main Menu - choose an option:")
}

func (b *Bot) sendReviewItem(ctx context.Context, logger *slog.Logger, chatID, userID int64) {
	item, err := b.svc.Review.NextItem(ctx, userID)
	if err != nil {
		if errors.Is(err, review.ErrNothingToReview) {
			b.reply(logger, chatID, "🎉 Nothing to review right now. Come back later!")
			return
		}
		b.fail(logger, chatID, err)
		return
	}
	b.send(logger, reviewItemMessage(chatID, item))
}

func (b *Bot) handleReviewAnswer(ctx context.Context, logger *slog.Logger, chatID, userID, questionID int64, choice int) {
	res, err := b.svc.Review.Answer(ctx, userID, questionID, choice)
	if err != nil {
		b.fail(logger, chatID, err)
		return
	}
	b.send(logger, tgbotapi.NewMessage(chatID, reviewFeedbackText(res)))
	if res.Streak.Notify() {
		b.send(logger, tgbotapi.NewMessage(chatID, streakText(res.Streak)))
	}
	b.sendReviewItem(ctx, logger, chatID, userID)
}

func (b *Bot) handleIgnore(ctx context.Context, logger *slog.Logger, chatID, userID, wordID int64) {
	if err := b.svc.Review.Ignore(ctx, userID, wordID); err != nil {
		b.fail(logger, chatID, err)
		return
	}
	b.send(logger, tgbotapi.NewMessage(chatID, "👍 Word removed from your reviews."))
	b.sendReviewItem(ctx, logger, chatID, userID)
}

func (b *Bot) handleDuelStart(ctx context.Context, logger *slog.Logger, chatID, userID int64, difficulty models.DuelDifficulty) {
	res, err := b.svc.Duel.Start(ctx, userID, difficulty)
	if err != nil {
		b.fail(logger, chatID, err)
		return
	}
	logger = logger.With(observability.LogFieldMatchID, res.Match.ID)

	if !res.Joined {
		b.send(logger, tgbotapi.NewMessage(chatID,
			fmt.Sprintf("⏳ Looking for an opponent (%s). I'll message you when the duel starts.", difficulty)))
		return
	}

	b.send(logger, tgbotapi.NewMessage(chatID, "⚔️ Opponent found! The duel begins."))
	if res.Current != nil {
		b.send(logger, duelQuestionMessage(chatID, res.Current))
	}

	// the creator is waiting for this moment
	opponent := res.Match.Opponent(userID)
	b.send(logger, tgbotapi.NewMessage(opponent, "⚔️ Opponent found! The duel begins."))
	cur, err := b.svc.Duel.NextQuestion(ctx, opponent)
	if err != nil {
		logger.Warn("failed to load opponent's first question", "opponent", opponent, "error", err)
		return
	}
	if cur != nil {
		b.send(logger, duelQuestionMessage(opponent, cur))
	}
}

func (b *Bot) handleDuelAnswer(ctx context.Context, logger *slog.Logger, chatID, userID, duelQuestionID int64, choice int) {
	res, err := b.svc.Duel.Answer(ctx, userID, duelQuestionID, choice)
	if err != nil {
		b.fail(logger, chatID, err)
		return
	}
	b.send(logger, tgbotapi.NewMessage(chatID, feedbackText(res.Correct, res.Question, res.CorrectOption)))

	switch {
	case res.Next != nil:
		b.send(logger, duelQuestionMessage(chatID, res.Next))
	case res.Waiting:
		b.send(logger, tgbotapi.NewMessage(chatID, "✅ All done! Waiting for your opponent to finish."))
	case res.Result != nil:
		b.announceResult(logger, res.Result)
	}
}

// announceResult tells both players how the duel ended
func (b *Bot) announceResult(logger *slog.Logger, res *duel.Result) {
	for _, p := range res.Players {
		b.reply(logger, p.UserID, duelResultText(res, p.UserID))
		if p.Streak.Notify() {
			b.send(logger, tgbotapi.NewMessage(p.UserID, streakText(p.Streak)))
		}
	}
}

func (b *Bot) handleDuelStatus(ctx context.Context, logger *slog.Logger, chatID, userID int64) {
	st, err := b.svc.Duel.Status(ctx, userID)
	if err != nil {
		b.fail(logger, chatID, err)
		return
	}
	if st.Result != nil {
		b.reply(logger, chatID, duelResultText(st.Result, userID))
		return
	}
	b.reply(logger, chatID, duelStatusText(st))
}

func (b *Bot) handleStats(ctx context.Context, logger *slog.Logger, chatID, userID int64) {
	stats, err := b.svc.Review.Stats(ctx, userID)
	if err != nil {
		b.fail(logger, chatID, err)
		return
	}
	b.reply(logger, chatID, statsText(stats))
}

// handleDocument imports an uploaded word list
func (b *Bot) handleDocument(ctx context.Context, logger *slog.Logger, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID
	b.setAwaitingUpload(userID, false)

	doc := message.Document
	if int64(doc.FileSize) > b.config.MaxUploadBytes {
		b.reply(logger, chatID, "❌ The file is too large.")
		return
	}
	ext := strings.ToLower(path.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		b.reply(logger, chatID, "❌ Only .xlsx and .csv files are supported.")
		return
	}

	body, err := b.download(ctx, doc.FileID)
	if err != nil {
		logger.Error("failed to download word list", "error", err)
		b.reply(logger, chatID, "❌ Could not download the file. Please try again.")
		return
	}
	defer body.Close()

	cfg := catalog.DefaultImportConfig()
	var result *catalog.ImportResult
	if ext == ".csv" {
		result, err = b.svc.Importer.ImportCSV(ctx, body, cfg)
	} else {
		var f *excelize.File
		if f, err = excelize.OpenReader(body); err == nil {
			result, err = b.svc.Importer.ImportWorkbook(ctx, f, cfg)
			f.Close()
		}
	}
	if err != nil {
		logger.Error("word list import failed", "error", err)
		b.reply(logger, chatID, "❌ Import failed: "+err.Error())
		return
	}

	text := fmt.Sprintf("✅ Imported %d of %d rows.", result.Imported, result.TotalProcessed)
	if len(result.Errors) > 0 {
		text += fmt.Sprintf("\n⚠️ %d rows skipped:\n%s", len(result.Errors), strings.Join(firstN(result.Errors, 10), "\n"))
	}
	logger.Info("word list imported", "imported", result.Imported, "rows", result.TotalProcessed)
	b.reply(logger, chatID, text)
}

func (b *Bot) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
