// Package bot is the Telegram transport: it turns commands and button
// presses into review and duel operations and renders the results.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wordduel/internal/apperr"
	"github.com/example/wordduel/internal/catalog"
	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/duel"
	"github.com/example/wordduel/internal/observability"
	"github.com/example/wordduel/internal/review"
)

// sender is the part of the Bot API used to talk to users
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services are the operations the bot exposes
type Services struct {
	Review   *review.Service
	Duel     *duel.Service
	Users    *database.UserRepository
	Importer *catalog.Importer
}

// Bot represents the Telegram bot application
type Bot struct {
	api    *tgbotapi.BotAPI
	out    sender
	svc    Services
	config *BotConfig
	logger *slog.Logger

	adminUserIDs map[int64]bool

	mu                 sync.Mutex
	awaitingFileUpload map[int64]bool
}

// New authorizes against the Bot API and creates a bot instance
func New(token string, svc Services, config *BotConfig, logger *slog.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	b := newBot(api, svc, config, logger)
	b.api = api
	b.logger.Info("authorized on account", "username", api.Self.UserName)
	return b, nil
}

func newBot(out sender, svc Services, config *BotConfig, logger *slog.Logger) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bot{
		out:                out,
		svc:                svc,
		config:             config,
		logger:             logger,
		adminUserIDs:       make(map[int64]bool),
		awaitingFileUpload: make(map[int64]bool),
	}
	for _, id := range config.AdminUserIDs {
		b.adminUserIDs[id] = true
	}
	return b
}

// Run polls for updates until ctx is cancelled. Each update is handled in
// its own goroutine; Run returns after the in-flight ones finish.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.PollTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	defer b.api.StopReceivingUpdates()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// SendReminders implements scheduler.Notifier
func (b *Bot) SendReminders(ctx context.Context, userID int64, count int) error {
	// user and chat IDs coincide in private chats
	msg := tgbotapi.NewMessage(userID, reminderText(count))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "🎯 Learn", CallbackData: callbackLearn}}})
	if _, err := b.out.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	return nil
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, b.config.HandlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

// send delivers a message, logging failures
func (b *Bot) send(logger *slog.Logger, c tgbotapi.Chattable) {
	if _, err := b.out.Send(c); err != nil {
		logger.Warn("failed to send message", "error", err)
	}
}

// reply sends plain text with the main menu attached
func (b *Bot) reply(logger *slog.Logger, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	b.send(logger, msg)
}

// fail reports a service error to the user
func (b *Bot) fail(logger *slog.Logger, chatID int64, err error) {
	logger.Info("action rejected", observability.LogFieldErrorCode, apperr.CodeOf(err), "error", err)
	b.reply(logger, chatID, errorText(err))
}

func (b *Bot) setAwaitingUpload(userID int64, awaiting bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if awaiting {
		b.awaitingFileUpload[userID] = true
	} else {
		delete(b.awaitingFileUpload, userID)
	}
}

func (b *Bot) isAwaitingUpload(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitingFileUpload[userID]
}
