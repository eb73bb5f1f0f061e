package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/telegram-digest-bot/internal/digest"
	"github.com/telegram-digest-bot/internal/models"
	"github.com/telegram-digest-bot/internal/ratelimit"
	"github.com/telegram-digest-bot/internal/storage"
)

// Bot represents the Telegram bot
type Bot struct {
	api     *tgbotapi.BotAPI
	config  *models.BotConfig
	storage *storage.Client
	digests *digest.Service
	limiter *ratelimit.Limiter
	logger  zerolog.Logger
	wg      sync.WaitGroup // Tracks active handlers for graceful shutdown
}

// New creates a new bot instance
func New(
	config *models.BotConfig,
	storage *storage.Client,
	digests *digest.Service,
	limiter *ratelimit.Limiter,
	logger zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	api.Debug = config.LogLevel == "debug"

	logger.Info().
		Str("username", api.Self.UserName).
		Int64("id", api.Self.ID).
		Msg("Telegram bot authorized")

	return &Bot{
		api:     api,
		config:  config,
		storage: storage,
		digests: digests,
		limiter: limiter,
		logger:  logger.With().Str("component", "bot").Logger(),
	}, nil
}

// Start runs the update loop until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info().Msg("Starting bot...")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Msg("Bot started, waiting for messages...")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Shutting down bot...")
			b.api.StopReceivingUpdates()

			b.logger.Info().Msg("Waiting for active handlers to complete...")
			b.wg.Wait()
			b.logger.Info().Msg("All handlers completed")

			return nil

		case update := <-updates:
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// Stop stops receiving updates
func (b *Bot) Stop() {
	b.logger.Info().Msg("Stopping bot...")
	b.api.StopReceivingUpdates()
}

// SendMessage sends a Markdown message to a chat. Used by the scheduler to
// deliver the nightly digest.
func (b *Bot) SendMessage(chatID int64, text string) error {
	return b.sendMessage(chatID, text)
}

// GetUsername returns bot username
func (b *Bot) GetUsername() string {
	return b.api.Self.UserName
}
