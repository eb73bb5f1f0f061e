package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telegram-digest-bot/internal/digest"
	"github.com/telegram-digest-bot/internal/models"
)

// handleUpdate processes incoming update
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.recoverMiddleware(func() {
		if update.Message != nil {
			b.handleMessage(ctx, update.Message)
		}
	})
}

// handleMessage processes incoming message
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if !b.config.IsAllowedChat(message.Chat.ID) {
		b.logger.Debug().
			Int64("chat_id", message.Chat.ID).
			Msg("Ignoring message from unlisted chat")
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	b.recordMessage(ctx, message)
}

// recordMessage stores a plain chat message so the nightly digest has data
func (b *Bot) recordMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Text == "" || message.From == nil {
		return
	}

	msg := &models.ChatMessage{
		MessageID: int64(message.MessageID),
		ChatID:    message.Chat.ID,
		UserID:    strconv.FormatInt(message.From.ID, 10),
		Nickname:  displayName(message.From),
		Text:      message.Text,
		CreatedAt: time.Unix(int64(message.Date), 0).UTC(),
	}

	if err := b.storage.SaveMessage(ctx, msg); err != nil {
		b.logger.Warn().
			Err(err).
			Int64("chat_id", message.Chat.ID).
			Msg("Failed to record message")
	}
}

// handleCommand processes bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()

	b.logger.Info().
		Str("command", command).
		Int64("user_id", message.From.ID).
		Str("username", message.From.UserName).
		Msg("Received command")

	switch command {
	case "digest":
		b.handleDigestCommand(ctx, message)
	case "mydigest":
		b.handleMyDigestCommand(ctx, message)
	case "start", "help":
		b.handleHelpCommand(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help for the command list.")
	}
}

// handleDigestCommand builds the group digest on demand. Admin only.
func (b *Bot) handleDigestCommand(ctx context.Context, message *tgbotapi.Message) {
	if !b.config.IsAdmin(message.From.ID) {
		b.sendMessage(message.Chat.ID, "Only admins can request the group digest.")
		return
	}

	date, err := b.resolveDate(message.CommandArguments())
	if err != nil {
		b.sendMessage(message.Chat.ID, "Usage: /digest [today|yesterday]")
		return
	}

	// Serve the stored digest when one was already generated for that day.
	if stored, err := b.storage.GetDailyDigest(ctx, message.Chat.ID, date); err == nil && stored != nil {
		b.sendMessage(message.Chat.ID, stored.DigestText)
		return
	}

	b.sendTypingAction(message.Chat.ID)

	text, err := b.digests.ChatDigest(ctx, message.Chat.ID, date)
	if errors.Is(err, digest.ErrNotEnoughMessages) {
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Not enough messages on %s for a digest.", date))
		return
	}
	if err != nil {
		b.logger.Error().
			Err(err).
			Int64("chat_id", message.Chat.ID).
			Str("date", date).
			Msg("Failed to build digest")
		b.sendErrorMessage(message.Chat.ID, "Sorry, the digest failed. Try again later.")
		return
	}

	b.sendMessage(message.Chat.ID, text)
}

// handleMyDigestCommand builds a personal digest. Rate limited per user per
// day; admins may target another member by numeric id.
func (b *Bot) handleMyDigestCommand(ctx context.Context, message *tgbotapi.Message) {
	if !b.config.MyDigestEnabled {
		b.sendMessage(message.Chat.ID, "Personal digests are disabled.")
		return
	}

	args := strings.Fields(message.CommandArguments())
	targetID := strconv.FormatInt(message.From.ID, 10)
	dateArg := ""

	for _, arg := range args {
		if isNumeric(arg) {
			if !b.config.IsAdmin(message.From.ID) {
				b.sendMessage(message.Chat.ID, "Only admins can request digests for other members.")
				return
			}
			targetID = arg
			continue
		}
		dateArg = arg
	}

	date, err := b.resolveDate(dateArg)
	if err != nil {
		b.sendMessage(message.Chat.ID, "Usage: /mydigest [today|yesterday]")
		return
	}

	requesterID := strconv.FormatInt(message.From.ID, 10)
	limitResult, err := b.limiter.CheckLimit(ctx, requesterID)
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("user_id", requesterID).
			Msg("Failed to check rate limit")
		b.sendErrorMessage(message.Chat.ID, "Sorry, something went wrong. Try again later.")
		return
	}
	if !limitResult.Allowed {
		b.sendMessage(message.Chat.ID, fmt.Sprintf(
			"You have used all %d personal digests for today. The limit resets in %d h.",
			b.config.MyDigestDailyLimit, limitResult.ResetsInHours))
		return
	}

	b.sendTypingAction(message.Chat.ID)

	text, err := b.digests.UserDigest(ctx, message.Chat.ID, targetID, date)
	if errors.Is(err, digest.ErrNotEnoughMessages) {
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Not enough messages on %s for a personal digest.", date))
		return
	}
	if err != nil {
		b.logger.Error().
			Err(err).
			Int64("chat_id", message.Chat.ID).
			Str("target_id", targetID).
			Str("date", date).
			Msg("Failed to build personal digest")
		b.sendErrorMessage(message.Chat.ID, "Sorry, the digest failed. Try again later.")
		return
	}

	if err := b.limiter.IncrementUsage(ctx, requesterID); err != nil {
		b.logger.Warn().
			Err(err).
			Str("user_id", requesterID).
			Msg("Failed to increment usage")
	}

	b.sendMessage(message.Chat.ID, text)
}

// handleHelpCommand handles /help and /start commands
func (b *Bot) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) {
	helpMsg := fmt.Sprintf(
		"*Hi! I build daily chat digests.*\n\n"+
			"*Commands:*\n"+
			"/digest [today|yesterday] - Group digest (admins)\n"+
			"/mydigest [today|yesterday] - Your personal digest\n"+
			"/help - This message\n\n"+
			"*Limits:*\n"+
			"Personal digests: %d per day, reset at midnight (%s).\n"+
			"The group digest is also delivered automatically at %s.",
		b.config.MyDigestDailyLimit,
		b.config.Timezone,
		b.config.DigestTime,
	)

	b.sendMessage(message.Chat.ID, helpMsg)
}

// resolveDate maps a command argument to a YYYY-MM-DD date in the configured
// timezone. Empty means today.
func (b *Bot) resolveDate(arg string) (string, error) {
	loc, err := time.LoadLocation(b.config.Timezone)
	if err != nil {
		loc = time.Local
	}
	now := time.Now().In(loc)

	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "today":
		return now.Format("2006-01-02"), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format("2006-01-02"), nil
	default:
		return "", fmt.Errorf("unknown date argument: %s", arg)
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func displayName(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	return name
}
