package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/telegram-digest-bot/internal/models"
)

// GetMessagesForDate retrieves all messages of a chat for one calendar day in
// the given timezone, ordered by creation time.
func (c *Client) GetMessagesForDate(ctx context.Context, chatID int64, date string, loc *time.Location) ([]models.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	endTime := startTime.AddDate(0, 0, 1)

	var messages []models.ChatMessage
	operation := "get_messages_for_date"

	err = c.withRetry(ctx, operation, func() error {
		data, _, err := c.client.From("chat_messages").
			Select("id,message_id,chat_id,user_id,nickname,card_name,text,created_at", "exact", false).
			Eq("chat_id", fmt.Sprintf("%d", chatID)).
			Gte("created_at", startTime.UTC().Format(time.RFC3339)).
			Lt("created_at", endTime.UTC().Format(time.RFC3339)).
			Order("created_at", nil).
			Execute()

		if err != nil {
			return fmt.Errorf("failed to fetch messages: %w", err)
		}

		if err := json.Unmarshal(data, &messages); err != nil {
			return fmt.Errorf("failed to unmarshal messages: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("chat_id", chatID).
			Str("date", date).
			Msg("Failed to get messages for date")
		return nil, err
	}

	c.logger.Debug().
		Int64("chat_id", chatID).
		Str("date", date).
		Int("message_count", len(messages)).
		Msg("Retrieved messages for date")

	return messages, nil
}

// SaveMessage stores one incoming chat message.
func (c *Client) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	operation := "save_message"
	err := c.withRetry(ctx, operation, func() error {
		data := map[string]interface{}{
			"message_id": msg.MessageID,
			"chat_id":    msg.ChatID,
			"user_id":    msg.UserID,
			"nickname":   msg.Nickname,
			"card_name":  msg.CardName,
			"text":       msg.Text,
			"created_at": msg.CreatedAt,
		}

		_, _, err := c.client.From("chat_messages").
			Insert(data, false, "", "", "").
			Execute()

		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("chat_id", msg.ChatID).
			Str("user_id", msg.UserID).
			Msg("Failed to save message")
		return err
	}

	return nil
}
