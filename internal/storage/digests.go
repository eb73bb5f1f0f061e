package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/telegram-digest-bot/internal/models"
)

// SaveDailyDigest stores a generated digest, overwriting any existing digest
// for the same chat and date.
func (c *Client) SaveDailyDigest(ctx context.Context, digest *models.DailyDigest) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if digest.CreatedAt.IsZero() {
		digest.CreatedAt = time.Now().UTC()
	}

	operation := "save_daily_digest"
	err := c.withRetry(ctx, operation, func() error {
		data := map[string]interface{}{
			"chat_id":           digest.ChatID,
			"date":              digest.Date,
			"digest_text":       digest.DigestText,
			"message_count":     digest.MessageCount,
			"participant_count": digest.ParticipantCount,
			"created_at":        digest.CreatedAt,
		}

		_, _, err := c.client.From("daily_digests").
			Insert(data, true, "chat_id,date", "", "").
			Execute()

		if err != nil {
			return fmt.Errorf("failed to upsert daily digest: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("chat_id", digest.ChatID).
			Str("date", digest.Date).
			Msg("Failed to save daily digest")
		return err
	}

	c.logger.Info().
		Int64("chat_id", digest.ChatID).
		Str("date", digest.Date).
		Int("message_count", digest.MessageCount).
		Msg("Daily digest saved successfully")

	return nil
}

// DigestExistsForDate checks if a digest was already generated for the date.
func (c *Client) DigestExistsForDate(ctx context.Context, chatID int64, date string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var digests []models.DailyDigest
	operation := "check_digest_exists"

	err := c.withRetry(ctx, operation, func() error {
		data, _, err := c.client.From("daily_digests").
			Select("id", "exact", false).
			Eq("chat_id", fmt.Sprintf("%d", chatID)).
			Eq("date", date).
			Limit(1, "").
			Execute()

		if err != nil {
			return fmt.Errorf("failed to check digest existence: %w", err)
		}

		if err := json.Unmarshal(data, &digests); err != nil {
			return fmt.Errorf("failed to unmarshal digests: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("chat_id", chatID).
			Str("date", date).
			Msg("Failed to check if digest exists")
		return false, err
	}

	return len(digests) > 0, nil
}

// GetDailyDigest retrieves a stored digest, or nil when none exists.
func (c *Client) GetDailyDigest(ctx context.Context, chatID int64, date string) (*models.DailyDigest, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var digests []models.DailyDigest
	operation := "get_daily_digest"

	err := c.withRetry(ctx, operation, func() error {
		data, _, err := c.client.From("daily_digests").
			Select("*", "exact", false).
			Eq("chat_id", fmt.Sprintf("%d", chatID)).
			Eq("date", date).
			Limit(1, "").
			Execute()

		if err != nil {
			return fmt.Errorf("failed to fetch daily digest: %w", err)
		}

		if err := json.Unmarshal(data, &digests); err != nil {
			return fmt.Errorf("failed to unmarshal digest: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("chat_id", chatID).
			Str("date", date).
			Msg("Failed to get daily digest")
		return nil, err
	}

	if len(digests) == 0 {
		return nil, nil
	}

	return &digests[0], nil
}
