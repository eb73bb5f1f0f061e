package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/telegram-digest-bot/internal/models"
)

// GetDigestLimit retrieves how many personal digests a user has requested on
// a date. A missing row means zero requests.
func (c *Client) GetDigestLimit(ctx context.Context, userID string, date string) (*models.DigestLimit, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := map[string]interface{}{
		"p_user_id": userID,
		"p_date":    date,
	}

	data := c.client.Rpc("get_digest_limit", "", params)
	if data == "" {
		c.logger.Debug().
			Str("user_id", userID).
			Str("date", date).
			Msg("No existing digest limit found via RPC")

		return &models.DigestLimit{
			UserID:        userID,
			Date:          date,
			RequestsCount: 0,
			UpdatedAt:     time.Now().UTC(),
		}, nil
	}

	var results []struct {
		RequestsCount int `json:"requests_count"`
	}

	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Warn().
			Err(err).
			Msg("Failed to unmarshal RPC response, returning zero count")

		return &models.DigestLimit{
			UserID:        userID,
			Date:          date,
			RequestsCount: 0,
			UpdatedAt:     time.Now().UTC(),
		}, nil
	}

	count := 0
	if len(results) > 0 {
		count = results[0].RequestsCount
	}

	c.logger.Debug().
		Str("user_id", userID).
		Str("date", date).
		Int("requests_count", count).
		Msg("Retrieved digest limit")

	return &models.DigestLimit{
		UserID:        userID,
		Date:          date,
		RequestsCount: count,
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

// IncrementDigestLimit atomically bumps a user's personal digest count for
// the date.
func (c *Client) IncrementDigestLimit(ctx context.Context, userID string, date string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	operation := "increment_digest_limit"
	err := c.withRetry(ctx, operation, func() error {
		params := map[string]interface{}{
			"p_user_id": userID,
			"p_date":    date,
		}

		result := c.client.Rpc("increment_digest_limit", "", params)
		if result == "" {
			return fmt.Errorf("failed to increment digest limit: RPC returned empty")
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("date", date).
			Msg("Failed to increment digest limit")
		return err
	}

	c.logger.Debug().
		Str("user_id", userID).
		Str("date", date).
		Msg("Digest limit incremented")

	return nil
}
