package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/telegram-digest-bot/internal/models"
	"github.com/telegram-digest-bot/internal/storage"
)

// Limiter caps how many personal digests a user may request per local day.
type Limiter struct {
	storage    *storage.Client
	timezone   *time.Location
	dailyLimit int
	logger     zerolog.Logger
}

func NewLimiter(storage *storage.Client, timezone string, dailyLimit int, logger zerolog.Logger) (*Limiter, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", timezone, err)
	}

	return &Limiter{
		storage:    storage,
		timezone:   loc,
		dailyLimit: dailyLimit,
		logger:     logger.With().Str("component", "ratelimit").Logger(),
	}, nil
}

// CheckLimit reports whether the user may request another personal digest
// today. The day boundary follows the configured timezone.
func (l *Limiter) CheckLimit(ctx context.Context, userID string) (*models.RateLimitResult, error) {
	now := time.Now().In(l.timezone)
	dateStr := now.Format("2006-01-02")

	limit, err := l.storage.GetDigestLimit(ctx, userID, dateStr)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("date", dateStr).
			Msg("Failed to get digest limit")
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}

	remaining := l.dailyLimit - limit.RequestsCount
	if remaining < 0 {
		remaining = 0
	}

	l.logger.Debug().
		Str("user_id", userID).
		Int("used", limit.RequestsCount).
		Int("remaining", remaining).
		Msg("Checking digest limit")

	return &models.RateLimitResult{
		Allowed:       remaining > 0,
		Remaining:     remaining,
		ResetsInHours: l.hoursUntilMidnight(now),
	}, nil
}

// IncrementUsage records one personal digest request for today.
func (l *Limiter) IncrementUsage(ctx context.Context, userID string) error {
	now := time.Now().In(l.timezone)
	dateStr := now.Format("2006-01-02")

	if err := l.storage.IncrementDigestLimit(ctx, userID, dateStr); err != nil {
		l.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("Failed to increment usage")
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	l.logger.Debug().
		Str("user_id", userID).
		Str("date", dateStr).
		Msg("Usage incremented")

	return nil
}

// hoursUntilMidnight calculates hours until the next local midnight
func (l *Limiter) hoursUntilMidnight(now time.Time) int {
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, l.timezone)
	hours := int(midnight.Sub(now).Hours())
	if hours < 1 {
		hours = 1
	}
	return hours
}
