package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/telegram-digest-bot/internal/models"
)

// SaveAnalysisRequest logs one LLM analysis request to the database.
func (c *Client) SaveAnalysisRequest(ctx context.Context, entry *models.AnalysisRequestLog) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	operation := "save_analysis_request"
	err := c.withRetry(ctx, operation, func() error {
		data := map[string]interface{}{
			"run_id":            entry.RunID,
			"chat_id":           entry.ChatID,
			"request_type":      entry.RequestType,
			"model_used":        entry.ModelUsed,
			"prompt_length":     entry.PromptLength,
			"response_length":   entry.ResponseLength,
			"execution_time_ms": entry.ExecutionTimeMs,
			"error_message":     entry.ErrorMessage,
			"created_at":        entry.CreatedAt,
		}

		_, _, err := c.client.From("analysis_requests").
			Insert(data, false, "", "", "").
			Execute()

		if err != nil {
			return fmt.Errorf("failed to insert analysis request: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Str("run_id", entry.RunID).
			Str("request_type", entry.RequestType).
			Msg("Failed to log analysis request")
		return err
	}

	c.logger.Debug().
		Str("run_id", entry.RunID).
		Str("request_type", entry.RequestType).
		Int("exec_time_ms", entry.ExecutionTimeMs).
		Msg("Analysis request logged")

	return nil
}

// GetRunRequestCount returns how many LLM requests one pipeline run made.
func (c *Client) GetRunRequestCount(ctx context.Context, runID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, count, err := c.client.From("analysis_requests").
		Select("id", "exact", false).
		Eq("run_id", runID).
		Execute()

	if err != nil {
		c.logger.Error().
			Err(err).
			Str("run_id", runID).
			Msg("Failed to count run requests")
		return 0, fmt.Errorf("failed to count run requests: %w", err)
	}

	return count, nil
}
