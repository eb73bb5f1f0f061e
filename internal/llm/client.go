package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"github.com/telegram-digest-bot/internal/models"
	"google.golang.org/api/option"
)

// Client represents a Gemini LLM client
type Client struct {
	apiKey      string
	timeout     time.Duration
	config      *models.BotConfig
	logger      zerolog.Logger
	genaiClient *genai.Client
	mu          sync.Mutex
}

// NewClient creates a new Gemini LLM client
func NewClient(apiKey string, timeout int, config *models.BotConfig, logger zerolog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		timeout: time.Duration(timeout) * time.Second,
		config:  config,
		logger:  logger.With().Str("component", "llm").Logger(),
	}
}

// getClient returns or creates a genai client (thread-safe)
func (c *Client) getClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.genaiClient != nil {
		return c.genaiClient, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c.genaiClient = client
	c.logger.Info().Msg("Gemini client created and cached")
	return c.genaiClient, nil
}

// Close closes the LLM client and releases resources
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.genaiClient != nil {
		err := c.genaiClient.Close()
		c.genaiClient = nil
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to close Gemini client")
			return err
		}
		c.logger.Info().Msg("Gemini client closed")
	}
	return nil
}

// Generate makes a single generation call. Analysis kinds degrade to empty
// results on failure, so there is no retry here; callers get exactly one
// attempt per request.
func (c *Client) Generate(ctx context.Context, prompt string, model models.ModelType, requestType string) (string, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get genai client: %w", err)
	}

	gm := client.GenerativeModel(model.String())
	gm.SetTemperature(c.config.LLMTemperature)
	gm.SetTopP(c.config.LLMTopP)
	gm.SetTopK(c.config.LLMTopK)
	gm.SetMaxOutputTokens(c.config.LLMMaxTokens)

	c.logger.Debug().
		Str("model", model.String()).
		Str("request_type", requestType).
		Int("prompt_length", len(prompt)).
		Msg("Sending request to LLM")

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response candidates from LLM")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content parts in response")
	}

	// Extract text from all parts
	var responseText strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	text := responseText.String()

	c.logger.Info().
		Str("model", model.String()).
		Str("request_type", requestType).
		Int("response_length", len(text)).
		Dur("elapsed", time.Since(startTime)).
		Msg("LLM response generated")

	return text, nil
}
