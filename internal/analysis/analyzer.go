package analysis

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/telegram-digest-bot/internal/models"
	"github.com/telegram-digest-bot/internal/recovery"
	"github.com/telegram-digest-bot/internal/validate"
)

// TextGenerator produces text from a prompt. Satisfied by llm.Client.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, model models.ModelType, requestType string) (string, error)
}

// RequestRecorder persists per-request audit rows. Satisfied by storage.Client.
type RequestRecorder interface {
	SaveAnalysisRequest(ctx context.Context, entry *models.AnalysisRequestLog) error
}

type runKey struct{}

// RunInfo identifies one digest pipeline run for request auditing.
type RunInfo struct {
	ID     string
	ChatID int64
}

// WithRun attaches run metadata to the context so every LLM request made
// under it is logged against the same run.
func WithRun(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runKey{}, info)
}

func runFromContext(ctx context.Context) RunInfo {
	info, _ := ctx.Value(runKey{}).(RunInfo)
	return info
}

// Analyzer turns a day of chat messages into structured digest records. Each
// analysis kind is one LLM call; a failed or unparsable call yields an empty
// result for that kind and never aborts the rest of the pipeline.
type Analyzer struct {
	generator TextGenerator
	recorder  RequestRecorder
	cfg       *models.BotConfig
	loc       *time.Location
	logger    zerolog.Logger
}

func New(generator TextGenerator, recorder RequestRecorder, cfg *models.BotConfig, loc *time.Location, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		generator: generator,
		recorder:  recorder,
		cfg:       cfg,
		loc:       loc,
		logger:    logger.With().Str("component", "analysis").Logger(),
	}
}

func (a *Analyzer) limits() validate.Limits {
	return validate.Limits{
		MaxTitle:  a.cfg.MaxTitleLength,
		MaxReason: a.cfg.MaxReasonLength,
	}
}

// generate runs one LLM request and records it. The audit row is best-effort:
// a recorder failure is logged and otherwise ignored.
func (a *Analyzer) generate(ctx context.Context, prompt string, model models.ModelType, requestType string) (string, error) {
	start := time.Now()
	text, err := a.generator.Generate(ctx, prompt, model, requestType)
	elapsed := time.Since(start)

	if a.recorder != nil {
		run := runFromContext(ctx)
		entry := &models.AnalysisRequestLog{
			RunID:           run.ID,
			ChatID:          run.ChatID,
			RequestType:     requestType,
			ModelUsed:       string(model),
			PromptLength:    len(prompt),
			ResponseLength:  len(text),
			ExecutionTimeMs: int(elapsed.Milliseconds()),
		}
		if err != nil {
			entry.ErrorMessage = err.Error()
		}
		if recErr := a.recorder.SaveAnalysisRequest(ctx, entry); recErr != nil {
			a.logger.Warn().Err(recErr).Str("request_type", requestType).
				Msg("Failed to record analysis request")
		}
	}

	if err != nil {
		a.logger.Error().Err(err).Str("request_type", requestType).
			Msg("Analysis request failed")
		return "", err
	}
	return text, nil
}

// Narrative writes the free-text recap of the day. Returns "" on failure.
func (a *Analyzer) Narrative(ctx context.Context, date string, messages []models.ChatMessage) string {
	transcript := FormatMessages(sampleTranscript(messages), a.loc)
	if transcript == "" {
		return ""
	}

	text, err := a.generate(ctx, narrativePrompt(date, transcript), models.ModelPro, "narrative")
	if err != nil {
		return ""
	}
	return text
}

// Topics extracts the day's discussion topics. Returns nil on failure.
func (a *Analyzer) Topics(ctx context.Context, messages []models.ChatMessage) []models.Topic {
	lines := topicCandidates(messages, a.loc)
	if len(lines) == 0 {
		return nil
	}

	raw, err := a.generate(ctx, topicsPrompt(renderLines(lines), 5), models.ModelFlash, "topics")
	if err != nil {
		return nil
	}

	items, ok := recovery.Array(raw)
	if !ok {
		a.logger.Warn().Str("request_type", "topics").Msg("Unrecoverable LLM response")
		return nil
	}
	return validate.Topics(items, a.logger)
}

// UserTitles awards honorary titles to the day's most active members.
// Returns nil when nobody clears the activity threshold or the call fails.
func (a *Analyzer) UserTitles(ctx context.Context, messages []models.ChatMessage, userStats map[string]*models.UserStats) []models.TitledProfile {
	users := activeUsers(userStats, a.cfg.MinMessagesForTitles, a.cfg.MaxUsersForTitles)
	if len(users) == 0 {
		return nil
	}

	raw, err := a.generate(ctx, titlesPrompt(a.activeUserBlock(messages, users), a.cfg.MaxTitleLength, a.cfg.MaxReasonLength), models.ModelFlash, "user_titles")
	if err != nil {
		return nil
	}

	items, ok := recovery.Array(raw)
	if !ok {
		a.logger.Warn().Str("request_type", "user_titles").Msg("Unrecoverable LLM response")
		return nil
	}
	return validate.TitledProfiles(items, userStats, a.limits(), a.logger)
}

// GoldenQuotes picks the day's best quotes. Returns nil on failure.
func (a *Analyzer) GoldenQuotes(ctx context.Context, messages []models.ChatMessage) []models.Quote {
	lines := quoteCandidates(messages, a.cfg.MinQuoteLength, a.cfg.MaxQuoteLength, a.loc)
	if len(lines) == 0 {
		return nil
	}

	raw, err := a.generate(ctx, quotesPrompt(renderLines(lines)), models.ModelFlash, "golden_quotes")
	if err != nil {
		return nil
	}

	items, ok := recovery.Array(raw)
	if !ok {
		a.logger.Warn().Str("request_type", "golden_quotes").Msg("Unrecoverable LLM response")
		return nil
	}
	return validate.Quotes(items, a.limits(), a.logger)
}

// Rankings grades the day's most active members on the chaos index.
// Entries come back sorted by score descending.
func (a *Analyzer) Rankings(ctx context.Context, messages []models.ChatMessage, userStats map[string]*models.UserStats) []models.RankEntry {
	users := activeUsers(userStats, a.cfg.MinMessagesForTitles, a.cfg.MaxUsersForTitles)
	if len(users) == 0 {
		return nil
	}

	raw, err := a.generate(ctx, rankingsPrompt(a.activeUserBlock(messages, users)), models.ModelFlash, "rankings")
	if err != nil {
		return nil
	}

	items, ok := recovery.Array(raw)
	if !ok {
		a.logger.Warn().Str("request_type", "rankings").Msg("Unrecoverable LLM response")
		return nil
	}
	return validate.RankEntries(items, userStats, a.logger)
}

// activeUserBlock renders the shared prompt section for the per-user group
// analyses: each eligible member with up to 10 message samples.
func (a *Analyzer) activeUserBlock(messages []models.ChatMessage, users []*models.UserStats) string {
	eligible := make(map[string]bool, len(users))
	for _, u := range users {
		eligible[u.UserID] = true
	}
	samples := userSamples(messages, eligible, 10, 100)

	block := make([]struct {
		Name     string
		Messages int
		Samples  []string
	}, 0, len(users))
	for _, u := range users {
		block = append(block, struct {
			Name     string
			Messages int
			Samples  []string
		}{Name: u.Nickname, Messages: u.MessageCount, Samples: samples[u.UserID]})
	}
	return buildUserBlock(block)
}
