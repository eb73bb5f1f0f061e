package digest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/telegram-digest-bot/internal/analysis"
	"github.com/telegram-digest-bot/internal/models"
	"github.com/telegram-digest-bot/internal/report"
	"github.com/telegram-digest-bot/internal/stats"
)

// ErrNotEnoughMessages is returned when a day has too little activity to
// digest.
var ErrNotEnoughMessages = errors.New("not enough messages to build a digest")

// MessageSource provides a day of chat messages. Satisfied by storage.Client.
type MessageSource interface {
	GetMessagesForDate(ctx context.Context, chatID int64, date string, loc *time.Location) ([]models.ChatMessage, error)
}

// DigestStore persists finished digests. Satisfied by storage.Client.
type DigestStore interface {
	SaveDailyDigest(ctx context.Context, digest *models.DailyDigest) error
}

// RunAuditor reports how many LLM requests a pipeline run made. Stores that
// also implement it get a per-run audit line; storage.Client does.
type RunAuditor interface {
	GetRunRequestCount(ctx context.Context, runID string) (int64, error)
}

// Service runs the full digest pipeline: fetch messages, aggregate stats,
// run each configured analysis, render the report, persist it.
type Service struct {
	source    MessageSource
	store     DigestStore
	analyzer  *analysis.Analyzer
	formatter *report.Formatter
	cfg       *models.BotConfig
	loc       *time.Location
	logger    zerolog.Logger

	groupOrder [][]string
	userOrder  [][]string
}

func NewService(source MessageSource, store DigestStore, analyzer *analysis.Analyzer, cfg *models.BotConfig, loc *time.Location, logger zerolog.Logger) *Service {
	return &Service{
		source:     source,
		store:      store,
		analyzer:   analyzer,
		formatter:  report.NewFormatter(cfg),
		cfg:        cfg,
		loc:        loc,
		logger:     logger.With().Str("component", "digest").Logger(),
		groupOrder: report.ParseModuleOrder(cfg.DigestModules),
		userOrder:  report.ParseModuleOrder(cfg.MyDigestModules),
	}
}

// ChatDigest builds the group digest for one chat and date and returns the
// rendered report. Sections whose analysis fails are left out rather than
// failing the whole digest.
func (s *Service) ChatDigest(ctx context.Context, chatID int64, date string) (string, error) {
	runID := uuid.NewString()
	ctx = analysis.WithRun(ctx, analysis.RunInfo{ID: runID, ChatID: chatID})
	logger := s.logger.With().Str("run_id", runID).Int64("chat_id", chatID).Str("date", date).Logger()

	messages, err := s.source.GetMessagesForDate(ctx, chatID, date, s.loc)
	if err != nil {
		return "", fmt.Errorf("failed to fetch messages: %w", err)
	}
	if len(messages) < s.cfg.DigestMinMessages {
		logger.Info().Int("message_count", len(messages)).
			Int("minimum", s.cfg.DigestMinMessages).
			Msg("Too few messages for digest")
		return "", ErrNotEnoughMessages
	}

	logger.Info().Int("message_count", len(messages)).Msg("Building group digest")

	userStats := stats.Aggregate(messages, s.loc)
	d := &report.Digest{
		Date:             date,
		MessageCount:     len(messages),
		ParticipantCount: stats.Participants(messages),
		Hourly:           stats.HourlyDistribution(messages, s.loc),
		TopTalkers:       topTalkers(userStats),
	}

	wanted := wantedSections(s.groupOrder)
	if wanted[report.SectionTopics] {
		d.Topics = s.analyzer.Topics(ctx, messages)
	}
	if wanted[report.SectionPortraits] {
		d.Titles = s.analyzer.UserTitles(ctx, messages, userStats)
	}
	if wanted[report.SectionQuotes] {
		d.Quotes = s.analyzer.GoldenQuotes(ctx, messages)
	}
	if wanted[report.SectionRankings] {
		d.Rankings = s.analyzer.Rankings(ctx, messages, userStats)
	}
	d.Narrative = s.analyzer.Narrative(ctx, date, messages)

	text := s.formatter.Format(d, s.groupOrder)

	if s.store != nil {
		record := &models.DailyDigest{
			ChatID:           chatID,
			Date:             date,
			DigestText:       text,
			MessageCount:     d.MessageCount,
			ParticipantCount: d.ParticipantCount,
		}
		if err := s.store.SaveDailyDigest(ctx, record); err != nil {
			logger.Warn().Err(err).Msg("Failed to persist digest")
		}
	}

	s.logRunAudit(ctx, logger, runID)
	logger.Info().Int("digest_length", len(text)).Msg("Group digest built")
	return text, nil
}

// UserDigest builds the personal digest for one member of a chat.
func (s *Service) UserDigest(ctx context.Context, chatID int64, userID, date string) (string, error) {
	runID := uuid.NewString()
	ctx = analysis.WithRun(ctx, analysis.RunInfo{ID: runID, ChatID: chatID})
	logger := s.logger.With().Str("run_id", runID).Int64("chat_id", chatID).
		Str("user_id", userID).Str("date", date).Logger()

	messages, err := s.source.GetMessagesForDate(ctx, chatID, date, s.loc)
	if err != nil {
		return "", fmt.Errorf("failed to fetch messages: %w", err)
	}

	userMessages := stats.FilterUser(messages, userID)
	if len(userMessages) < 3 {
		logger.Info().Int("message_count", len(userMessages)).
			Msg("Too few messages for personal digest")
		return "", ErrNotEnoughMessages
	}

	logger.Info().Int("message_count", len(userMessages)).Msg("Building personal digest")

	activity := stats.AggregateUser(userMessages, s.loc)
	d := &report.UserDigest{
		Date:     date,
		Name:     activity.Nickname,
		Activity: activity,
	}

	wanted := wantedSections(s.userOrder)
	if wanted[report.SectionSummary] {
		d.Summary = s.analyzer.UserSummary(ctx, date, activity.Nickname, userMessages)
	}
	if wanted[report.SectionProfile] {
		d.Profile = s.analyzer.UserProfile(ctx, userMessages, activity)
	}
	if wanted[report.SectionPortraits] {
		d.Portrait = s.analyzer.UserPortrait(ctx, userMessages, activity)
	}
	if wanted[report.SectionRankings] {
		d.Rating = s.analyzer.UserRating(ctx, userMessages, activity)
	}
	if wanted[report.SectionQuotes] {
		d.Quotes = s.analyzer.UserQuotes(ctx, activity.Nickname, userMessages)
	}

	text := s.formatter.FormatUser(d, s.userOrder)
	s.logRunAudit(ctx, logger, runID)
	logger.Info().Int("digest_length", len(text)).Msg("Personal digest built")
	return text, nil
}

func (s *Service) logRunAudit(ctx context.Context, logger zerolog.Logger, runID string) {
	auditor, ok := s.store.(RunAuditor)
	if !ok {
		return
	}
	count, err := auditor.GetRunRequestCount(ctx, runID)
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to count run requests")
		return
	}
	logger.Info().Int64("llm_requests", count).Msg("Run audit")
}

func wantedSections(order [][]string) map[string]bool {
	wanted := make(map[string]bool)
	for _, group := range order {
		for _, section := range group {
			wanted[section] = true
		}
	}
	return wanted
}

func topTalkers(userStats map[string]*models.UserStats) []*models.UserStats {
	talkers := make([]*models.UserStats, 0, len(userStats))
	for _, u := range userStats {
		talkers = append(talkers, u)
	}
	sort.SliceStable(talkers, func(i, j int) bool {
		return talkers[i].MessageCount > talkers[j].MessageCount
	})
	return talkers
}
