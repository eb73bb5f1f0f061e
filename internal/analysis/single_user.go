package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/telegram-digest-bot/internal/models"
	"github.com/telegram-digest-bot/internal/recovery"
	"github.com/telegram-digest-bot/internal/validate"
)

// UserSummary writes the free-text recap of one member's day. Returns "" on
// failure or when the member wrote nothing.
func (a *Analyzer) UserSummary(ctx context.Context, date, name string, messages []models.ChatMessage) string {
	transcript := FormatMessages(sampleTranscript(messages), a.loc)
	if transcript == "" {
		return ""
	}

	text, err := a.generate(ctx, userSummaryPrompt(name, date, transcript), models.ModelPro, "user_summary")
	if err != nil {
		return ""
	}
	return text
}

// UserProfile builds the structured personality profile for one member.
// Returns nil on failure or when any profile field is missing or invalid.
func (a *Analyzer) UserProfile(ctx context.Context, messages []models.ChatMessage, activity *models.UserActivity) *models.Profile {
	transcript := FormatMessages(sampleTranscript(messages), a.loc)
	if transcript == "" {
		return nil
	}

	prompt := userProfilePrompt(activity.Nickname, statsBlock(messages, activity), transcript)
	raw, err := a.generate(ctx, prompt, models.ModelFlash, "user_profile")
	if err != nil {
		return nil
	}

	item, ok := recovery.Object(raw)
	if !ok {
		a.logger.Warn().Str("request_type", "user_profile").Msg("Unrecoverable LLM response")
		return nil
	}

	profile := validate.Profile(item, a.logger)
	if profile == nil {
		return nil
	}
	profile.UserID = activity.UserID
	return profile
}

// UserPortrait awards one member their honorary title for the day.
func (a *Analyzer) UserPortrait(ctx context.Context, messages []models.ChatMessage, activity *models.UserActivity) *models.TitledProfile {
	transcript := FormatMessages(sampleTranscript(messages), a.loc)
	if transcript == "" {
		return nil
	}

	prompt := userPortraitPrompt(activity.Nickname, transcript, a.cfg.MaxTitleLength, a.cfg.MaxReasonLength)
	raw, err := a.generate(ctx, prompt, models.ModelFlash, "user_portrait")
	if err != nil {
		return nil
	}

	item, ok := recovery.Object(raw)
	if !ok {
		a.logger.Warn().Str("request_type", "user_portrait").Msg("Unrecoverable LLM response")
		return nil
	}

	profiles := validate.TitledProfiles([]map[string]any{item}, soloStats(activity), a.limits(), a.logger)
	if len(profiles) == 0 {
		return nil
	}
	return &profiles[0]
}

// UserRating grades one member on the chaos index.
func (a *Analyzer) UserRating(ctx context.Context, messages []models.ChatMessage, activity *models.UserActivity) *models.RankEntry {
	transcript := FormatMessages(sampleTranscript(messages), a.loc)
	if transcript == "" {
		return nil
	}

	raw, err := a.generate(ctx, userRatingPrompt(activity.Nickname, transcript), models.ModelFlash, "user_rating")
	if err != nil {
		return nil
	}

	item, ok := recovery.Object(raw)
	if !ok {
		a.logger.Warn().Str("request_type", "user_rating").Msg("Unrecoverable LLM response")
		return nil
	}

	entries := validate.RankEntries([]map[string]any{item}, soloStats(activity), a.logger)
	if len(entries) == 0 {
		return nil
	}
	return &entries[0]
}

// UserQuotes picks one member's best lines of the day.
func (a *Analyzer) UserQuotes(ctx context.Context, name string, messages []models.ChatMessage) []models.Quote {
	lines := quoteCandidates(messages, a.cfg.MinQuoteLength, a.cfg.MaxQuoteLength, a.loc)
	if len(lines) == 0 {
		return nil
	}

	raw, err := a.generate(ctx, userQuotesPrompt(name, renderLines(lines)), models.ModelFlash, "user_quotes")
	if err != nil {
		return nil
	}

	items, ok := recovery.Array(raw)
	if !ok {
		a.logger.Warn().Str("request_type", "user_quotes").Msg("Unrecoverable LLM response")
		return nil
	}
	return validate.Quotes(items, a.limits(), a.logger)
}

// soloStats wraps one member's activity as a stats map so the shared
// validators can backfill their user id.
func soloStats(activity *models.UserActivity) map[string]*models.UserStats {
	hours := make(map[int]int)
	for h, n := range activity.Hourly {
		if n > 0 {
			hours[h] = n
		}
	}
	return map[string]*models.UserStats{
		activity.UserID: {
			UserID:       activity.UserID,
			Nickname:     activity.Nickname,
			MessageCount: activity.MessageCount,
			CharCount:    activity.CharCount,
			EmojiCount:   activity.EmojiCount,
			Hours:        hours,
		},
	}
}

// statsBlock summarizes one member's day for the profile prompt.
func statsBlock(messages []models.ChatMessage, activity *models.UserActivity) string {
	questions := 0
	texts := make([]string, 0, len(messages))
	for i := range messages {
		text := messages[i].Text
		if text == "" {
			continue
		}
		texts = append(texts, text)
		if strings.ContainsAny(text, "?？") {
			questions++
		}
	}

	avgLen := 0
	if activity.MessageCount > 0 {
		avgLen = activity.CharCount / activity.MessageCount
	}

	type hourCount struct {
		Hour  int
		Count int
	}
	busiest := make([]hourCount, 0, 24)
	for h, n := range activity.Hourly {
		if n > 0 {
			busiest = append(busiest, hourCount{Hour: h, Count: n})
		}
	}
	sort.Slice(busiest, func(i, j int) bool {
		if busiest[i].Count != busiest[j].Count {
			return busiest[i].Count > busiest[j].Count
		}
		return busiest[i].Hour < busiest[j].Hour
	})
	if len(busiest) > 3 {
		busiest = busiest[:3]
	}
	peaks := make([]string, 0, len(busiest))
	for _, hc := range busiest {
		peaks = append(peaks, fmt.Sprintf("%02d:00 (%d)", hc.Hour, hc.Count))
	}

	night := 0
	for h := 0; h < 6; h++ {
		night += activity.Hourly[h]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "- Messages: %d\n", activity.MessageCount)
	fmt.Fprintf(&sb, "- Characters: %d (avg %d per message)\n", activity.CharCount, avgLen)
	fmt.Fprintf(&sb, "- Emoji used: %d\n", activity.EmojiCount)
	fmt.Fprintf(&sb, "- Questions asked: %d\n", questions)
	fmt.Fprintf(&sb, "- Messages between midnight and 06:00: %d\n", night)
	if len(peaks) > 0 {
		fmt.Fprintf(&sb, "- Busiest hours: %s\n", strings.Join(peaks, ", "))
	}
	if words := topWords(texts, 5); len(words) > 0 {
		fmt.Fprintf(&sb, "- Favorite words: %s\n", strings.Join(words, ", "))
	}
	return sb.String()
}
