// Package validate reduces parsed LLM output to bounded, typed records.
// Every validator applies the same protocol per item: required keys present,
// values coerced and truncated to their bounds, then a drop-or-default policy
// for the closed enumerations. A bad item never aborts the batch.
package validate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/telegram-digest-bot/internal/models"
)

// Bounds applied during validation; the configurable ones arrive via Limits.
const (
	maxTopicTitle   = 30
	maxTopicDetail  = 200
	maxContributor  = 20
	maxContributors = 5
	maxTopics       = 5
	maxName         = 50
	maxQuoteContent = 200
	maxRankComment  = 60
	maxRankScore    = 150
)

// Limits carries the configurable length caps
type Limits struct {
	MaxTitle  int
	MaxReason int
}

// mentionPattern matches directed-mention markup of the form "@name<12345>"
// that transcripts embed around quoted text.
var mentionPattern = regexp.MustCompile(`@[^<\s]+<\d+>\s*`)

// StripMentions removes directed-mention markup from text
func StripMentions(text string) string {
	return strings.TrimSpace(mentionPattern.ReplaceAllString(text, ""))
}

// validPersonalities is the closed set of accepted personality tags
var validPersonalities = map[string]struct{}{
	"INTJ": {}, "INTP": {}, "ENTJ": {}, "ENTP": {},
	"INFJ": {}, "INFP": {}, "ENFJ": {}, "ENFP": {},
	"ISTJ": {}, "ISFJ": {}, "ESTJ": {}, "ESFJ": {},
	"ISTP": {}, "ISFP": {}, "ESTP": {}, "ESFP": {},
}

// DefaultPersonality substitutes for tags outside the closed set. The profile
// tag is decorative, so a bad value downgrades instead of dropping the record.
const DefaultPersonality = "ENFP"

// rankDefaultScores supplies a score when the model ranked an item but left
// the numeric score out; a zero default would sort an S-ranked user last.
var rankDefaultScores = map[string]int{
	"S": 135,
	"A": 105,
	"B": 75,
	"C": 45,
	"D": 15,
}

var topicSpecs = []strSpec{
	{key: "topic", max: maxTopicTitle},
	{key: "detail", max: maxTopicDetail},
}

// Topics sanitizes topic items, capping the result to the first five
func Topics(items []map[string]any, logger zerolog.Logger) []models.Topic {
	validated := make([]models.Topic, 0, len(items))
	for _, item := range items {
		fields, ok := requiredStrings(item, topicSpecs)
		if !ok || !hasKey(item, "contributors") {
			logger.Warn().Interface("item", item).Msg("Topic item missing required fields")
			continue
		}

		contributors := contributorList(item["contributors"])
		if fields["topic"] == "" || fields["detail"] == "" || len(contributors) == 0 {
			continue
		}

		validated = append(validated, models.Topic{
			Title:        fields["topic"],
			Contributors: contributors,
			Detail:       fields["detail"],
		})
	}

	if len(validated) > maxTopics {
		validated = validated[:maxTopics]
	}
	return validated
}

// contributorList trims and bounds the contributor names
func contributorList(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}

	names := make([]string, 0, maxContributors)
	for _, c := range raw {
		name := strings.TrimSpace(stringValue(c))
		if name == "" {
			continue
		}
		names = append(names, truncate(name, maxContributor))
		if len(names) == maxContributors {
			break
		}
	}
	return names
}

// TitledProfiles sanitizes title items. An out-of-set personality tag is
// replaced with the default rather than dropping the record.
func TitledProfiles(items []map[string]any, userStats map[string]*models.UserStats, limits Limits, logger zerolog.Logger) []models.TitledProfile {
	specs := []strSpec{
		{key: "name", max: maxName},
		{key: "title", max: limits.MaxTitle},
		{key: "personality", max: 8},
		{key: "reason", max: limits.MaxReason},
	}

	validated := make([]models.TitledProfile, 0, len(items))
	for _, item := range items {
		fields, ok := requiredStrings(item, specs)
		if !ok {
			logger.Warn().Interface("item", item).Msg("Title item missing required fields")
			continue
		}

		personality := strings.ToUpper(strings.TrimSpace(fields["personality"]))
		if _, valid := validPersonalities[personality]; !valid {
			logger.Warn().Str("personality", personality).Msg("Invalid personality tag, using default")
			personality = DefaultPersonality
		}

		if fields["name"] == "" || fields["title"] == "" || fields["reason"] == "" {
			continue
		}

		validated = append(validated, models.TitledProfile{
			Name:        fields["name"],
			Title:       fields["title"],
			Personality: personality,
			Reason:      fields["reason"],
			UserID:      lookupUserID(userStats, fields["name"]),
		})
	}
	return validated
}

var quoteSpecs = []strSpec{
	{key: "content", max: maxQuoteContent},
	{key: "sender", max: maxName},
}

// Quotes sanitizes quote items, stripping mention markup from the content
func Quotes(items []map[string]any, limits Limits, logger zerolog.Logger) []models.Quote {
	specs := append(quoteSpecs, strSpec{key: "reason", max: limits.MaxReason})

	validated := make([]models.Quote, 0, len(items))
	for _, item := range items {
		fields, ok := requiredStrings(item, specs)
		if !ok {
			logger.Warn().Interface("item", item).Msg("Quote item missing required fields")
			continue
		}

		content := StripMentions(fields["content"])
		if content == "" || fields["sender"] == "" || fields["reason"] == "" {
			continue
		}

		validated = append(validated, models.Quote{
			Content: content,
			Sender:  fields["sender"],
			Reason:  fields["reason"],
		})
	}
	return validated
}

var rankSpecs = []strSpec{
	{key: "name", max: maxName},
	{key: "rank", max: 8},
	{key: "comment", max: maxRankComment},
}

// RankEntries sanitizes ranking items and returns them sorted by score
// descending, stable on ties. An invalid rank letter drops the item: the rank
// is load-bearing for ordering, so no silent default is safe there.
func RankEntries(items []map[string]any, userStats map[string]*models.UserStats, logger zerolog.Logger) []models.RankEntry {
	validated := make([]models.RankEntry, 0, len(items))
	for _, item := range items {
		fields, ok := requiredStrings(item, rankSpecs)
		if !ok {
			logger.Warn().Interface("item", item).Msg("Rank item missing required fields")
			continue
		}

		rank := strings.ToUpper(strings.TrimSpace(fields["rank"]))
		if _, valid := rankDefaultScores[rank]; !valid {
			logger.Warn().Str("rank", rank).Msg("Invalid rank letter, dropping item")
			continue
		}

		if fields["name"] == "" || fields["comment"] == "" {
			continue
		}

		score, numeric := intValue(item["score"])
		if numeric {
			score = clamp(score, 0, maxRankScore)
		} else {
			score = rankDefaultScores[rank]
		}

		validated = append(validated, models.RankEntry{
			Name:    fields["name"],
			Rank:    rank,
			Score:   score,
			Comment: fields["comment"],
			UserID:  lookupUserID(userStats, fields["name"]),
		})
	}

	sort.SliceStable(validated, func(i, j int) bool {
		return validated[i].Score > validated[j].Score
	})
	return validated
}

var profileStringSpecs = []strSpec{
	{key: "active_time", max: 30},
	{key: "fun_comment", max: 60},
	{key: "topic_comment", max: 60},
	{key: "rank_title", max: 30},
	{key: "rank_desc", max: 70},
	{key: "mood_reason", max: 50},
}

var profileRequiredKeys = []string{
	"tags", "active_time", "fun_score", "fun_comment",
	"topic_leadership", "topic_comment", "rank_title", "rank_desc",
	"mood", "mood_score", "mood_reason",
}

// Profile sanitizes a single-user profile object. Unlike the batch
// validators there are no siblings to fall back on, so any missing field or
// empty required string drops the whole profile.
func Profile(item map[string]any, logger zerolog.Logger) *models.Profile {
	for _, key := range profileRequiredKeys {
		if !hasKey(item, key) {
			logger.Warn().Str("key", key).Msg("Profile missing required field")
			return nil
		}
	}

	fields, _ := requiredStrings(item, profileStringSpecs)

	tags := profileTags(item["tags"])
	if len(tags) == 0 {
		logger.Warn().Msg("Profile has no usable tags")
		return nil
	}

	for _, key := range []string{"active_time", "fun_comment", "topic_comment", "rank_title", "rank_desc", "mood_reason"} {
		if fields[key] == "" {
			logger.Warn().Str("key", key).Msg("Profile field empty after sanitizing")
			return nil
		}
	}

	mood := stringValue(item["mood"])
	switch mood {
	case models.MoodPositive, models.MoodNeutral, models.MoodNegative:
	default:
		mood = models.MoodNeutral
	}

	return &models.Profile{
		Tags:            tags,
		ActiveTime:      fields["active_time"],
		FunScore:        clampedInt(item, "fun_score", 0, 100, 50),
		FunComment:      fields["fun_comment"],
		TopicLeadership: clampedInt(item, "topic_leadership", 0, 100, 50),
		TopicComment:    fields["topic_comment"],
		RankTitle:       fields["rank_title"],
		RankDesc:        fields["rank_desc"],
		Mood:            mood,
		MoodScore:       clampedInt(item, "mood_score", 0, 100, 50),
		MoodReason:      fields["mood_reason"],
	}
}

// profileTags keeps at most three tags of at least three runes each,
// truncated to eighteen.
func profileTags(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}

	tags := make([]string, 0, 3)
	for _, t := range raw {
		tag := strings.TrimSpace(stringValue(t))
		if len([]rune(tag)) < 3 {
			continue
		}
		tags = append(tags, truncate(tag, 18))
		if len(tags) == 3 {
			break
		}
	}
	return tags
}

// lookupUserID finds the user id whose aggregated nickname matches name.
// Best effort: an empty result is normal, never an error.
func lookupUserID(userStats map[string]*models.UserStats, name string) string {
	for uid, stats := range userStats {
		if stats.Nickname == name {
			return uid
		}
	}
	return ""
}

func hasKey(item map[string]any, key string) bool {
	_, ok := item[key]
	return ok
}
