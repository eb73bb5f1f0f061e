package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/telegram-digest-bot/internal/models"
)

// Digest carries every section of a group digest; sections the pipeline
// could not produce stay zero and are skipped when rendering.
type Digest struct {
	Date             string
	MessageCount     int
	ParticipantCount int
	Hourly           map[int]int
	TopTalkers       []*models.UserStats
	Narrative        string
	Topics           []models.Topic
	Titles           []models.TitledProfile
	Quotes           []models.Quote
	Rankings         []models.RankEntry
}

// UserDigest carries every section of a single-member digest.
type UserDigest struct {
	Date     string
	Name     string
	Activity *models.UserActivity
	Summary  string
	Profile  *models.Profile
	Portrait *models.TitledProfile
	Rating   *models.RankEntry
	Quotes   []models.Quote
}

// Formatter renders digests as Telegram Markdown.
type Formatter struct {
	maxRankEntries int
	rankShowBottom bool
}

func NewFormatter(cfg *models.BotConfig) *Formatter {
	return &Formatter{
		maxRankEntries: cfg.MaxRankEntries,
		rankShowBottom: cfg.RankShowBottom,
	}
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Format renders the group digest with sections in the configured order.
func (f *Formatter) Format(d *Digest, order [][]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Daily Digest — %s*\n", d.Date)

	for _, group := range order {
		var block strings.Builder
		for _, section := range group {
			switch section {
			case SectionActivity:
				f.activitySection(&block, d)
			case SectionTopics:
				f.topicsSection(&block, d.Topics)
			case SectionPortraits:
				f.portraitsSection(&block, d.Titles)
			case SectionQuotes:
				f.quotesSection(&block, d.Quotes)
			case SectionRankings:
				f.rankingsSection(&block, d.Rankings)
			}
		}
		if block.Len() > 0 {
			sb.WriteString("\n")
			sb.WriteString(block.String())
		}
	}

	if d.Narrative != "" {
		sb.WriteString("\n*The Day in Short*\n")
		sb.WriteString(escapeMarkdown(d.Narrative))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatUser renders a single-member digest with sections in the configured
// order.
func (f *Formatter) FormatUser(d *UserDigest, order [][]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Daily Digest for %s — %s*\n", escapeMarkdown(d.Name), d.Date)

	for _, group := range order {
		var block strings.Builder
		for _, section := range group {
			switch section {
			case SectionActivity:
				f.userActivitySection(&block, d.Activity)
			case SectionSummary:
				if d.Summary != "" {
					block.WriteString("*The Day in Short*\n")
					block.WriteString(escapeMarkdown(d.Summary))
					block.WriteString("\n")
				}
			case SectionProfile:
				f.profileSection(&block, d.Profile)
			case SectionPortraits:
				if d.Portrait != nil {
					f.portraitsSection(&block, []models.TitledProfile{*d.Portrait})
				}
			case SectionRankings:
				if d.Rating != nil {
					f.rankingsSection(&block, []models.RankEntry{*d.Rating})
				}
			case SectionQuotes:
				f.quotesSection(&block, d.Quotes)
			}
		}
		if block.Len() > 0 {
			sb.WriteString("\n")
			sb.WriteString(block.String())
		}
	}
	return sb.String()
}

func (f *Formatter) activitySection(sb *strings.Builder, d *Digest) {
	if d.MessageCount == 0 {
		return
	}
	sb.WriteString("*Activity*\n")
	fmt.Fprintf(sb, "%d messages from %d members\n", d.MessageCount, d.ParticipantCount)

	for i, stats := range d.TopTalkers {
		if i >= 5 {
			break
		}
		fmt.Fprintf(sb, "%d. %s — %d messages\n", i+1, escapeMarkdown(stats.Nickname), stats.MessageCount)
	}
	writeHourlyChart(sb, d.Hourly)
}

func (f *Formatter) userActivitySection(sb *strings.Builder, a *models.UserActivity) {
	if a == nil || a.MessageCount == 0 {
		return
	}
	sb.WriteString("*Activity*\n")
	fmt.Fprintf(sb, "%d messages, %d characters, %d emoji\n", a.MessageCount, a.CharCount, a.EmojiCount)

	hourly := make(map[int]int)
	for h, n := range a.Hourly {
		if n > 0 {
			hourly[h] = n
		}
	}
	writeHourlyChart(sb, hourly)
}

func (f *Formatter) topicsSection(sb *strings.Builder, topics []models.Topic) {
	if len(topics) == 0 {
		return
	}
	sb.WriteString("*Topics of the Day*\n")
	for i, topic := range topics {
		fmt.Fprintf(sb, "%d. *%s*\n", i+1, escapeMarkdown(topic.Title))
		if len(topic.Contributors) > 0 {
			fmt.Fprintf(sb, "   by %s\n", escapeMarkdown(strings.Join(topic.Contributors, ", ")))
		}
		if topic.Detail != "" {
			fmt.Fprintf(sb, "   %s\n", escapeMarkdown(topic.Detail))
		}
	}
}

func (f *Formatter) portraitsSection(sb *strings.Builder, titles []models.TitledProfile) {
	if len(titles) == 0 {
		return
	}
	sb.WriteString("*Titles of the Day*\n")
	for _, t := range titles {
		fmt.Fprintf(sb, "%s — *%s* (%s)\n", escapeMarkdown(t.Name), escapeMarkdown(t.Title), t.Personality)
		if t.Reason != "" {
			fmt.Fprintf(sb, "   %s\n", escapeMarkdown(t.Reason))
		}
	}
}

func (f *Formatter) profileSection(sb *strings.Builder, p *models.Profile) {
	if p == nil {
		return
	}
	sb.WriteString("*Member Profile*\n")
	if len(p.Tags) > 0 {
		fmt.Fprintf(sb, "%s\n", escapeMarkdown("#"+strings.Join(p.Tags, " #")))
	}
	if p.ActiveTime != "" {
		fmt.Fprintf(sb, "Active: %s\n", escapeMarkdown(p.ActiveTime))
	}
	fmt.Fprintf(sb, "Fun %d/100", p.FunScore)
	if p.FunComment != "" {
		fmt.Fprintf(sb, " · %s", escapeMarkdown(p.FunComment))
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Topic drive %d/100", p.TopicLeadership)
	if p.TopicComment != "" {
		fmt.Fprintf(sb, " · %s", escapeMarkdown(p.TopicComment))
	}
	sb.WriteString("\n")
	if p.RankTitle != "" {
		fmt.Fprintf(sb, "*%s*", escapeMarkdown(p.RankTitle))
		if p.RankDesc != "" {
			fmt.Fprintf(sb, " — %s", escapeMarkdown(p.RankDesc))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(sb, "Mood: %s %d/100", p.Mood, p.MoodScore)
	if p.MoodReason != "" {
		fmt.Fprintf(sb, " · %s", escapeMarkdown(p.MoodReason))
	}
	sb.WriteString("\n")
}

func (f *Formatter) quotesSection(sb *strings.Builder, quotes []models.Quote) {
	if len(quotes) == 0 {
		return
	}
	sb.WriteString("*Golden Quotes*\n")
	for _, q := range quotes {
		fmt.Fprintf(sb, "\"%s\"\n", escapeMarkdown(q.Content))
		if q.Sender != "" {
			fmt.Fprintf(sb, "   — %s", escapeMarkdown(q.Sender))
			if q.Reason != "" {
				fmt.Fprintf(sb, " (%s)", escapeMarkdown(q.Reason))
			}
			sb.WriteString("\n")
		}
	}
}

func (f *Formatter) rankingsSection(sb *strings.Builder, entries []models.RankEntry) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString("*Chaos Index*\n")

	top := entries
	var bottom []models.RankEntry
	if f.maxRankEntries > 0 && len(entries) > f.maxRankEntries {
		top = entries[:f.maxRankEntries]
		if f.rankShowBottom {
			start := len(entries) - 3
			if start < f.maxRankEntries {
				start = f.maxRankEntries
			}
			bottom = entries[start:]
		}
	}

	for i, e := range top {
		writeRankLine(sb, i+1, e)
	}
	if len(bottom) > 0 {
		sb.WriteString("…\n")
		offset := len(entries) - len(bottom)
		for i, e := range bottom {
			writeRankLine(sb, offset+i+1, e)
		}
	}
}

func writeRankLine(sb *strings.Builder, position int, e models.RankEntry) {
	fmt.Fprintf(sb, "%d. [%s] %s — %d", position, e.Rank, escapeMarkdown(e.Name), e.Score)
	if e.Comment != "" {
		fmt.Fprintf(sb, " · %s", escapeMarkdown(e.Comment))
	}
	sb.WriteString("\n")
}

// writeHourlyChart draws a text bar chart of messages per hour, skipping
// empty hours.
func writeHourlyChart(sb *strings.Builder, hourly map[int]int) {
	if len(hourly) == 0 {
		return
	}

	peak := 0
	hours := make([]int, 0, len(hourly))
	for h, n := range hourly {
		hours = append(hours, h)
		if n > peak {
			peak = n
		}
	}
	sort.Ints(hours)

	sb.WriteString("```\n")
	for _, h := range hours {
		n := hourly[h]
		width := n * 20 / peak
		if width == 0 {
			width = 1
		}
		fmt.Fprintf(sb, "%02d:00 %s %d\n", h, strings.Repeat("▇", width), n)
	}
	sb.WriteString("```\n")
}
