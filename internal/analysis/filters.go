package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/telegram-digest-bot/internal/models"
	"github.com/telegram-digest-bot/internal/validate"
)

// Transcript size cap for free-text narrative prompts. When the day has more
// messages, the head and tail halves are kept so the story has both ends.
const maxNarrativeMessages = 500

var wordPattern = regexp.MustCompile(`\p{Han}+|[a-zA-Z]+`)

// FormatMessages renders a transcript as "[HH:MM:SS] name: text" lines,
// skipping messages without text.
func FormatMessages(messages []models.ChatMessage, loc *time.Location) string {
	var sb strings.Builder
	for i := range messages {
		msg := &messages[i]
		if msg.Text == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n",
			msg.CreatedAt.In(loc).Format("15:04:05"), msg.DisplayName(), msg.Text))
	}
	return sb.String()
}

// sampleTranscript bounds the transcript for narrative prompts
func sampleTranscript(messages []models.ChatMessage) []models.ChatMessage {
	if len(messages) <= maxNarrativeMessages {
		return messages
	}
	half := maxNarrativeMessages / 2
	sampled := make([]models.ChatMessage, 0, maxNarrativeMessages)
	sampled = append(sampled, messages[:half]...)
	sampled = append(sampled, messages[len(messages)-half:]...)
	return sampled
}

// contentLine is one cleaned transcript line offered to the LLM
type contentLine struct {
	Sender  string
	Clock   string
	Content string
}

// topicCandidates keeps substantive lines for topic extraction: mention
// markup stripped, very short texts and commands skipped.
func topicCandidates(messages []models.ChatMessage, loc *time.Location) []contentLine {
	lines := make([]contentLine, 0, len(messages))
	for i := range messages {
		msg := &messages[i]
		text := validate.StripMentions(msg.Text)
		if utf8.RuneCountInString(text) <= 2 || strings.HasPrefix(text, "/") {
			continue
		}
		lines = append(lines, contentLine{
			Sender:  msg.DisplayName(),
			Clock:   msg.CreatedAt.In(loc).Format("15:04"),
			Content: text,
		})
	}
	return lines
}

// quoteCandidates keeps lines inside the configured length window that do not
// look like links or commands.
func quoteCandidates(messages []models.ChatMessage, minLen, maxLen int, loc *time.Location) []contentLine {
	lines := make([]contentLine, 0, len(messages))
	for i := range messages {
		msg := &messages[i]
		text := validate.StripMentions(msg.Text)
		n := utf8.RuneCountInString(text)
		if n < minLen || n > maxLen {
			continue
		}
		if strings.HasPrefix(text, "http") || strings.HasPrefix(text, "www") || strings.HasPrefix(text, "/") {
			continue
		}
		lines = append(lines, contentLine{
			Sender:  msg.DisplayName(),
			Clock:   msg.CreatedAt.In(loc).Format("15:04"),
			Content: text,
		})
	}
	return lines
}

func renderLines(lines []contentLine) string {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n", line.Clock, line.Sender, line.Content))
	}
	return sb.String()
}

// activeUsers returns users at or above the message threshold, ordered by
// message count descending and capped to maxUsers.
func activeUsers(userStats map[string]*models.UserStats, minMessages, maxUsers int) []*models.UserStats {
	eligible := make([]*models.UserStats, 0, len(userStats))
	for _, stats := range userStats {
		if stats.MessageCount >= minMessages {
			eligible = append(eligible, stats)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].MessageCount > eligible[j].MessageCount
	})

	if len(eligible) > maxUsers {
		eligible = eligible[:maxUsers]
	}
	return eligible
}

// userSamples collects up to perUser sample texts (at least 5 runes each,
// truncated to maxRunes) for every user in the eligible set.
func userSamples(messages []models.ChatMessage, eligible map[string]bool, perUser, maxRunes int) map[string][]string {
	samples := make(map[string][]string)
	for i := range messages {
		msg := &messages[i]
		if !eligible[msg.UserID] {
			continue
		}
		if utf8.RuneCountInString(msg.Text) < 5 {
			continue
		}
		if len(samples[msg.UserID]) >= perUser {
			continue
		}
		samples[msg.UserID] = append(samples[msg.UserID], truncateRunes(msg.Text, maxRunes))
	}
	return samples
}

// topWords returns the most frequent words of at least two runes
func topWords(texts []string, limit int) []string {
	freq := make(map[string]int)
	for _, text := range texts {
		for _, word := range wordPattern.FindAllString(text, -1) {
			if utf8.RuneCountInString(word) >= 2 {
				freq[word]++
			}
		}
	}

	words := make([]string, 0, len(freq))
	for word := range freq {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > limit {
		words = words[:limit]
	}
	return words
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
