package stats

import (
	"time"
	"unicode/utf8"

	"github.com/telegram-digest-bot/internal/models"
)

// Aggregate builds per-user counters from a transcript. Messages without a
// user id are skipped; a missing text degrades to zero counts rather than an
// error. The nickname recorded for a user is the one on their first message.
func Aggregate(messages []models.ChatMessage, loc *time.Location) map[string]*models.UserStats {
	if loc == nil {
		loc = time.Local
	}

	userStats := make(map[string]*models.UserStats)
	for i := range messages {
		msg := &messages[i]
		if msg.UserID == "" {
			continue
		}

		stats, ok := userStats[msg.UserID]
		if !ok {
			stats = &models.UserStats{
				UserID:   msg.UserID,
				Nickname: msg.DisplayName(),
				Hours:    make(map[int]int),
			}
			userStats[msg.UserID] = stats
		}

		stats.MessageCount++
		stats.CharCount += utf8.RuneCountInString(msg.Text)
		stats.EmojiCount += CountEmojis(msg.Text)
		stats.Hours[msg.CreatedAt.In(loc).Hour()]++
	}

	return userStats
}

// AggregateUser applies the same counting to a single user's messages and
// additionally fills a dense 24-slot histogram for charting.
func AggregateUser(messages []models.ChatMessage, loc *time.Location) *models.UserActivity {
	if loc == nil {
		loc = time.Local
	}

	activity := &models.UserActivity{Hours: make(map[int]int)}
	for i := range messages {
		msg := &messages[i]
		if activity.UserID == "" {
			activity.UserID = msg.UserID
			activity.Nickname = msg.DisplayName()
		}
		activity.MessageCount++
		activity.CharCount += utf8.RuneCountInString(msg.Text)
		activity.EmojiCount += CountEmojis(msg.Text)
		activity.Hours[msg.CreatedAt.In(loc).Hour()]++
	}

	for h := 0; h < 24; h++ {
		activity.Hourly[h] = activity.Hours[h]
	}

	return activity
}

// HourlyDistribution counts messages per hour-of-day across the whole transcript
func HourlyDistribution(messages []models.ChatMessage, loc *time.Location) map[int]int {
	if loc == nil {
		loc = time.Local
	}

	hourly := make(map[int]int)
	for i := range messages {
		hourly[messages[i].CreatedAt.In(loc).Hour()]++
	}
	return hourly
}

// FilterUser returns the subsequence of messages sent by the given user
func FilterUser(messages []models.ChatMessage, userID string) []models.ChatMessage {
	filtered := make([]models.ChatMessage, 0, len(messages))
	for i := range messages {
		if messages[i].UserID == userID {
			filtered = append(filtered, messages[i])
		}
	}
	return filtered
}

// Participants counts distinct non-empty display names in the transcript
func Participants(messages []models.ChatMessage) int {
	seen := make(map[string]struct{})
	for i := range messages {
		if name := messages[i].DisplayName(); name != "" {
			seen[name] = struct{}{}
		}
	}
	return len(seen)
}
