package models

import "time"

// UserStats represents deterministic per-user counters for one aggregation pass.
// The first message seen for a user fixes the nickname for the whole pass.
type UserStats struct {
	UserID       string      `json:"user_id"`
	Nickname     string      `json:"nickname"`
	MessageCount int         `json:"message_count"`
	CharCount    int         `json:"char_count"`
	EmojiCount   int         `json:"emoji_count"`
	Hours        map[int]int `json:"hours"` // hour-of-day -> message count
}

// UserActivity is the single-user aggregation result with a dense
// 24-slot histogram for charting.
type UserActivity struct {
	UserID       string
	Nickname     string
	MessageCount int
	CharCount    int
	EmojiCount   int
	Hours        map[int]int
	Hourly       [24]int
}

// Topic represents one extracted discussion topic
type Topic struct {
	Title        string   `json:"title"`
	Contributors []string `json:"contributors"`
	Detail       string   `json:"detail"`
}

// TitledProfile represents a user with an LLM-granted title and personality tag
type TitledProfile struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Personality string `json:"personality"`
	Reason      string `json:"reason"`
	UserID      string `json:"user_id,omitempty"`
}

// Quote represents one quotable line from the transcript
type Quote struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
	Reason  string `json:"reason"`
}

// RankEntry represents one user's humorous grade in the chaos index
type RankEntry struct {
	Name    string `json:"name"`
	Rank    string `json:"rank"`  // One of S, A, B, C, D
	Score   int    `json:"score"` // 0-150, drives the ordering
	Comment string `json:"comment"`
	UserID  string `json:"user_id,omitempty"`
}

// Mood labels emitted by profile validation
const (
	MoodPositive = "positive"
	MoodNeutral  = "neutral"
	MoodNegative = "negative"
)

// Profile represents a single user's full digest profile
type Profile struct {
	UserID          string   `json:"user_id,omitempty"`
	Tags            []string `json:"tags"`
	ActiveTime      string   `json:"active_time"`
	FunScore        int      `json:"fun_score"`
	FunComment      string   `json:"fun_comment"`
	TopicLeadership int      `json:"topic_leadership"`
	TopicComment    string   `json:"topic_comment"`
	RankTitle       string   `json:"rank_title"`
	RankDesc        string   `json:"rank_desc"`
	Mood            string   `json:"mood"`
	MoodScore       int      `json:"mood_score"`
	MoodReason      string   `json:"mood_reason"`
}

// DailyDigest represents a stored generated digest for one chat and date
type DailyDigest struct {
	ID               int64     `json:"id"`
	ChatID           int64     `json:"chat_id"`
	Date             string    `json:"date"` // Format: YYYY-MM-DD in the configured timezone
	DigestText       string    `json:"digest_text"`
	MessageCount     int       `json:"message_count"`
	ParticipantCount int       `json:"participant_count"`
	CreatedAt        time.Time `json:"created_at"`
}
