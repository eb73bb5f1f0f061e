package models

import "time"

// ModelType represents the type of LLM model
type ModelType string

const (
	// ModelPro represents Gemini 2.5 Pro model
	// Used for complex tasks requiring deeper reasoning
	// See current rate limits: https://ai.google.dev/pricing
	ModelPro ModelType = "gemini-2.5-pro"

	// ModelFlash represents Gemini 2.0 Flash model
	// Used for fast responses with good quality
	// See current rate limits: https://ai.google.dev/pricing
	ModelFlash ModelType = "gemini-2.0-flash"
)

// String returns string representation of ModelType
func (m ModelType) String() string {
	return string(m)
}

// ChatMessage represents a stored group chat message
type ChatMessage struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"message_id"`
	ChatID    int64     `json:"chat_id"`
	UserID    string    `json:"user_id"`
	Nickname  string    `json:"nickname,omitempty"`
	CardName  string    `json:"card_name,omitempty"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the chat-local display name: the card name when the
// user set one, the account nickname otherwise.
func (m *ChatMessage) DisplayName() string {
	if m.CardName != "" {
		return m.CardName
	}
	return m.Nickname
}

// AnalysisRequestLog represents a log entry for one LLM analysis call
type AnalysisRequestLog struct {
	ID              int64     `json:"id"`
	RunID           string    `json:"run_id"`
	ChatID          int64     `json:"chat_id"`
	RequestType     string    `json:"request_type"`
	ModelUsed       string    `json:"model_used"`
	PromptLength    int       `json:"prompt_length"`
	ResponseLength  int       `json:"response_length"`
	ExecutionTimeMs int       `json:"execution_time_ms"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// DigestLimit represents daily /mydigest usage for a user
type DigestLimit struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	Date          string    `json:"date"` // Format: YYYY-MM-DD in the configured timezone
	RequestsCount int       `json:"requests_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RateLimitResult represents the result of a rate limit check
type RateLimitResult struct {
	Allowed       bool
	Remaining     int
	ResetsInHours int
}

// BotConfig represents bot configuration
type BotConfig struct {
	// Telegram settings
	TelegramToken  string
	AllowedChatIDs []int64 // List of allowed chat IDs (supports multiple chats)
	AdminUserIDs   []int64 // Users allowed to view other users' digests

	// Gemini API settings
	GeminiAPIKey  string
	GeminiTimeout int

	// Supabase settings
	SupabaseURL     string
	SupabaseKey     string
	SupabaseTimeout int

	// App settings
	Timezone    string
	LogLevel    string
	Environment string

	// LLM generation parameters
	LLMTemperature float32
	LLMTopP        float32
	LLMTopK        int32
	LLMMaxTokens   int32

	// Analysis settings
	MinMessagesForTitles int // Threshold for titled-profile / ranking eligibility
	MaxUsersForTitles    int // Cap on users sent to the LLM for titles/rankings
	MinQuoteLength       int // Quote candidate length window, in runes
	MaxQuoteLength       int
	MaxTitleLength       int // Rune caps applied during validation
	MaxReasonLength      int

	// Digest display settings
	MaxRankEntries  int  // Rank entries shown in the report
	RankShowBottom  bool // Show top-and-bottom halves instead of the top slice
	DigestModules   []string
	MyDigestModules []string

	// Daily auto digest settings
	AutoDigestEnabled bool
	DigestTime        string // HH:MM in the configured timezone
	DigestMinMessages int    // Minimum messages for the daily job to run

	// /mydigest settings
	MyDigestEnabled    bool
	MyDigestDailyLimit int
}

// IsAllowedChat checks if the given chat ID is in the allowed list
func (c *BotConfig) IsAllowedChat(chatID int64) bool {
	for _, allowedID := range c.AllowedChatIDs {
		if allowedID == chatID {
			return true
		}
	}
	return false
}

// IsAdmin checks if the given user ID is in the admin list
func (c *BotConfig) IsAdmin(userID int64) bool {
	for _, adminID := range c.AdminUserIDs {
		if adminID == userID {
			return true
		}
	}
	return false
}
