package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/telegram-digest-bot/internal/models"
)

// Load loads configuration from environment variables
// It first attempts to load from .env file, then reads environment variables
func Load() (*models.BotConfig, error) {
	// Try to load .env file (optional, ignore error if not found)
	_ = godotenv.Load()

	config := &models.BotConfig{
		// Telegram settings
		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		AllowedChatIDs: getEnvInt64List("ALLOWED_CHAT_IDS", nil),
		AdminUserIDs:   getEnvInt64List("ADMIN_USER_IDS", nil),

		// Gemini API settings
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiTimeout: getEnvInt("GEMINI_TIMEOUT", 60),

		// Supabase settings
		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseTimeout: getEnvInt("SUPABASE_TIMEOUT", 10),

		// App settings
		Timezone:    getEnv("TIMEZONE", "Asia/Shanghai"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "production"),

		// LLM generation parameters
		LLMTemperature: getEnvFloat32("LLM_TEMPERATURE", 0.7),
		LLMTopP:        getEnvFloat32("LLM_TOP_P", 0.95),
		LLMTopK:        int32(getEnvInt("LLM_TOP_K", 40)),
		LLMMaxTokens:   int32(getEnvInt("LLM_MAX_TOKENS", 4096)),

		// Analysis settings
		MinMessagesForTitles: getEnvInt("MIN_MESSAGES_FOR_TITLES", 5),
		MaxUsersForTitles:    getEnvInt("MAX_USERS_FOR_TITLES", 10),
		MinQuoteLength:       getEnvInt("MIN_QUOTE_LENGTH", 5),
		MaxQuoteLength:       getEnvInt("MAX_QUOTE_LENGTH", 120),
		MaxTitleLength:       getEnvInt("MAX_TITLE_LENGTH", 20),
		MaxReasonLength:      getEnvInt("MAX_REASON_LENGTH", 160),

		// Digest display settings
		MaxRankEntries:  getEnvInt("MAX_RANK_ENTRIES", 10),
		RankShowBottom:  getEnvBool("RANK_SHOW_BOTTOM", false),
		DigestModules:   getEnvList("DIGEST_MODULES", []string{"Activity", "Topics", "Portraits", "Quotes", "Rankings"}),
		MyDigestModules: getEnvList("MYDIGEST_MODULES", []string{"Activity", "Portraits,Rankings", "Quotes"}),

		// Daily auto digest settings
		AutoDigestEnabled: getEnvBool("AUTO_DIGEST_ENABLED", false),
		DigestTime:        getEnv("DIGEST_TIME", "23:00"),
		DigestMinMessages: getEnvInt("DIGEST_MIN_MESSAGES", 10),

		// /mydigest settings
		MyDigestEnabled:    getEnvBool("MYDIGEST_ENABLED", true),
		MyDigestDailyLimit: getEnvInt("MYDIGEST_DAILY_LIMIT", 3),
	}

	// Validate configuration
	if err := validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks if all required configuration values are set
func validate(cfg *models.BotConfig) error {
	if cfg.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if len(cfg.AllowedChatIDs) == 0 {
		return fmt.Errorf("ALLOWED_CHAT_IDS is required")
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseKey == "" {
		return fmt.Errorf("SUPABASE_KEY is required")
	}

	// Validate positive values
	if cfg.GeminiTimeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT must be positive, got %d", cfg.GeminiTimeout)
	}
	if cfg.SupabaseTimeout <= 0 {
		return fmt.Errorf("SUPABASE_TIMEOUT must be positive, got %d", cfg.SupabaseTimeout)
	}
	if cfg.MinMessagesForTitles <= 0 {
		return fmt.Errorf("MIN_MESSAGES_FOR_TITLES must be positive, got %d", cfg.MinMessagesForTitles)
	}
	if cfg.MaxUsersForTitles <= 0 {
		return fmt.Errorf("MAX_USERS_FOR_TITLES must be positive, got %d", cfg.MaxUsersForTitles)
	}
	if cfg.MinQuoteLength <= 0 || cfg.MaxQuoteLength < cfg.MinQuoteLength {
		return fmt.Errorf("invalid quote length window: [%d, %d]", cfg.MinQuoteLength, cfg.MaxQuoteLength)
	}
	if cfg.MaxRankEntries <= 0 {
		return fmt.Errorf("MAX_RANK_ENTRIES must be positive, got %d", cfg.MaxRankEntries)
	}
	if cfg.MyDigestDailyLimit <= 0 {
		return fmt.Errorf("MYDIGEST_DAILY_LIMIT must be positive, got %d", cfg.MyDigestDailyLimit)
	}

	// Validate digest fire time
	if _, _, err := ParseFireTime(cfg.DigestTime); err != nil {
		return fmt.Errorf("invalid DIGEST_TIME: %w", err)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %s", cfg.LogLevel)
	}

	return nil
}

// ParseFireTime parses an HH:MM string into hour and minute components
func ParseFireTime(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q out of range", s)
	}
	return hour, minute, nil
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvBool retrieves environment variable as boolean or returns default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvFloat32 retrieves environment variable as float32 or returns default value
func getEnvFloat32(key string, defaultValue float32) float32 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 32)
	if err != nil {
		return defaultValue
	}

	return float32(value)
}

// getEnvInt64List retrieves a comma-separated environment variable as an int64 slice
func getEnvInt64List(key string, defaultValue []int64) []int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []int64
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		values = append(values, value)
	}

	if len(values) == 0 {
		return defaultValue
	}
	return values
}

// getEnvList retrieves a semicolon-separated environment variable as a string slice.
// Entries may contain commas; those are kept intact and interpreted downstream
// as grouped digest modules.
func getEnvList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, part := range strings.Split(valueStr, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return defaultValue
	}
	return values
}
