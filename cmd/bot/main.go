package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/telegram-digest-bot/internal/analysis"
	"github.com/telegram-digest-bot/internal/bot"
	"github.com/telegram-digest-bot/internal/config"
	"github.com/telegram-digest-bot/internal/digest"
	"github.com/telegram-digest-bot/internal/llm"
	"github.com/telegram-digest-bot/internal/ratelimit"
	"github.com/telegram-digest-bot/internal/scheduler"
	"github.com/telegram-digest-bot/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.Environment)
	logger.Info().
		Str("environment", cfg.Environment).
		Str("timezone", cfg.Timezone).
		Bool("auto_digest", cfg.AutoDigestEnabled).
		Str("digest_time", cfg.DigestTime).
		Msg("Starting Telegram Digest Bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage client
	logger.Info().Msg("Initializing Supabase client...")
	storageClient, err := storage.NewClient(
		cfg.SupabaseURL,
		cfg.SupabaseKey,
		cfg.SupabaseTimeout,
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create storage client")
	}

	if err := storageClient.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Supabase")
	}
	logger.Info().Msg("Supabase connection successful")

	// Initialize LLM client
	logger.Info().Msg("Initializing Gemini LLM client...")
	llmClient := llm.NewClient(cfg.GeminiAPIKey, cfg.GeminiTimeout, cfg, logger)
	defer func() {
		if err := llmClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close LLM client")
		}
	}()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", cfg.Timezone).
			Msg("Failed to load timezone, using local time")
		loc = time.Local
	}

	// Initialize analysis pipeline
	analyzer := analysis.New(llmClient, storageClient, cfg, loc, logger)
	digestService := digest.NewService(storageClient, storageClient, analyzer, cfg, loc, logger)

	// Initialize rate limiter
	logger.Info().Msg("Initializing rate limiter...")
	limiter, err := ratelimit.NewLimiter(
		storageClient,
		cfg.Timezone,
		cfg.MyDigestDailyLimit,
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create rate limiter")
	}

	// Initialize bot
	logger.Info().Msg("Initializing Telegram bot...")
	telegramBot, err := bot.New(cfg, storageClient, digestService, limiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create bot")
	}

	logger.Info().
		Str("username", telegramBot.GetUsername()).
		Interface("allowed_chat_ids", cfg.AllowedChatIDs).
		Msg("Bot initialized successfully")

	// Initialize the nightly digest scheduler
	sched := scheduler.New(cfg, func(jobCtx context.Context, date string) error {
		var firstErr error
		for _, chatID := range cfg.AllowedChatIDs {
			// Guards against double delivery after a restart mid-window.
			exists, err := storageClient.DigestExistsForDate(jobCtx, chatID, date)
			if err == nil && exists {
				logger.Info().Int64("chat_id", chatID).Str("date", date).
					Msg("Digest already generated, skipping")
				continue
			}
			text, err := digestService.ChatDigest(jobCtx, chatID, date)
			if err != nil {
				if err == digest.ErrNotEnoughMessages {
					continue
				}
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if err := telegramBot.SendMessage(chatID, text); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}, logger)
	sched.Start()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start bot in a goroutine
	botErrChan := make(chan error, 1)
	go func() {
		if err := telegramBot.Start(ctx); err != nil {
			botErrChan <- err
		}
	}()

	logger.Info().Msg("Bot is running. Press Ctrl+C to stop.")

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Received termination signal")
	case err := <-botErrChan:
		logger.Error().Err(err).Msg("Bot stopped with error")
	}

	// Graceful shutdown
	logger.Info().Msg("Initiating graceful shutdown...")
	cancel()

	logger.Info().Msg("Stopping scheduler...")
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		telegramBot.Stop() // This will wait for WaitGroup internally
		close(done)
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Warn().Msg("Shutdown timeout exceeded, some requests may be lost")
	case <-done:
		logger.Info().Msg("Graceful shutdown completed")
	}

	logger.Info().Msg("Bot stopped")
}

// setupLogger configures and returns a zerolog logger
func setupLogger(level, environment string) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	var logger zerolog.Logger
	if environment == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Caller().Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	return logger
}
