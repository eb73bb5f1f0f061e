package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/telegram-digest-bot/internal/analysis"
	"github.com/telegram-digest-bot/internal/config"
	"github.com/telegram-digest-bot/internal/digest"
	"github.com/telegram-digest-bot/internal/llm"
	"github.com/telegram-digest-bot/internal/storage"
)

// One-shot digest runner: builds a digest for one chat and date and prints
// it to stdout. Useful for previewing prompts and formatting without waiting
// for the scheduler.
func main() {
	chatID := flag.Int64("chat-id", 0, "chat to digest (required)")
	date := flag.String("date", "", "date YYYY-MM-DD (default: today)")
	userID := flag.String("user", "", "build a personal digest for this user id instead")
	noSave := flag.Bool("no-save", false, "skip persisting the digest")
	flag.Parse()

	if *chatID == 0 {
		fmt.Fprintln(os.Stderr, "usage: digest -chat-id <id> [-date YYYY-MM-DD] [-user <id>] [-no-save]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", cfg.Timezone).
			Msg("Failed to load timezone, using local time")
		loc = time.Local
	}

	day := *date
	if day == "" {
		day = time.Now().In(loc).Format("2006-01-02")
	}

	storageClient, err := storage.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseTimeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create storage client")
	}

	llmClient := llm.NewClient(cfg.GeminiAPIKey, cfg.GeminiTimeout, cfg, logger)
	defer func() {
		if err := llmClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close LLM client")
		}
	}()

	var store digest.DigestStore
	if !*noSave {
		store = storageClient
	}

	analyzer := analysis.New(llmClient, storageClient, cfg, loc, logger)
	service := digest.NewService(storageClient, store, analyzer, cfg, loc, logger)

	ctx := context.Background()

	var text string
	if *userID != "" {
		text, err = service.UserDigest(ctx, *chatID, *userID, day)
	} else {
		text, err = service.ChatDigest(ctx, *chatID, day)
	}
	if err != nil {
		logger.Fatal().Err(err).Int64("chat_id", *chatID).Str("date", day).
			Msg("Failed to build digest")
	}

	fmt.Println(text)
}
