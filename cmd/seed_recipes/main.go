// Command seed_recipes grows the catalog with generated recipes, one batch of
// five per keyword.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/recipick/backend/config"
	"github.com/recipick/backend/internal/database"
	"github.com/recipick/backend/internal/llm"
	"github.com/recipick/backend/internal/logger"
	"github.com/recipick/backend/internal/model"
	"github.com/recipick/backend/internal/service"
)

var defaultKeywords = []string{
	"찌개", "볶음", "구이", "조림", "무침", "전", "국", "덮밥", "면 요리", "반찬",
}

func main() {
	keywords := flag.String("keywords", strings.Join(defaultKeywords, ","), "Comma-separated keywords, one batch each")
	timeFilter := flag.String("time", "", "Cook-time bucket for generated recipes, e.g. 15~30분")
	serving := flag.String("serving", "", "Serving bucket for generated recipes, e.g. 2인분")
	flag.Parse()

	filter, err := model.ParseFilter([]string{*timeFilter}, *serving)
	if err != nil {
		log.Fatalf("Invalid filter: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.Open(llm.Config{
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	}, zapLogger)
	if err != nil {
		// seeding only placeholder recipes is pointless
		zapLogger.Fatal("text generation is not configured", zap.Error(err))
	}

	db, err := database.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	backfill := service.NewBackfillService(service.NewRecipeService(db), client, service.BackfillOptions{
		Policy:            service.RetryPolicy{MaxAttempts: cfg.BackfillMaxAttempts},
		DefaultImageURL:   cfg.DefaultImageURL,
		EagerInstructions: cfg.EagerInstructions,
	}, zapLogger)

	var total service.FillResult
	for _, kw := range strings.Split(*keywords, ",") {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}

		ws := service.NewWorkingSet(service.Quota)
		result, err := backfill.Fill(ctx, ws, kw, filter)
		if err != nil {
			zapLogger.Fatal("seeding failed", zap.String("keyword", kw), zap.Error(err))
		}
		total.Generated += result.Generated
		total.Fallbacks += result.Fallbacks

		zapLogger.Info("seeded keyword",
			zap.String("keyword", kw),
			zap.Strings("recipes", ws.Names()),
			zap.Int("generated", result.Generated),
			zap.Int("fallbacks", result.Fallbacks))
	}

	zapLogger.Info("seeding complete",
		zap.Int("generated", total.Generated),
		zap.Int("fallbacks", total.Fallbacks))
}
