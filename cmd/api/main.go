package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/recipick/backend/config"
	"github.com/recipick/backend/internal/api"
	"github.com/recipick/backend/internal/database"
	"github.com/recipick/backend/internal/logger"
	"github.com/recipick/backend/internal/middleware"
	"github.com/recipick/backend/internal/router"
	"github.com/recipick/backend/internal/server"
	"github.com/recipick/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: config.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if err := run(context.Background(), cfg, zapLogger); err != nil {
		zapLogger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := database.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := database.RunMigrations(db, cfg.MigrationsDir, logger); err != nil {
			return err
		}
	}

	var limiter *middleware.RateLimiter
	redisClient, err := newRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		if cfg.RateLimitPerWindow > 0 {
			limiter = middleware.NewChatRateLimiter(redisClient, cfg.RateLimitPerWindow, cfg.RateLimitWindow, logger)
		}
	}

	client := newLLMClient(cfg, logger)

	images, err := newImageResolver(ctx, cfg, logger)
	if err != nil {
		return err
	}

	store := service.NewRecipeService(db)
	backfill := service.NewBackfillService(store, client, service.BackfillOptions{
		Policy:            service.RetryPolicy{MaxAttempts: cfg.BackfillMaxAttempts},
		DefaultImageURL:   cfg.DefaultImageURL,
		EagerInstructions: cfg.EagerInstructions,
	}, logger)
	recommender := service.NewRecommendationService(store, backfill, logger)
	conversations := service.NewConversationService(db, cfg.HistoryTurns)
	chat := service.NewChatService(recommender, conversations, client, cfg.HistoryTurns, logger)
	instructions := service.NewInstructionService(store, client, logger)

	engine := router.SetupRouter(router.Handlers{
		Chatbot: api.NewChatbotHandler(chat, conversations, instructions, images, logger),
		Recipes: api.NewRecipeHandler(store, recommender, instructions, images, logger),
		Health:  api.NewHealthHandler(db, redisClient, logger),
	}, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		RateLimiter: limiter,
		Logger:      logger,
	})

	return server.New(cfg.Addr(), engine, logger).Start(ctx)
}
