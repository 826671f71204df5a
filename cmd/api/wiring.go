package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/recipick/backend/config"
	"github.com/recipick/backend/internal/database"
	"github.com/recipick/backend/internal/llm"
	"github.com/recipick/backend/internal/storage"
)

// newRedis connects when Redis is configured. An unreachable server disables
// rate limiting instead of failing startup.
func newRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.RedisEnabled() {
		logger.Info("redis not configured, rate limiting disabled")
		return nil, nil
	}
	client, err := database.NewRedisClient(ctx, cfg, logger)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		return nil, nil
	}
	return client, nil
}

// newLLMClient returns the breaker-wrapped API client, or llm.Unavailable
// when no key is configured so every generation path falls back.
func newLLMClient(cfg *config.Config, logger *zap.Logger) llm.Client {
	client, err := llm.Open(llmConfig(cfg), logger)
	if err != nil {
		logger.Warn("text generation disabled", zap.Error(err))
		return client
	}
	logger.Info("text generation enabled",
		zap.String("base_url", cfg.LLMBaseURL),
		zap.String("model", cfg.LLMModel))
	return client
}

func llmConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	}
}

func newImageResolver(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage.ImageResolver, error) {
	if !cfg.S3Enabled() {
		return storage.NewImageResolver(cfg.DefaultImageURL, "", nil, cfg.S3PresignTTL, logger), nil
	}
	s3Client, err := config.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("serving recipe images from s3", zap.String("bucket", cfg.S3Bucket))
	return storage.NewS3ImageResolver(s3Client, cfg.DefaultImageURL, cfg.S3Bucket, cfg.S3PresignTTL, logger), nil
}
