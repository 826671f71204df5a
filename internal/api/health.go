package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recipick/backend/internal/database"
)

// HealthHandler reports database and redis reachability.
type HealthHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

// NewHealthHandler creates the handler; redisClient may be nil.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, logger: logger}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{"database": "ok", "redis": "disabled"}

	if err := database.HealthCheck(ctx, h.db); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Warn("redis health check failed", zap.Error(err))
			checks["redis"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
	})
}
