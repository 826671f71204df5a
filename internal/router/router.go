package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/recipick/backend/internal/api"
	"github.com/recipick/backend/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by SetupRouter.
type Handlers struct {
	Chatbot *api.ChatbotHandler
	Recipes *api.RecipeHandler
	Health  *api.HealthHandler
}

// Options configures the middleware chain.
type Options struct {
	CORSOrigins []string
	// RateLimiter guards the chatbot message endpoint; nil disables it.
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, opts Options) *gin.Engine {
	router := gin.New()

	// Recovery sits inside the logger and metrics so recovered panics are
	// still recorded as 500s.
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.Recovery(opts.Logger))
	router.Use(middleware.CORS(opts.CORSOrigins))

	router.GET("/healthz", h.Health.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api")

	var limit []gin.HandlerFunc
	if opts.RateLimiter != nil {
		limit = append(limit, opts.RateLimiter.Middleware())
	}
	h.Chatbot.RegisterRoutes(apiGroup, limit...)
	h.Recipes.RegisterRoutes(apiGroup)

	return router
}
