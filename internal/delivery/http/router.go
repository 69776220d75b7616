package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lingopipe/lingopipe/internal/blobstore"
	"github.com/lingopipe/lingopipe/internal/delivery/http/middleware"
	"github.com/lingopipe/lingopipe/internal/repository"
	"github.com/lingopipe/lingopipe/internal/usecase"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	SubmitUC  *usecase.SubmitJobUsecase
	GetJobUC  *usecase.GetJobUsecase
	Users     repository.UserRepository
	Files     blobstore.Store
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Logger    *zap.Logger
	JWTSecret string
	RateLimit int
	MaxBody   int64
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(deps.Logger))

	// Metrics endpoint (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Health check (no rate limiting, no auth)
		healthHandler := NewHealthHandler(deps.Pool, deps.Redis, deps.Logger)
		v1.GET("/health", healthHandler.Health)

		authed := v1.Group("")
		authed.Use(middleware.RateLimiter(deps.RateLimit))
		if deps.JWTSecret != "" {
			authed.Use(middleware.Auth(deps.JWTSecret))
		}

		// Translation jobs
		translateHandler := NewTranslateHandler(deps.SubmitUC, deps.GetJobUC, deps.Logger)
		authed.POST("/translate", middleware.BodySizeLimit(deps.MaxBody), translateHandler.Submit)
		authed.GET("/translate/:jobId", translateHandler.GetByID)

		// WebSocket for real-time updates
		wsHandler := NewWebSocketHandler(deps.GetJobUC, deps.Logger)
		authed.GET("/translate/:jobId/stream", wsHandler.Stream)

		// Users
		userHandler := NewUserHandler(deps.Users, deps.Logger)
		authed.POST("/users", userHandler.Create)
		authed.GET("/users", userHandler.List)
		authed.GET("/users/:userId", userHandler.GetByID)
		authed.PATCH("/users/:userId", userHandler.Update)
		authed.DELETE("/users/:userId", userHandler.Delete)

		// Source documents
		if deps.Files != nil {
			fileHandler := NewFileHandler(deps.Files, deps.Logger)
			authed.POST("/files", middleware.BodySizeLimit(deps.MaxBody), fileHandler.Upload)
			authed.GET("/files/*key", fileHandler.GetURL)
			authed.DELETE("/files/*key", fileHandler.Delete)
		}
	}

	return router
}
