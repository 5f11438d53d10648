package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"codelive/internal/delivery/http/middleware"
	"codelive/internal/usecase"
	"codelive/internal/ws"
)

// RouterDeps carries everything the router wires together.
type RouterDeps struct {
	RunUC           *usecase.RunCodeUsecase
	Hub             *ws.Hub
	Logger          *zap.Logger
	RateLimitPerMin int
	MaxBodyBytes    int64
	AllowedOrigin   string
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps *RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(deps.AllowedOrigin))
	router.Use(middleware.Logger(deps.Logger))

	// Metrics and health (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	healthHandler := NewHealthHandler(deps.Logger)
	router.GET("/health", healthHandler.Health)

	langHandler := NewLanguageHandler()
	router.GET("/languages", langHandler.List)

	// Room channel
	wsHandler := NewWSHandler(deps.Hub, deps.AllowedOrigin, deps.Logger)
	router.GET("/ws", wsHandler.Serve)

	// Execution endpoint (rate limited, body capped)
	runHandler := NewRunHandler(deps.RunUC, deps.Logger)
	router.POST("/run",
		middleware.RateLimiter(deps.RateLimitPerMin),
		middleware.BodySizeLimit(deps.MaxBodyBytes),
		runHandler.Run,
	)

	return router
}
