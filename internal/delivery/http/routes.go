package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/timepiece/backend/config"
)

// SetupRouter creates and configures the Gin router.
// metricsHandler may be nil, in which case /metrics is not mounted.
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.Logger, metricsHandler http.Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.SetHTMLTemplate(homeTemplate)

	// Global middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	// Messaging webhook
	router.POST("/webhook", handler.Webhook)

	// Operator endpoints
	router.GET("/", handler.Home)
	router.GET("/test", handler.Status)
	router.GET("/products", handler.ListProducts)
	router.GET("/refresh-cache", handler.RefreshCache)
	router.POST("/refresh-cache", handler.RefreshCache)

	return router
}
