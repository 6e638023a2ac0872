package api

import (
	"net/http"

	"astro-backend/internal/notification/delivery"
	"astro-backend/pkg/config"
	"astro-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, notificationHandler *delivery.NotificationHandler, cfg *config.Config) {
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(delivery.AuthMiddleware(cfg.JWTSecret))
		notificationHandler.RegisterRoutes(notifications)
	}
}
