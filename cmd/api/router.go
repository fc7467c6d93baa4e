package api

import (
	"net/http"

	accountdelivery "jobtrack-backend/internal/account/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// Pub/Sub push (OIDC checked inside the handler when configured)
		api.POST("/pubsub/gmail/push", h.pushHandler.HandleGmailPush)

		// Application routes (protected)
		applications := api.Group("/applications")
		applications.Use(accountdelivery.AuthMiddleware(h.config.JWTSecret))
		{
			applications.GET("", h.applicationHandler.ListApplications)
			applications.GET("/:id", h.applicationHandler.GetApplication)
			applications.GET("/:id/events", h.applicationHandler.ListEvents)
		}

		// Device routes (protected)
		devices := api.Group("/devices")
		devices.Use(accountdelivery.AuthMiddleware(h.config.JWTSecret))
		{
			devices.POST("", h.deviceHandler.RegisterDevice)
		}
	}
}
