package delivery

import (
	"log"
	"net/http"

	"jobtrack-backend/internal/account/repository"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	tokens repository.DeviceTokenRepository
}

func NewDeviceHandler(tokens repository.DeviceTokenRepository) *DeviceHandler {
	return &DeviceHandler{tokens: tokens}
}

type registerDeviceRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

// RegisterDevice stores an FCM token for the authenticated user.
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Platform == "" {
		req.Platform = "web"
	}

	userID := UserID(c)
	if err := h.tokens.SaveToken(c.Request.Context(), userID, req.Token, req.Platform); err != nil {
		log.Printf("[Devices] save token failed user=%s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "device registered"})
}
