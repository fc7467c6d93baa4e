package delivery

import (
	"log"
	"net/http"
	"strconv"

	accountdelivery "jobtrack-backend/internal/account/delivery"
	"jobtrack-backend/internal/application/usecase"

	"github.com/gin-gonic/gin"
)

// ApplicationHandler serves the read side of tracked applications
type ApplicationHandler struct {
	applications usecase.ApplicationUsecase
}

func NewApplicationHandler(applications usecase.ApplicationUsecase) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// ListApplications returns the user's applications, most recently updated first
// GET /api/applications?limit=50&offset=0
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	userID := accountdelivery.UserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	apps, total, err := h.applications.ListApplications(c.Request.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("[Applications] list failed user=%s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list applications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": apps,
		"total":        total,
	})
}

// GetApplication returns one application
// GET /api/applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	userID := accountdelivery.UserID(c)

	app, err := h.applications.GetApplication(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		log.Printf("[Applications] get failed user=%s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load application"})
		return
	}
	if app == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	c.JSON(http.StatusOK, app)
}

// ListEvents returns the application's events in date order
// GET /api/applications/:id/events
func (h *ApplicationHandler) ListEvents(c *gin.Context) {
	userID := accountdelivery.UserID(c)
	applicationID := c.Param("id")

	app, err := h.applications.GetApplication(c.Request.Context(), userID, applicationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load application"})
		return
	}
	if app == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	events, err := h.applications.ListEvents(c.Request.Context(), userID, applicationID)
	if err != nil {
		log.Printf("[Applications] events failed user=%s application=%s: %v", userID, applicationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
