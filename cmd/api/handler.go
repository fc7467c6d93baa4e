package api

import (
	"net/http"
	"time"

	accountdelivery "jobtrack-backend/internal/account/delivery"
	accountrepo "jobtrack-backend/internal/account/repository"
	appdelivery "jobtrack-backend/internal/application/delivery"
	appusecase "jobtrack-backend/internal/application/usecase"
	"jobtrack-backend/internal/notification"
	"jobtrack-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	config             *config.Config
	applicationHandler *appdelivery.ApplicationHandler
	deviceHandler      *accountdelivery.DeviceHandler
	pushHandler        *notification.PushHandler
}

func NewHandler(cfg *config.Config, applications appusecase.ApplicationUsecase, tokens accountrepo.DeviceTokenRepository, push *notification.PushHandler) *Handler {
	return &Handler{
		config:             cfg,
		applicationHandler: appdelivery.NewApplicationHandler(applications),
		deviceHandler:      accountdelivery.NewDeviceHandler(tokens),
		pushHandler:        push,
	}
}

// Router builds the gin engine with CORS and all routes.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)
	return r
}

// Server returns an http.Server for addr. The caller owns ListenAndServe and Shutdown.
func (h *Handler) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
