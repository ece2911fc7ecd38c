package handlers

import (
	"homestate/internal/logger"
	"homestate/internal/notifier"
	"homestate/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services, the document watch, and logging.
type Handler struct {
	services *service.Service
	nf       *notifier.Notifier
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, nf *notifier.Notifier, log *logger.Logger) *Handler {
	return &Handler{services: services, nf: nf, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Hardware heartbeat. The peer is a microcontroller without a JWT, so
	// this stays outside the protected group.
	router.POST("/heartbeat", h.heartbeat)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// State stream over WebSocket (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerControlRoutes(api)
		h.registerTimerRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerControlRoutes(api *gin.RouterGroup) {
	api.GET("/status", h.getStatus)
	api.GET("/devices", h.listDevices)
	// Body example: {"on":true}
	api.POST("/devices/:id", h.setDevice)
	// Body example: {"mode":"disco"}
	api.POST("/mode", h.setMode)
	api.POST("/kill", h.setKillSwitch)
	api.POST("/reset", h.resetState)
}

func (h *Handler) registerTimerRoutes(api *gin.RouterGroup) {
	timer := api.Group("/timer")
	{
		// Body example: {"devices":["led1","fan"],"action":"off","duration_sec":300}
		timer.POST("", h.scheduleTimer)
		timer.DELETE("", h.cancelTimer)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
