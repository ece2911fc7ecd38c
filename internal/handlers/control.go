package handlers

import (
	"errors"
	"net/http"

	"homestate/internal/models"
	"homestate/internal/service"
	"homestate/internal/store"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusDeviceSet = "device_set"
	statusModeSet   = "mode_set"
	statusKillSet   = "kill_switch_set"
	statusResetDone = "reset"

	errSetDevice        = "failed to set device"
	errSetMode          = "failed to set mode"
	errSetKill          = "failed to set kill switch"
	errReset            = "failed to reset state"
	errGetStatus        = "failed to load status"
	errStoreUnavailable = "state store unavailable, try again"
	errInvalidBodyPref  = "invalid body: "
)

// Centralized error mapping: validation failures become 400, store outages
// 503, everything else 500 with the caller-provided message.
func (h *Handler) respondServiceError(c *gin.Context, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errStoreUnavailable})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": userMsg})
	}
}

// Respond with a status and include the current document if available
// (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.Control.Snapshot(ctx)
	if err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// Request DTO for toggling a device.
type deviceRequest struct {
	On *bool `json:"on" binding:"required"`
}

// SetDeviceRequest is an exported model for Swagger docs of the setDevice payload.
type SetDeviceRequest struct {
	// Desired stored output. Turning on also clears the kill switch.
	On bool `json:"on" example:"true"`
}

// Request DTO for setting mode.
type modeRequest struct {
	Mode string `json:"mode" binding:"required"` // normal | wave | pulse | disco
}

// SetModeRequest is an exported model for Swagger docs of the setMode payload.
type SetModeRequest struct {
	// Mode to set. Allowed: normal, wave, pulse, disco
	Mode string `json:"mode" example:"disco"`
}

// Request DTO for the kill switch.
type killRequest struct {
	Engaged *bool `json:"engaged" binding:"required"`
}

// SetKillRequest is an exported model for Swagger docs of the kill payload.
type SetKillRequest struct {
	// true forces every output dark; false restores the stored outputs.
	Engaged bool `json:"engaged" example:"true"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Toggle a device output
// @Description  Stores the desired output for one device. Turning on also clears the kill switch.
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        id    path   string            true  "Device id"  Enums(led1,led2,led3,fan)
// @Param        body  body   SetDeviceRequest  true  "Desired output"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/devices/{id} [post]
// @Security     BearerAuth
func (h *Handler) setDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	id := models.DeviceID(c.Param("id"))
	ctx := c.Request.Context()
	if err := h.services.Control.SetDevice(ctx, id, *req.On); err != nil {
		h.respondServiceError(c, errSetDevice, "device_set_failed", err, "device", id)
		return
	}
	h.respondWithStatusAndState(c, statusDeviceSet, gin.H{"device": id, "on": *req.On})
}

// @Summary      Set mode
// @Description  Switches the output animation mode. Any mode other than normal clears the kill switch.
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        body  body   SetModeRequest  true  "Mode payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/mode [post]
// @Security     BearerAuth
func (h *Handler) setMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.services.Control.SetMode(ctx, models.Mode(req.Mode)); err != nil {
		h.respondServiceError(c, errSetMode, "mode_set_failed", err, "mode", req.Mode)
		return
	}
	h.respondWithStatusAndState(c, statusModeSet, gin.H{"mode": req.Mode})
}

// @Summary      Kill switch
// @Description  Engages or clears the all-off override. Stored outputs are untouched, so clearing restores them.
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        body  body   SetKillRequest  true  "Kill switch payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/kill [post]
// @Security     BearerAuth
func (h *Handler) setKillSwitch(c *gin.Context) {
	var req killRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.services.Control.SetKillSwitch(ctx, *req.Engaged); err != nil {
		h.respondServiceError(c, errSetKill, "kill_switch_failed", err, "engaged", *req.Engaged)
		return
	}
	h.respondWithStatusAndState(c, statusKillSet, gin.H{"engaged": *req.Engaged})
}

// @Summary      Reset shared state
// @Description  Replaces the whole document with defaults and drops any pending timer.
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/reset [post]
// @Security     BearerAuth
func (h *Handler) resetState(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Control.Reset(ctx); err != nil {
		h.respondServiceError(c, errReset, "reset_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusResetDone, gin.H{})
}
