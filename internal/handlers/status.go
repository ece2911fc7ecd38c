package handlers

import (
	"net/http"
	"time"

	"homestate/internal/models"

	"github.com/gin-gonic/gin"
)

// HeartbeatRequest is an exported model for Swagger docs of the heartbeat payload.
type HeartbeatRequest struct {
	Address        string `json:"address,omitempty" example:"10.0.0.17"`
	SignalStrength int    `json:"signalStrength,omitempty" example:"-58"`
	UptimeSeconds  int64  `json:"uptimeSeconds,omitempty" example:"86412"`
	FreeBytes      int64  `json:"freeBytes,omitempty" example:"144212"`
}

// @Summary      Combined status
// @Description  Current document, effective outputs with the kill switch applied, the pending timer with its remaining wait, and hardware liveness.
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "state, effective_outputs, timer, hardware"
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	ctx := c.Request.Context()

	st, err := h.services.Control.Snapshot(ctx)
	if err != nil {
		h.respondServiceError(c, errGetStatus, "status_load_failed", err)
		return
	}
	hw, err := h.services.Presence.Status(ctx)
	if err != nil {
		h.respondServiceError(c, errGetStatus, "status_presence_failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":             st,
		"effective_outputs": st.EffectiveOutputs(),
		"timer":             st.TimerStatus(time.Now()),
		"hardware":          hw,
	})
}

// @Summary      Device registry
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "devices"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"devices": models.Devices()})
}

// @Summary      Hardware heartbeat
// @Description  Called by the hardware peer every few seconds. The body is optional diagnostics; the reply carries the server clock so the peer can sync.
// @Tags         system
// @Accept       json
// @Produce      json
// @Param        body  body   HeartbeatRequest  false  "Peer diagnostics"
// @Success      200   {object}  map[string]interface{}  "status, serverTime"
// @Failure      400   {object}  map[string]string
// @Router       /heartbeat [post]
func (h *Handler) heartbeat(c *gin.Context) {
	var meta models.HeartbeatMeta
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&meta); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
			return
		}
	}
	if meta.Address == "" {
		meta.Address = c.ClientIP()
	}

	if err := h.services.Presence.Heartbeat(c.Request.Context(), meta); err != nil {
		h.respondServiceError(c, "failed to record heartbeat", "heartbeat_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     statusOK,
		"serverTime": time.Now().UnixMilli(),
	})
}
