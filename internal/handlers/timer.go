package handlers

import (
	"net/http"

	"homestate/internal/models"
	"homestate/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusTimerSet       = "timer_set"
	statusTimerCancelled = "timer_cancelled"

	errScheduleTimer = "failed to schedule timer"
	errCancelTimer   = "failed to cancel timer"
)

// Request DTO for scheduling a timer.
type timerRequest struct {
	Devices     []string `json:"devices" binding:"required"`
	Action      string   `json:"action" binding:"required"` // on | off
	DurationSec int      `json:"duration_sec" binding:"required"`
}

// ScheduleTimerRequest is an exported model for Swagger docs of the timer payload.
type ScheduleTimerRequest struct {
	// Target devices, at least one.
	Devices []string `json:"devices" example:"led1,fan"`
	// What to do when the timer fires. Allowed: on, off
	Action string `json:"action" example:"off"`
	// Countdown length in seconds, 1..86400.
	DurationSec int `json:"duration_sec" example:"300"`
}

// @Summary      Schedule a timer
// @Description  Persists a countdown with an absolute deadline. A new timer replaces any pending one.
// @Tags         timer
// @Accept       json
// @Produce      json
// @Param        body  body   ScheduleTimerRequest  true  "Timer payload"
// @Success      200   {object}  map[string]interface{}  "status, timer"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/timer [post]
// @Security     BearerAuth
func (h *Handler) scheduleTimer(c *gin.Context) {
	var req timerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	devices := make([]models.DeviceID, len(req.Devices))
	for i, d := range req.Devices {
		devices[i] = models.DeviceID(d)
	}

	ctx := c.Request.Context()
	rec, err := h.services.Timers.Schedule(ctx, service.ScheduleParams{
		Devices:     devices,
		Action:      models.Action(req.Action),
		DurationSec: req.DurationSec,
	})
	if err != nil {
		h.respondServiceError(c, errScheduleTimer, "timer_schedule_failed", err, "action", req.Action)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": statusTimerSet,
		"timer":  rec,
	})
}

// @Summary      Cancel the pending timer
// @Description  Deletes the pending record if there is one; cancelling nothing is not an error.
// @Tags         timer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, cancelled"
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/timer [delete]
// @Security     BearerAuth
func (h *Handler) cancelTimer(c *gin.Context) {
	cancelled, err := h.services.Timers.Cancel(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, errCancelTimer, "timer_cancel_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    statusTimerCancelled,
		"cancelled": cancelled,
	})
}
