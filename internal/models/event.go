package models

import "time"

// Audit event types.
const (
	EventTimerSet       = "TIMER_SET"
	EventTimerFired     = "TIMER_FIRED"
	EventTimerCancelled = "TIMER_CANCELLED"
	EventDeviceToggle   = "DEVICE_TOGGLE"
	EventModeChange     = "MODE_CHANGE"
	EventKillSwitch     = "KILL_SWITCH"
	EventReset          = "RESET"
	EventOnline         = "PRESENCE_ONLINE"
	EventOffline        = "PRESENCE_OFFLINE"
)

// HomeEvent is a single audit log entry.
type HomeEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // one of the Event* constants
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
