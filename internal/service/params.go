package service

import (
	"errors"
	"fmt"
	"time"

	"homestate/internal/models"
)

// ScheduleParams describes one timer request.
type ScheduleParams struct {
	Devices     []models.DeviceID // targets; at least one
	Action      models.Action     // "on" | "off"
	DurationSec int               // 1..86400
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "TIMER_SET", "TIMER_FIRED", "DEVICE_TOGGLE", ...
}

// ErrValidation marks requests rejected before anything touches the store.
// Handlers map it to 400; every specific validation error wraps it.
var ErrValidation = errors.New("invalid request")

var (
	ErrUnknownDevice    = fmt.Errorf("%w: unknown device", ErrValidation)
	ErrNoDevices        = fmt.Errorf("%w: at least one device is required", ErrValidation)
	ErrInvalidAction    = fmt.Errorf("%w: action must be on or off", ErrValidation)
	ErrInvalidDuration  = fmt.Errorf("%w: duration must be %d..%d seconds", ErrValidation, models.MinTimerSeconds, models.MaxTimerSeconds)
	ErrInvalidMode      = fmt.Errorf("%w: mode must be normal, wave, pulse, or disco", ErrValidation)
	ErrInvalidTimeRange = fmt.Errorf("%w: from must be <= to", ErrValidation)
)
