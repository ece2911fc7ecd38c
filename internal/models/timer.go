package models

import (
	"encoding/json"
	"time"
)

// Action is what a timer applies to its devices when it fires.
type Action string

const (
	ActionOn  Action = "on"
	ActionOff Action = "off"
)

// ValidAction reports whether a is a known action token.
func ValidAction(a Action) bool {
	return a == ActionOn || a == ActionOff
}

// Accepted scheduling range: one second up to a full day.
const (
	MinTimerSeconds = 1
	MaxTimerSeconds = 86400
)

// TimerRecord is the persisted description of one pending delayed change.
// Deadlines are absolute so that any process, including one that starts
// mid-countdown, can recompute its own remaining wait from the record alone.
type TimerRecord struct {
	ID        string     `json:"id"`
	Devices   []DeviceID `json:"devices"`
	Action    Action     `json:"action"`
	StartedAt int64      `json:"startedAt"` // ms since epoch
	EndsAt    int64      `json:"endsAt"`    // ms since epoch
	Active    bool       `json:"active"`
}

// Remaining is the time left until the deadline, clamped at zero. A zero
// result means the record describes an already-expired timer.
func (t TimerRecord) Remaining(now time.Time) time.Duration {
	ms := t.EndsAt - now.UnixMilli()
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// DecodeTimer converts a raw store value into a typed record. A nil value
// decodes to nil: no timer is stored.
func DecodeTimer(v any) (*TimerRecord, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var t TimerRecord
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
