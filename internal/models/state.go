package models

import (
	"encoding/json"
	"time"
)

// Mode selects how the hardware derives output patterns from the stored
// device booleans when it is not simply mirroring them.
type Mode string

const (
	ModeNormal Mode = "normal" // outputs mirror deviceOutputs directly
	ModeWave   Mode = "wave"
	ModePulse  Mode = "pulse"
	ModeDisco  Mode = "disco"
)

// ValidMode reports whether m is one of the closed mode set.
func ValidMode(m Mode) bool {
	switch m {
	case ModeNormal, ModeWave, ModePulse, ModeDisco:
		return true
	}
	return false
}

// HomeState is the single shared document every client converges on. Each
// delivered snapshot is full and self-consistent, never a diff.
type HomeState struct {
	DeviceOutputs map[DeviceID]bool `json:"deviceOutputs"`
	Mode          Mode              `json:"mode"`
	KillSwitch    bool              `json:"killSwitch"`
	Timer         *TimerRecord      `json:"timer,omitempty"`
}

// DefaultState is the first-boot document: all outputs off, mode normal,
// kill switch cleared, no timer.
func DefaultState() HomeState {
	outputs := make(map[DeviceID]bool, len(registry))
	for _, d := range registry {
		outputs[d.ID] = false
	}
	return HomeState{
		DeviceOutputs: outputs,
		Mode:          ModeNormal,
		KillSwitch:    false,
		Timer:         nil,
	}
}

// Empty reports whether the document has never been initialized.
func (s HomeState) Empty() bool {
	return len(s.DeviceOutputs) == 0 && s.Mode == ""
}

// EffectiveOutputs applies the kill-switch override: when the switch is
// engaged every output reads off, while the stored booleans stay untouched.
func (s HomeState) EffectiveOutputs() map[DeviceID]bool {
	out := make(map[DeviceID]bool, len(s.DeviceOutputs))
	for id, on := range s.DeviceOutputs {
		out[id] = on && !s.KillSwitch
	}
	return out
}

// TimerView is the client-facing read of a pending timer: the persisted
// record plus the wait left, derived at read time.
type TimerView struct {
	TimerRecord
	RemainingMs int64 `json:"remainingMs"`
}

// TimerStatus derives the pending-timer view at now. Inactive and expired
// records read as no timer at all; the reconciler clears them on its own
// schedule.
func (s HomeState) TimerStatus(now time.Time) *TimerView {
	if s.Timer == nil || !s.Timer.Active {
		return nil
	}
	rem := s.Timer.Remaining(now)
	if rem == 0 {
		return nil
	}
	return &TimerView{TimerRecord: *s.Timer, RemainingMs: rem.Milliseconds()}
}

// DecodeState converts a raw store value (the JSON tree form the document
// database hands back) into a typed snapshot. A nil value decodes to the
// zero state, which Empty() reports as uninitialized.
func DecodeState(v any) (HomeState, error) {
	if v == nil {
		return HomeState{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return HomeState{}, err
	}
	var s HomeState
	if err := json.Unmarshal(b, &s); err != nil {
		return HomeState{}, err
	}
	return s, nil
}
