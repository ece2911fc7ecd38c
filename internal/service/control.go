package service

import (
	"context"
	"fmt"

	"homestate/internal/models"
	"homestate/internal/repository"
	"homestate/internal/store"
)

type ControlService struct {
	store  store.Store
	events repository.EventRepo
}

func NewControlService(st store.Store, events repository.EventRepo) *ControlService {
	return &ControlService{store: st, events: events}
}

// Bootstrap seeds the default document on first boot. An already populated
// document is left exactly as found, so restarts never clobber live state.
func (s *ControlService) Bootstrap(ctx context.Context) error {
	raw, err := s.store.Read(ctx, StatePath)
	if err != nil {
		return err
	}
	st, err := models.DecodeState(raw)
	if err == nil && !st.Empty() {
		return nil
	}
	return s.store.Write(ctx, StatePath, models.DefaultState())
}

// Snapshot returns the current shared document. An uninitialized store reads
// as the default document.
func (s *ControlService) Snapshot(ctx context.Context) (models.HomeState, error) {
	raw, err := s.store.Read(ctx, StatePath)
	if err != nil {
		return models.HomeState{}, err
	}
	st, err := models.DecodeState(raw)
	if err != nil {
		return models.HomeState{}, err
	}
	if st.Empty() {
		return models.DefaultState(), nil
	}
	return st, nil
}

// SetDevice flips one stored output. Turning a device on also lifts the kill
// switch in the same atomic update.
func (s *ControlService) SetDevice(ctx context.Context, id models.DeviceID, on bool) error {
	if !models.KnownDevice(id) {
		return fmt.Errorf("%w: %q", ErrUnknownDevice, id)
	}

	fields := map[string]any{
		"deviceOutputs/" + string(id): on,
	}
	if on {
		fields["killSwitch"] = false
	}
	if err := s.store.Merge(ctx, StatePath, fields); err != nil {
		return err
	}

	return s.events.Append(ctx, models.HomeEvent{
		Type:        models.EventDeviceToggle,
		Description: fmt.Sprintf("Device %s turned %s", id, onOff(on)),
		Metadata:    map[string]any{"device": string(id), "on": on},
	})
}

// SetMode switches the animation mode. Entering an animated mode counts as
// turning things on, so it lifts the kill switch too.
func (s *ControlService) SetMode(ctx context.Context, mode models.Mode) error {
	if !models.ValidMode(mode) {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	fields := map[string]any{"mode": string(mode)}
	if mode != models.ModeNormal {
		fields["killSwitch"] = false
	}
	if err := s.store.Merge(ctx, StatePath, fields); err != nil {
		return err
	}

	return s.events.Append(ctx, models.HomeEvent{
		Type:        models.EventModeChange,
		Description: "Mode changed to " + string(mode),
		Metadata:    map[string]any{"mode": string(mode)},
	})
}

// SetKillSwitch engages or clears the transient all-off override. The stored
// device booleans are deliberately untouched: clearing the switch restores
// exactly what was on before.
func (s *ControlService) SetKillSwitch(ctx context.Context, on bool) error {
	if err := s.store.Merge(ctx, StatePath, map[string]any{"killSwitch": on}); err != nil {
		return err
	}

	desc := "Kill switch cleared"
	if on {
		desc = "Kill switch engaged"
	}
	return s.events.Append(ctx, models.HomeEvent{
		Type:        models.EventKillSwitch,
		Description: desc,
		Metadata:    map[string]any{"engaged": on},
	})
}

// Reset replaces the whole document with the defaults. The full replace also
// drops any pending timer record, which disarms the countdown everywhere.
func (s *ControlService) Reset(ctx context.Context) error {
	if err := s.store.Write(ctx, StatePath, models.DefaultState()); err != nil {
		return err
	}
	return s.events.Append(ctx, models.HomeEvent{
		Type:        models.EventReset,
		Description: "State reset to defaults",
	})
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
