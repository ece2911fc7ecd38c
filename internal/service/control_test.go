package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"homestate/internal/models"
	"homestate/internal/repository/db"
	"homestate/internal/store"
)

// newTestStore opens a fresh in-memory document store.
func newTestStore(t *testing.T) store.Store {
	t.Helper()
	sqlDB, err := db.InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return store.NewSQLite(sqlDB)
}

// recEventRepo records appended events in memory. Appends may come from the
// countdown goroutine, hence the lock.
type recEventRepo struct {
	mu        sync.Mutex
	appendErr error
	events    []models.HomeEvent
}

func (f *recEventRepo) Append(ctx context.Context, e models.HomeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.events = append(f.events, e)
	return nil
}

func (f *recEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.HomeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.HomeEvent
	for _, e := range f.events {
		if typ == "" || e.Type == typ {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *recEventRepo) byType(typ string) []models.HomeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.HomeEvent
	for _, e := range f.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// readState loads and decodes the shared document straight from the store.
func readState(t *testing.T, st store.Store) models.HomeState {
	t.Helper()
	raw, err := st.Read(context.Background(), StatePath)
	if err != nil {
		t.Fatalf("Read state: %v", err)
	}
	s, err := models.DecodeState(raw)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	return s
}

func newControlFixture(t *testing.T) (*ControlService, store.Store, *recEventRepo) {
	t.Helper()
	st := newTestStore(t)
	events := &recEventRepo{}
	return NewControlService(st, events), st, events
}

func TestControl_Bootstrap_SeedsDefaultsOnce(t *testing.T) {
	svc, st, _ := newControlFixture(t)
	ctx := context.Background()

	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	got := readState(t, st)
	if got.Mode != models.ModeNormal || got.KillSwitch || got.Timer != nil {
		t.Fatalf("seeded state = %+v, want defaults", got)
	}
	for _, id := range models.DeviceIDs() {
		on, ok := got.DeviceOutputs[id]
		if !ok || on {
			t.Fatalf("device %s = %v/%v, want present and off", id, on, ok)
		}
	}

	// a second bootstrap must not clobber live state
	if err := svc.SetDevice(ctx, models.DeviceFan, true); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap again: %v", err)
	}
	if got := readState(t, st); !got.DeviceOutputs[models.DeviceFan] {
		t.Fatalf("re-bootstrap reset the fan output")
	}
}

func TestControl_Snapshot_UninitializedReadsAsDefaults(t *testing.T) {
	svc, _, _ := newControlFixture(t)

	got, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got.Mode != models.ModeNormal || len(got.DeviceOutputs) != len(models.DeviceIDs()) {
		t.Fatalf("snapshot = %+v, want default document", got)
	}
}

func TestControl_SetDevice_UnknownDeviceRejected(t *testing.T) {
	svc, st, events := newControlFixture(t)

	err := svc.SetDevice(context.Background(), "toaster", true)
	if !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("err = %v, want ErrUnknownDevice", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want it to wrap ErrValidation", err)
	}
	if got := readState(t, st); !got.Empty() {
		t.Fatalf("store touched by rejected request: %+v", got)
	}
	if len(events.byType(models.EventDeviceToggle)) != 0 {
		t.Fatalf("event logged for rejected request")
	}
}

func TestControl_SetDevice_TogglesOnlyTarget(t *testing.T) {
	svc, st, events := newControlFixture(t)
	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if err := svc.SetDevice(ctx, models.DeviceLed2, true); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}

	got := readState(t, st)
	if !got.DeviceOutputs[models.DeviceLed2] {
		t.Fatalf("led2 still off")
	}
	if got.DeviceOutputs[models.DeviceLed1] || got.DeviceOutputs[models.DeviceFan] {
		t.Fatalf("merge touched sibling outputs: %+v", got.DeviceOutputs)
	}
	if evs := events.byType(models.EventDeviceToggle); len(evs) != 1 {
		t.Fatalf("toggle events = %d, want 1", len(evs))
	}
}

func TestControl_TurnOnLiftsKillSwitch(t *testing.T) {
	svc, st, _ := newControlFixture(t)
	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if err := svc.SetKillSwitch(ctx, true); err != nil {
		t.Fatalf("SetKillSwitch: %v", err)
	}

	if err := svc.SetDevice(ctx, models.DeviceLed1, true); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}

	got := readState(t, st)
	if got.KillSwitch {
		t.Fatalf("kill switch survived a turn-on")
	}
	if !got.DeviceOutputs[models.DeviceLed1] {
		t.Fatalf("led1 not on")
	}
}

func TestControl_TurnOffLeavesKillSwitchAlone(t *testing.T) {
	svc, st, _ := newControlFixture(t)
	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if err := svc.SetKillSwitch(ctx, true); err != nil {
		t.Fatalf("SetKillSwitch: %v", err)
	}

	if err := svc.SetDevice(ctx, models.DeviceLed1, false); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}
	if got := readState(t, st); !got.KillSwitch {
		t.Fatalf("turn-off cleared the kill switch")
	}
}

func TestControl_KillSwitch_OverridesWithoutRewritingOutputs(t *testing.T) {
	svc, st, events := newControlFixture(t)
	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if err := svc.SetDevice(ctx, models.DeviceLed3, true); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}

	if err := svc.SetKillSwitch(ctx, true); err != nil {
		t.Fatalf("SetKillSwitch: %v", err)
	}

	got := readState(t, st)
	if !got.DeviceOutputs[models.DeviceLed3] {
		t.Fatalf("stored output rewritten by kill switch")
	}
	if eff := got.EffectiveOutputs(); eff[models.DeviceLed3] {
		t.Fatalf("effective output still on under kill switch")
	}

	// clearing restores exactly what was stored
	if err := svc.SetKillSwitch(ctx, false); err != nil {
		t.Fatalf("SetKillSwitch off: %v", err)
	}
	got = readState(t, st)
	if eff := got.EffectiveOutputs(); !eff[models.DeviceLed3] {
		t.Fatalf("clearing the switch did not restore led3")
	}
	if evs := events.byType(models.EventKillSwitch); len(evs) != 2 {
		t.Fatalf("kill switch events = %d, want 2", len(evs))
	}
}

func TestControl_SetMode_ValidationAndKillClear(t *testing.T) {
	svc, st, _ := newControlFixture(t)
	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if err := svc.SetMode(ctx, "strobe"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("err = %v, want ErrInvalidMode", err)
	}

	if err := svc.SetKillSwitch(ctx, true); err != nil {
		t.Fatalf("SetKillSwitch: %v", err)
	}
	if err := svc.SetMode(ctx, models.ModeDisco); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	got := readState(t, st)
	if got.Mode != models.ModeDisco {
		t.Fatalf("mode = %q, want disco", got.Mode)
	}
	if got.KillSwitch {
		t.Fatalf("entering an animated mode left the kill switch engaged")
	}

	// back to normal must not clear an engaged switch
	if err := svc.SetKillSwitch(ctx, true); err != nil {
		t.Fatalf("SetKillSwitch: %v", err)
	}
	if err := svc.SetMode(ctx, models.ModeNormal); err != nil {
		t.Fatalf("SetMode normal: %v", err)
	}
	if got := readState(t, st); !got.KillSwitch {
		t.Fatalf("switching to normal cleared the kill switch")
	}
}

func TestControl_Reset_RestoresDefaultsAndDropsTimer(t *testing.T) {
	svc, st, events := newControlFixture(t)
	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if err := svc.SetDevice(ctx, models.DeviceLed1, true); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}
	rec := models.TimerRecord{ID: "t-1", Devices: []models.DeviceID{models.DeviceLed1}, Action: models.ActionOff, Active: true}
	if err := st.Write(ctx, TimerPath, rec); err != nil {
		t.Fatalf("seed timer: %v", err)
	}

	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	got := readState(t, st)
	if got.Timer != nil {
		t.Fatalf("reset kept the timer record: %+v", got.Timer)
	}
	if got.DeviceOutputs[models.DeviceLed1] || got.Mode != models.ModeNormal || got.KillSwitch {
		t.Fatalf("reset state = %+v, want defaults", got)
	}
	if evs := events.byType(models.EventReset); len(evs) != 1 {
		t.Fatalf("reset events = %d, want 1", len(evs))
	}
}
