package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"homestate/internal/logger"
	"homestate/internal/metrics"
	"homestate/internal/models"
	"homestate/internal/notifier"
	"homestate/internal/repository"
	"homestate/internal/store"
)

// fireTimeout bounds the store round-trips made when a countdown elapses.
const fireTimeout = 10 * time.Second

// TimerService persists countdown records and reconciles the local countdown
// against them. Schedule never arms anything directly: its write comes back
// through the document watch like any remote write, and the reconciler arms
// from the snapshot. One code path serves local, remote, and restart cases.
type TimerService struct {
	store  store.Store
	nf     *notifier.Notifier
	events repository.EventRepo
	log    *logger.Logger

	mu        sync.Mutex
	armedID   string // record the countdown is armed for, "" when idle
	fireAt    time.Time
	countdown *time.Timer
}

func NewTimerService(st store.Store, nf *notifier.Notifier, events repository.EventRepo, log *logger.Logger) *TimerService {
	return &TimerService{store: st, nf: nf, events: events, log: log}
}

// Schedule validates the request and persists a fresh record with absolute
// deadlines. The full replace at the timer path supersedes any pending
// record, keeping at most one timer alive.
func (s *TimerService) Schedule(ctx context.Context, p ScheduleParams) (models.TimerRecord, error) {
	if len(p.Devices) == 0 {
		return models.TimerRecord{}, ErrNoDevices
	}
	for _, d := range p.Devices {
		if !models.KnownDevice(d) {
			return models.TimerRecord{}, fmt.Errorf("%w: %q", ErrUnknownDevice, d)
		}
	}
	if !models.ValidAction(p.Action) {
		return models.TimerRecord{}, fmt.Errorf("%w: got %q", ErrInvalidAction, p.Action)
	}
	if p.DurationSec < models.MinTimerSeconds || p.DurationSec > models.MaxTimerSeconds {
		return models.TimerRecord{}, fmt.Errorf("%w: got %d", ErrInvalidDuration, p.DurationSec)
	}

	now := time.Now().UTC()
	rec := models.TimerRecord{
		ID:        uuid.NewString(),
		Devices:   p.Devices,
		Action:    p.Action,
		StartedAt: now.UnixMilli(),
		EndsAt:    now.Add(time.Duration(p.DurationSec) * time.Second).UnixMilli(),
		Active:    true,
	}

	if err := s.store.Write(ctx, TimerPath, rec); err != nil {
		return models.TimerRecord{}, err
	}

	metrics.Count(metrics.TimersScheduled, 1)
	s.log.Infow("timer_scheduled",
		"timer_id", rec.ID, "action", rec.Action, "devices", len(rec.Devices), "duration_sec", p.DurationSec)

	return rec, s.events.Append(ctx, models.HomeEvent{
		Type:        models.EventTimerSet,
		Description: fmt.Sprintf("Timer set for %d device(s): %s after %ds", len(p.Devices), p.Action, p.DurationSec),
		Metadata: map[string]any{
			"timer_id":     rec.ID,
			"action":       string(rec.Action),
			"devices":      deviceStrings(rec.Devices),
			"duration_sec": p.DurationSec,
		},
	})
}

// Cancel deletes the pending record, if any. The reported bool says whether
// there was one; cancelling nothing is benign.
func (s *TimerService) Cancel(ctx context.Context) (bool, error) {
	raw, err := s.store.Read(ctx, TimerPath)
	if err != nil {
		return false, err
	}
	rec, err := models.DecodeTimer(raw)
	if err != nil || rec == nil || !rec.Active {
		return false, nil
	}

	if err := s.store.Write(ctx, TimerPath, nil); err != nil {
		return false, err
	}

	metrics.Count(metrics.TimersCancelled, 1)
	s.log.Infow("timer_cancelled", "timer_id", rec.ID)

	return true, s.events.Append(ctx, models.HomeEvent{
		Type:        models.EventTimerCancelled,
		Description: "Timer cancelled",
		Metadata:    map[string]any{"timer_id": rec.ID},
	})
}

// Run consumes document snapshots until ctx is done, reconciling the local
// countdown after each one. Reconnect signals are skipped: the countdown
// stays armed, and the snapshot that follows reconciles as usual.
func (s *TimerService) Run(ctx context.Context) {
	ch, cancel := s.nf.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.disarmLocked()
			s.mu.Unlock()
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Type != notifier.EventState {
				continue
			}
			s.reconcile(ev.State)
		}
	}
}

// reconcile compares the snapshot's timer record against the armed countdown
// and converges on it. Redelivery of the armed record is a no-op; a record
// with a different id wins over whatever was armed; an absent or inactive
// record disarms; an already-expired deadline fires on the spot.
func (s *TimerService) reconcile(st models.HomeState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := st.Timer
	if rec == nil || !rec.Active {
		if s.armedID != "" {
			s.log.Infow("countdown_disarmed", "timer_id", s.armedID)
			s.disarmLocked()
		}
		return
	}

	if rec.ID == s.armedID {
		return
	}

	if s.armedID != "" {
		s.log.Infow("countdown_superseded", "old_timer_id", s.armedID, "new_timer_id", rec.ID)
	}
	s.disarmLocked()

	remaining := rec.Remaining(time.Now())
	if remaining == 0 {
		// the deadline passed while no process was watching
		s.fireLocked(rec.ID)
		return
	}

	id := rec.ID
	s.armedID = id
	s.fireAt = time.UnixMilli(rec.EndsAt)
	s.countdown = time.AfterFunc(remaining, func() { s.fire(id) })
	s.log.Infow("countdown_armed", "timer_id", id, "remaining_ms", remaining.Milliseconds())
}

// fire is the countdown callback. The id guard drops callbacks that lost a
// race with a disarm or supersede.
func (s *TimerService) fire(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armedID != id {
		return
	}
	s.fireLocked(id)
}

// fireLocked re-reads the persisted record and applies it only when it still
// names id. Anything else means another writer owned the timer in the
// meantime, and the elapsed countdown is silently absorbed.
func (s *TimerService) fireLocked(id string) {
	s.disarmLocked()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	raw, err := s.store.Read(ctx, TimerPath)
	if err != nil {
		// the record stays persisted; the next delivered snapshot retries
		s.log.Warnw("timer_fire_read_failed", "timer_id", id, "err", err)
		return
	}
	rec, err := models.DecodeTimer(raw)
	if err != nil {
		s.log.Warnw("timer_fire_decode_failed", "timer_id", id, "err", err)
		return
	}
	if rec == nil || !rec.Active || rec.ID != id {
		metrics.Count(metrics.TimersStale, 1)
		s.log.Infow("timer_fire_stale_noop", "timer_id", id)
		return
	}

	s.execute(ctx, *rec)
}

// execute applies the elapsed timer: target outputs, kill switch lift on
// turn-on, and record removal, all in one atomic merge.
func (s *TimerService) execute(ctx context.Context, rec models.TimerRecord) {
	on := rec.Action == models.ActionOn

	fields := make(map[string]any, len(rec.Devices)+2)
	for _, d := range rec.Devices {
		fields["deviceOutputs/"+string(d)] = on
	}
	if on {
		fields["killSwitch"] = false
	}
	fields["timer"] = nil

	if err := s.store.Merge(ctx, StatePath, fields); err != nil {
		// nothing applied; the record survives for the next snapshot
		s.log.Errorw("timer_fire_apply_failed", "timer_id", rec.ID, "err", err)
		return
	}

	metrics.Count(metrics.TimersFired, 1)
	s.log.Infow("timer_fired", "timer_id", rec.ID, "action", rec.Action, "devices", len(rec.Devices))

	_ = s.events.Append(ctx, models.HomeEvent{
		Type:        models.EventTimerFired,
		Description: fmt.Sprintf("Timer elapsed; %d device(s) turned %s", len(rec.Devices), rec.Action),
		Metadata: map[string]any{
			"timer_id": rec.ID,
			"action":   string(rec.Action),
			"devices":  deviceStrings(rec.Devices),
		},
	})
}

func (s *TimerService) disarmLocked() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
	s.armedID = ""
	s.fireAt = time.Time{}
}

func deviceStrings(ids []models.DeviceID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
