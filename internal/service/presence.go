package service

import (
	"context"
	"sync"
	"time"

	"homestate/internal/logger"
	"homestate/internal/metrics"
	"homestate/internal/models"
	"homestate/internal/repository"
)

// Presence defaults, used when the config leaves them unset.
const (
	DefaultPresenceTimeout = 30 * time.Second
	DefaultPresenceSweep   = 5 * time.Second
)

// PresenceService derives hardware liveness from heartbeats. Liveness is
// kept in memory only: it says nothing about the shared document and resets
// to offline on restart, which is the truthful answer until the next beat.
type PresenceService struct {
	events  repository.EventRepo
	log     *logger.Logger
	timeout time.Duration
	sweep   time.Duration

	mu       sync.Mutex
	lastSeen time.Time
	meta     models.HeartbeatMeta
	online   bool
}

func NewPresenceService(events repository.EventRepo, log *logger.Logger, cfg Config) *PresenceService {
	timeout := cfg.PresenceTimeout
	if timeout <= 0 {
		timeout = DefaultPresenceTimeout
	}
	sweep := cfg.PresenceSweep
	if sweep <= 0 {
		sweep = DefaultPresenceSweep
	}
	return &PresenceService{events: events, log: log, timeout: timeout, sweep: sweep}
}

// Heartbeat records one report from the hardware peer. The first beat after
// an offline stretch logs the online transition.
func (s *PresenceService) Heartbeat(ctx context.Context, meta models.HeartbeatMeta) error {
	metrics.Count(metrics.Heartbeats, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now().UTC()
	s.meta = meta
	if s.online {
		return nil
	}
	s.online = true

	metrics.Gauge(metrics.HardwareOnline, 1)
	s.log.Infow("hardware_online", "address", meta.Address)
	return s.events.Append(ctx, models.HomeEvent{
		Type:        models.EventOnline,
		Description: "Hardware controller online",
		Metadata:    map[string]any{"address": meta.Address},
	})
}

// Status returns the current liveness view. Staleness is derived on read as
// well, so the answer is honest even between sweeps.
func (s *PresenceService) Status(ctx context.Context) (models.Presence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deriveLocked(ctx, time.Now())
	return models.Presence{
		Online:   s.online,
		LastSeen: s.lastSeen,
		Meta:     s.meta,
	}, nil
}

// Run sweeps for heartbeat timeouts until ctx is done.
func (s *PresenceService) Run(ctx context.Context) {
	t := time.NewTicker(s.sweep)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.mu.Lock()
			s.deriveLocked(ctx, now)
			s.mu.Unlock()
		}
	}
}

// deriveLocked flips the liveness flag when the last beat has aged out.
// Only the offline transition can happen here; online is owned by Heartbeat,
// so each transition is announced exactly once. Callers hold s.mu.
func (s *PresenceService) deriveLocked(ctx context.Context, now time.Time) {
	if !s.online {
		return
	}
	if now.Sub(s.lastSeen) <= s.timeout {
		return
	}
	s.online = false

	metrics.Gauge(metrics.HardwareOnline, 0)
	s.log.Warnw("hardware_offline", "last_seen", s.lastSeen, "timeout", s.timeout)
	_ = s.events.Append(ctx, models.HomeEvent{
		Type:        models.EventOffline,
		Description: "Hardware controller offline",
		Metadata:    map[string]any{"last_seen": s.lastSeen.Format(time.RFC3339)},
	})
}
