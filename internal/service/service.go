package service

import (
	"context"
	"time"

	"homestate/internal/logger"
	"homestate/internal/models"
	"homestate/internal/notifier"
	"homestate/internal/repository"
	"homestate/internal/store"
)

// Store layout. The whole shared document lives under one root; the timer
// record sits at a fixed child so it can be replaced or deleted atomically.
const (
	StatePath = "home"
	TimerPath = "home/timer"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Control exposes the write operations on the shared home document. Every
// mutation goes through the store; callers never patch local state.
type Control interface {
	Bootstrap(ctx context.Context) error
	Snapshot(ctx context.Context) (models.HomeState, error)
	SetDevice(ctx context.Context, id models.DeviceID, on bool) error
	SetMode(ctx context.Context, mode models.Mode) error
	SetKillSwitch(ctx context.Context, on bool) error
	Reset(ctx context.Context) error
}

// Timers persists countdown records and runs the reconciler loop that arms,
// supersedes, and fires them. Stop via context cancellation in main().
type Timers interface {
	Schedule(ctx context.Context, p ScheduleParams) (models.TimerRecord, error)
	Cancel(ctx context.Context) (bool, error)
	Run(ctx context.Context)
}

// Presence tracks the hardware peer's heartbeats and derives liveness.
type Presence interface {
	Heartbeat(ctx context.Context, meta models.HeartbeatMeta) error
	Status(ctx context.Context) (models.Presence, error)
	Run(ctx context.Context)
}

// EventLog exposes append-only activity history with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.HomeEvent, error)
}

// Config carries the tunables main() reads from the config file.
type Config struct {
	SigningKey      string
	TokenTTL        time.Duration
	PresenceTimeout time.Duration
	PresenceSweep   time.Duration
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Control
	Timers
	Presence
	EventLog
	Authorization
}

// NewService wires the store and repository layers into concrete services.
func NewService(st store.Store, repos *repository.Repository, nf *notifier.Notifier, log *logger.Logger, cfg Config) *Service {
	return &Service{
		Control:       NewControlService(st, repos.EventRepo),
		Timers:        NewTimerService(st, nf, repos.EventRepo, log),
		Presence:      NewPresenceService(repos.EventRepo, log, cfg),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, cfg),
	}
}
