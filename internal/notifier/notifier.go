package notifier

import (
	"context"
	"sync"
	"time"

	"homestate/internal/logger"
	"homestate/internal/models"
	"homestate/internal/store"
)

// EventType tags a fan-out delivery.
type EventType string

const (
	// EventState carries a full, self-consistent document snapshot.
	EventState EventType = "state"
	// EventReconnecting signals a transport hiccup on the store watch. It is
	// informational, never data loss: the next EventState carries the
	// authoritative snapshot.
	EventReconnecting EventType = "reconnecting"
)

// Event is one delivery to a consumer.
type Event struct {
	Type  EventType
	State models.HomeState // valid when Type == EventState
}

const (
	subscriberBuffer = 16
	resubscribeDelay = 2 * time.Second
)

// Notifier owns the single store watch on the home document and fans every
// snapshot out to local consumers: each WebSocket connection, the timer
// reconciler. Consumers receive full snapshots in arrival order; a consumer
// that falls behind loses oldest-first, never the latest.
type Notifier struct {
	store store.Store
	path  string
	log   *logger.Logger
	retry time.Duration

	resub chan struct{}

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	last   *models.HomeState
}

func New(st store.Store, path string, log *logger.Logger) *Notifier {
	return &Notifier{
		store: st,
		path:  path,
		log:   log,
		retry: resubscribeDelay,
		resub: make(chan struct{}, 1),
		subs:  make(map[int]chan Event),
	}
}

// Run keeps the store watch alive until ctx is done, re-establishing it
// transparently after transport errors.
func (n *Notifier) Run(ctx context.Context) {
	for {
		cancel, err := n.store.Subscribe(n.path, n.onChange, n.onError)
		if err != nil {
			n.log.Errorw("state_watch_failed", "path", n.path, "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(n.retry):
				continue
			}
		}

		select {
		case <-ctx.Done():
			cancel()
			return
		case <-n.resub:
			cancel()
			// loop resubscribes; the fresh watch re-delivers the current
			// snapshot, so nothing is lost
		}
	}
}

// Subscribe registers a consumer. The last known snapshot, if any, is
// replayed immediately. The returned func unregisters and closes the channel.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = ch
	if n.last != nil {
		ch <- Event{Type: EventState, State: *n.last}
	}
	n.mu.Unlock()

	return ch, func() {
		n.mu.Lock()
		if c, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(c)
		}
		n.mu.Unlock()
	}
}

func (n *Notifier) onChange(v any) {
	st, err := models.DecodeState(v)
	if err != nil {
		n.log.Errorw("state_snapshot_decode_failed", "err", err)
		return
	}
	n.mu.Lock()
	n.last = &st
	n.broadcastLocked(Event{Type: EventState, State: st})
	n.mu.Unlock()
}

func (n *Notifier) onError(err error) {
	n.log.Warnw("state_watch_interrupted", "err", err)
	n.mu.Lock()
	n.broadcastLocked(Event{Type: EventReconnecting})
	n.mu.Unlock()
	select {
	case n.resub <- struct{}{}:
	default:
	}
}

// broadcastLocked pushes ev to every consumer, dropping each consumer's
// oldest pending delivery when its buffer is full. Callers hold n.mu.
func (n *Notifier) broadcastLocked(ev Event) {
	for _, ch := range n.subs {
		for {
			select {
			case ch <- ev:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}
