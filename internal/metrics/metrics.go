package metrics

import (
	"github.com/DataDog/datadog-go/statsd"

	"homestate/internal/logger"
)

// Metric names emitted by the core, collected here so dashboards have a
// single place to look them up.
const (
	TimersScheduled = "timers.scheduled"
	TimersFired     = "timers.fired"
	TimersCancelled = "timers.cancelled"
	TimersStale     = "timers.stale_noop"
	Heartbeats      = "presence.heartbeats"
	HardwareOnline  = "presence.hardware_online"
	WSClients       = "ws.clients"
)

var (
	dogstatsd *statsd.Client
	lg        *logger.Logger
)

// Init creates the DogStatsD client. An empty addr leaves metrics disabled
// and turns every emit helper into a no-op.
func Init(addr, namespace string, log *logger.Logger) {
	lg = log
	if addr == "" {
		log.Infow("metrics_disabled")
		return
	}
	client, err := statsd.New(addr)
	if err != nil {
		log.Warnw("dogstatsd_init_failed", "addr", addr, "err", err)
		return
	}
	client.Namespace = namespace
	dogstatsd = client
	log.Infow("metrics_initialized", "addr", addr, "namespace", namespace)
}

// Count adds delta to a counter metric.
func Count(name string, delta int64, tags ...string) {
	if dogstatsd == nil {
		return
	}
	if err := dogstatsd.Count(name, delta, tags, 1); err != nil && lg != nil {
		lg.Warnw("metric_emit_failed", "metric", name, "err", err)
	}
}

// Gauge sets a gauge metric to value.
func Gauge(name string, value float64, tags ...string) {
	if dogstatsd == nil {
		return
	}
	if err := dogstatsd.Gauge(name, value, tags, 1); err != nil && lg != nil {
		lg.Warnw("metric_emit_failed", "metric", name, "err", err)
	}
}

// Close flushes and shuts down the client.
func Close() {
	if dogstatsd != nil {
		_ = dogstatsd.Close()
	}
}
