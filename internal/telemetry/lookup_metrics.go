package telemetry

import (
	"context"
	"time"

	"github.com/dukerupert/cepfinder/internal/domain"
	"github.com/dukerupert/cepfinder/internal/lookup"
	"github.com/dukerupert/cepfinder/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LookupMetrics holds Prometheus metrics for the CEP lookup workflows.
// It implements lookup.Observer.
type LookupMetrics struct {
	// Lookups
	Lookups        *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
	LookupFailures *prometheus.CounterVec

	// External service
	ServiceAvailable prometheus.Gauge
	StatusChecks     *prometheus.CounterVec

	// User feedback
	Notifications *prometheus.CounterVec

	// Sessions held by the HTTP host
	ActiveSessions prometheus.Gauge
}

var _ lookup.Observer = (*LookupMetrics)(nil)

// NewLookupMetrics creates the lookup metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewLookupMetrics(namespace string, reg prometheus.Registerer) *LookupMetrics {
	if namespace == "" {
		namespace = "cepfinder"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	subsystem := "lookup"

	return &LookupMetrics{
		Lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total search and sync requests by outcome",
			},
			[]string{"kind", "outcome"}, // kind: search, sync
		),
		LookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "duration_seconds",
				Help:      "Backend call duration for search and sync",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),
		LookupFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "failures_total",
				Help:      "Total backend failures by error code",
			},
			[]string{"kind", "code"},
		),
		ServiceAvailable: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "external_service",
				Name:      "available",
				Help:      "1 when the last status probe found the external API available",
			},
		),
		StatusChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_service",
				Name:      "status_checks_total",
				Help:      "Total status probes by result",
			},
			[]string{"result"}, // result: online, offline
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "notifications_total",
				Help:      "Total user notifications emitted by severity",
			},
			[]string{"severity"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "sessions",
				Name:      "active",
				Help:      "Finder sessions currently held in memory",
			},
		),
	}
}

// LookupCompleted records the outcome of a search or sync. Requests refused
// before reaching the backend are counted but kept out of the duration histogram.
func (m *LookupMetrics) LookupCompleted(kind lookup.Kind, status lookup.Status, elapsed time.Duration) {
	m.Lookups.WithLabelValues(string(kind), string(status)).Inc()
	if status == lookup.StatusInvalid || status == lookup.StatusBusy {
		return
	}
	m.LookupDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// LookupFailed counts the failure and reports it to Sentry.
func (m *LookupMetrics) LookupFailed(kind lookup.Kind, err error) {
	code := domain.ErrorCode(err)
	m.LookupFailures.WithLabelValues(string(kind), code).Inc()

	CaptureError(err, map[string]string{
		"kind": string(kind),
		"code": code,
	})
}

// StatusChecked records the result of a status probe.
func (m *LookupMetrics) StatusChecked(available bool) {
	if available {
		m.ServiceAvailable.Set(1)
		m.StatusChecks.WithLabelValues("online").Inc()
		return
	}
	m.ServiceAvailable.Set(0)
	m.StatusChecks.WithLabelValues("offline").Inc()
}

// CountNotifications wraps next so every notification is counted by severity.
func (m *LookupMetrics) CountNotifications(next notify.Notifier) notify.Notifier {
	return notify.NotifierFunc(func(ctx context.Context, n notify.Notification) {
		m.Notifications.WithLabelValues(string(n.Severity)).Inc()
		next.Notify(ctx, n)
	})
}
