package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Resource engine metrics
	BedTransitions   *prometheus.CounterVec
	AmbulanceUpdates prometheus.Counter
	WorkHoursLogged  prometheus.Counter

	// Fire-and-forget side effects
	NotificationsPublished prometheus.Counter
	NotificationsFailed    prometheus.Counter
	MailSent               prometheus.Counter
	MailFailed             prometheus.Counter

	// Dispatcher metrics
	DispatchQueueDepth prometheus.Gauge
	DispatchDropped    *prometheus.CounterVec
	DispatchLatency    prometheus.Histogram

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec

	// Background worker metrics
	WorkerRuns *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them with reg.
// A nil reg registers nothing, which keeps tests from colliding on the
// default registry.
func NewMetrics(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BedTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bed_transitions_total",
			Help:      "Bed status transitions by source and target status",
		}, []string{"from", "to"}),
		AmbulanceUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ambulance_location_updates_total",
			Help:      "Accepted ambulance location/status updates",
		}),
		WorkHoursLogged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "work_hours_logged_total",
			Help:      "Work hour entries recorded",
		}),

		NotificationsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_published_total",
			Help:      "Ambulance notifications handed to the broker",
		}),
		NotificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_failed_total",
			Help:      "Ambulance notifications the broker rejected",
		}),
		MailSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mail_sent_total",
			Help:      "Emails delivered to the mail server",
		}),
		MailFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mail_failed_total",
			Help:      "Emails that could not be delivered",
		}),

		DispatchQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_queue_depth",
			Help:      "Tasks waiting in the async dispatcher",
		}),
		DispatchDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_dropped_total",
			Help:      "Tasks dropped because the dispatcher queue was full",
		}, []string{"task"}),
		DispatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_task_duration_seconds",
			Help:      "Time spent running dispatched tasks",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		WorkerRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "worker_runs_total",
			Help:      "Background worker executions by job and outcome",
		}, []string{"job", "status"}),
	}
}

// Noop returns unregistered metrics for tests and tools.
func Noop() *Metrics {
	return NewMetrics("hospital", "test", nil)
}
