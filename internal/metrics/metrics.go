// Package metrics holds the Prometheus instruments of the REST server and
// the background sync.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "sub5"
	Subsystem = "backend"
)

type Manager struct {
	// counters
	CounterRequests        *prometheus.CounterVec
	CounterSyncRuns        *prometheus.CounterVec
	CounterSyncActivities  prometheus.Counter
	CounterSyncTriggers    *prometheus.CounterVec
	CounterHandlerPanics   prometheus.Counter
	CounterTokenRefreshErr prometheus.Counter

	// gauges
	GaugeRequests     prometheus.Gauge
	GaugeSyncRunning  prometheus.Gauge
	GaugeLastSyncTime prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
	HistSyncDuration    prometheus.Histogram
}

// NewRegistry returns a registry with the build info, Go runtime and
// process collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewTestManager() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager(reg), reg
}

func NewManager(reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "requests_total",
			Help:      "The total number of REST requests",
		}, []string{"route", "method", "status"}),
		CounterSyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "sync_runs_total",
			Help:      "The total number of sync runs by outcome",
		}, []string{"status"}),
		CounterSyncActivities: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "sync_activities_total",
			Help:      "The total number of activities saved by sync runs",
		}),
		CounterSyncTriggers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "sync_triggers_total",
			Help:      "Manual sync triggers by answer (started or running)",
		}, []string{"result"}),
		CounterHandlerPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "handler_panics_total",
			Help:      "The total number of recovered handler panics",
		}),
		CounterTokenRefreshErr: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "token_refresh_errors_total",
			Help:      "The total number of failed Strava token refreshes",
		}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "current_requests",
			Help:      "Requests currently being served",
		}),
		GaugeSyncRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "sync_running",
			Help:      "1 while a sync run is in progress",
		}),
		GaugeLastSyncTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "last_sync_timestamp_seconds",
			Help:      "Unix time of the last finished sync run",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of REST requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route"}),
		HistSyncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}),
	}
}

// SyncStarted marks a sync run in progress.
func (m *Manager) SyncStarted() {
	if m == nil {
		return
	}
	m.GaugeSyncRunning.Set(1)
}

// SyncFinished records the outcome of a run.
func (m *Manager) SyncFinished(status string, synced int, took time.Duration) {
	if m == nil {
		return
	}
	m.GaugeSyncRunning.Set(0)
	m.CounterSyncRuns.WithLabelValues(status).Inc()
	m.CounterSyncActivities.Add(float64(synced))
	m.HistSyncDuration.Observe(took.Seconds())
	m.GaugeLastSyncTime.SetToCurrentTime()
}

// SyncTriggered counts a manual trigger and its answer.
func (m *Manager) SyncTriggered(result string) {
	if m == nil {
		return
	}
	m.CounterSyncTriggers.WithLabelValues(result).Inc()
}

// TokenRefreshFailed counts a failed token refresh.
func (m *Manager) TokenRefreshFailed() {
	if m == nil {
		return
	}
	m.CounterTokenRefreshErr.Inc()
}
