// Package metrics exposes Prometheus collectors for sync runs, sales and
// HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/storefront/pkg/errors"
	syncpkg "github.com/agentstation/storefront/pkg/sync"
)

const namespace = "storefront"

// Metrics owns a registry and the storefront collectors.
type Metrics struct {
	registry *prometheus.Registry

	syncRuns        *prometheus.CounterVec
	syncFailures    *prometheus.CounterVec
	syncSkipped     prometheus.Counter
	schedulerErrors *prometheus.CounterVec
	syncDuration    prometheus.Histogram
	syncDevices     *prometheus.CounterVec
	syncLastSuccess prometheus.Gauge

	salesPlaced prometheus.Counter
	salesFailed *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates Metrics on a fresh registry, including Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Finished catalog sync runs by status",
		}, []string{"status"}),
		syncFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_failures_total",
			Help:      "Failed catalog sync runs by error class",
		}, []string{"class"}),
		syncSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_skipped_total",
			Help:      "Scheduled sync ticks skipped because a run was in flight",
		}),
		schedulerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_failures_total",
			Help:      "Scheduled sync ticks that returned an error by error class",
		}, []string{"class"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of catalog sync runs",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		syncDevices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_devices_total",
			Help:      "Devices processed by sync runs by outcome",
		}, []string{"outcome"}),
		syncLastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sync run",
		}),
		salesPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_placed_total",
			Help:      "Sales accepted upstream and recorded locally",
		}),
		salesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_failed_total",
			Help:      "Sale placements that failed by error class",
		}, []string{"class"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.syncRuns,
		m.syncFailures,
		m.syncSkipped,
		m.schedulerErrors,
		m.syncDuration,
		m.syncDevices,
		m.syncLastSuccess,
		m.salesPlaced,
		m.salesFailed,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSyncRun records a finished run. Runs still in progress are ignored,
// so it can be registered directly as a sync observer.
func (m *Metrics) ObserveSyncRun(run syncpkg.Run) {
	if run.Status == syncpkg.StatusRunning {
		return
	}
	m.syncRuns.WithLabelValues(string(run.Status)).Inc()
	m.syncDuration.Observe(run.Duration.Seconds())

	if run.Status == syncpkg.StatusFailed {
		m.syncFailures.WithLabelValues(run.ErrorClass).Inc()
		return
	}
	m.syncDevices.WithLabelValues("added").Add(float64(run.Added))
	m.syncDevices.WithLabelValues("updated").Add(float64(run.Updated))
	m.syncDevices.WithLabelValues("unchanged").Add(float64(run.Unchanged))
	m.syncDevices.WithLabelValues("invalid").Add(float64(run.Invalid))
	m.syncLastSuccess.Set(float64(run.EndTime.Unix()))
}

// SyncSkipped counts a skipped tick.
func (m *Metrics) SyncSkipped() {
	m.syncSkipped.Inc()
}

// ScheduledSyncFailed counts a scheduled tick that ended in err.
func (m *Metrics) ScheduledSyncFailed(err error) {
	m.schedulerErrors.WithLabelValues(errors.Class(err)).Inc()
}

// SalePlaced counts a recorded sale.
func (m *Metrics) SalePlaced() {
	m.salesPlaced.Inc()
}

// SaleFailed counts a failed placement.
func (m *Metrics) SaleFailed(err error) {
	m.salesFailed.WithLabelValues(errors.Class(err)).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
