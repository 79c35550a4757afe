// Package metrics provides Prometheus metrics for the SafeChecks sync engine.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled         bool
	enabledMutex    sync.RWMutex
	defaultRegistry *Registry
)

// Init initializes the metrics system.
func Init() {
	enabledMutex.Lock()
	defer enabledMutex.Unlock()
	enabled = true
	defaultRegistry = NewRegistry()
}

// Enabled returns true if metrics are enabled.
func Enabled() bool {
	enabledMutex.RLock()
	defer enabledMutex.RUnlock()
	return enabled
}

// Default returns the default metrics registry.
func Default() *Registry {
	enabledMutex.RLock()
	r := defaultRegistry
	enabledMutex.RUnlock()
	if r == nil {
		Init()
		return Default()
	}
	return r
}

// Registry holds all sync metrics on a private Prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	pushes       *prometheus.CounterVec
	draftPushes  *prometheus.CounterVec
	pulls        *prometheus.CounterVec
	pullDuration prometheus.Histogram
	merged       prometheus.Counter
	droppedRows  *prometheus.CounterVec
	queueDepth   prometheus.Gauge
}

// NewRegistry creates a new metrics registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safechecks",
			Name:      "record_pushes_total",
			Help:      "Record push attempts by result (sent, queued).",
		}, []string{"result"}),
		draftPushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safechecks",
			Name:      "draft_pushes_total",
			Help:      "Draft upsert attempts by result.",
		}, []string{"result"}),
		pulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safechecks",
			Name:      "pulls_total",
			Help:      "Pull cycles by result (ok, partial, failed, skipped).",
		}, []string{"result"}),
		pullDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "safechecks",
			Name:      "pull_duration_seconds",
			Help:      "Wall time of completed pull cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		merged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safechecks",
			Name:      "records_merged_total",
			Help:      "Remote records added or updated locally by pulls.",
		}),
		droppedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safechecks",
			Name:      "rows_dropped_total",
			Help:      "Remote rows discarded during parsing, by tab.",
		}, []string{"tab"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "safechecks",
			Name:      "pending_queue_depth",
			Help:      "Records waiting in the local retry queue.",
		}),
	}
	r.reg.MustRegister(r.pushes, r.draftPushes, r.pulls, r.pullDuration, r.merged, r.droppedRows, r.queueDepth)
	return r
}

// RecordPush records one record push outcome.
func (r *Registry) RecordPush(sent bool) {
	r.pushes.WithLabelValues(result(sent, "sent", "queued")).Inc()
}

// RecordDraftPush records one draft upsert outcome.
func (r *Registry) RecordDraftPush(sent bool) {
	r.draftPushes.WithLabelValues(result(sent, "sent", "pending")).Inc()
}

// RecordPull records a pull cycle. outcome is ok, partial, failed or skipped.
func (r *Registry) RecordPull(outcome string, duration time.Duration, merged int) {
	r.pulls.WithLabelValues(outcome).Inc()
	if outcome == "skipped" {
		return
	}
	r.pullDuration.Observe(duration.Seconds())
	r.merged.Add(float64(merged))
}

// RecordDroppedRows counts rows discarded while parsing a tab.
func (r *Registry) RecordDroppedRows(tab string, n int) {
	if n > 0 {
		r.droppedRows.WithLabelValues(tab).Add(float64(n))
	}
}

// SetQueueDepth publishes the current retry queue length.
func (r *Registry) SetQueueDepth(n int) {
	r.queueDepth.Set(float64(n))
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func result(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
