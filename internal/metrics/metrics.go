// Package metrics exposes Prometheus collectors for engine operations and
// HTTP requests.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "teamboard"

// Metrics holds the collectors. Build one per registry with New.
type Metrics struct {
	// OperationsTotal counts engine operations.
	// Labels: op, status (success or an error kind)
	OperationsTotal *prometheus.CounterVec

	// OperationDuration tracks engine operation latency including commit.
	OperationDuration *prometheus.HistogramVec

	// ConflictsTotal counts transactions aborted by a store conflict.
	ConflictsTotal *prometheus.CounterVec

	// CascadeEntities counts entities removed or touched by cascades.
	// Labels: op, entity (feature, task)
	CascadeEntities *prometheus.CounterVec

	// HTTPRequestsTotal counts HTTP requests.
	// Labels: method, route, code
	HTTPRequestsTotal *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		OperationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Total number of engine operations by outcome",
		}, []string{"op", "status"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Duration of engine operations in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		ConflictsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "conflicts_total",
			Help:      "Total number of operations aborted by a transaction conflict",
		}, []string{"op"}),
		CascadeEntities: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cascade_entities_total",
			Help:      "Total number of entities touched by cascade operations",
		}, []string{"op", "entity"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "code"}),
	}
}

// ObserveOperation records one finished engine operation.
func (m *Metrics) ObserveOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	name = strings.TrimSpace(name)
	m.OperationsTotal.WithLabelValues(name, status).Inc()
	m.OperationDuration.WithLabelValues(name).Observe(dur.Seconds())
}

// IncConflict records a conflict abort.
func (m *Metrics) IncConflict(name string) {
	if m == nil {
		return
	}
	m.ConflictsTotal.WithLabelValues(strings.TrimSpace(name)).Inc()
}

// ObserveCascade records how many features and tasks a cascade touched.
func (m *Metrics) ObserveCascade(name string, features, tasks int) {
	if m == nil {
		return
	}
	m.CascadeEntities.WithLabelValues(name, "feature").Add(float64(features))
	m.CascadeEntities.WithLabelValues(name, "task").Add(float64(tasks))
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}
