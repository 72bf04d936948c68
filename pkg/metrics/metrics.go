// Package metrics exposes prometheus metrics for sizing and validation
// runs. A run is a batch job, so the interesting signals are totals per
// run rather than request rates.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics for the sizing engine
type Registry struct {
	// Sizing metrics
	PipesSizedTotal        *prometheus.CounterVec
	ResizeIterations       prometheus.Histogram
	SizingDurationSeconds  prometheus.Histogram
	SizingFailuresTotal    *prometheus.CounterVec
	AggregationOutcomes    *prometheus.CounterVec
	GraduatedAdjustedTotal prometheus.Counter

	// Validation metrics
	ViolationsTotal       *prometheus.CounterVec
	NetworkComplianceRate prometheus.Gauge

	// Network totals
	NetworkLengthM prometheus.Gauge
	NetworkCost    prometheus.Gauge
	NetworkFlowKgS prometheus.Gauge
	NetworkPipes   prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.PipesSizedTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "heatnet_pipes_sized_total",
			Help: "Total number of pipes sized, by category and convergence status",
		},
		[]string{"category", "status"},
	)

	r.ResizeIterations = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "heatnet_resize_iterations",
			Help:    "Auto-resize iterations needed per pipe",
			Buckets: []float64{1, 2, 3, 4, 5, 10},
		},
	)

	r.SizingDurationSeconds = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "heatnet_sizing_duration_seconds",
			Help:    "Wall time of a full network sizing run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
	)

	r.SizingFailuresTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "heatnet_sizing_failures_total",
			Help: "Pipes skipped during sizing, by reason",
		},
		[]string{"reason"},
	)

	r.AggregationOutcomes = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "heatnet_aggregation_outcomes_total",
			Help: "Flow aggregation outcomes per pipe",
		},
		[]string{"outcome"},
	)

	r.GraduatedAdjustedTotal = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "heatnet_graduated_sizing_adjusted_total",
			Help: "Pipes bumped by the graduated sizing pass",
		},
	)

	r.ViolationsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "heatnet_violations_total",
			Help: "Standards violations, by standard and severity",
		},
		[]string{"standard", "severity"},
	)

	r.NetworkComplianceRate = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "heatnet_network_compliance_rate",
			Help: "Compliance rate of the last validated network",
		},
	)

	r.NetworkLengthM = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "heatnet_network_length_m",
			Help: "Total trench length of the last sized network in meters",
		},
	)

	r.NetworkCost = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "heatnet_network_cost",
			Help: "Total cost of the last sized network",
		},
	)

	r.NetworkFlowKgS = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "heatnet_network_flow_kg_s",
			Help: "Total design mass flow of the last sized network in kg/s",
		},
	)

	r.NetworkPipes = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "heatnet_network_pipes",
			Help: "Pipe count of the last sized network",
		},
	)

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordPipeSized records one sized pipe
func (r *Registry) RecordPipeSized(category string, converged bool, iterations int) {
	status := "converged"
	if !converged {
		status = "not_converged"
	}
	r.PipesSizedTotal.WithLabelValues(category, status).Inc()
	r.ResizeIterations.Observe(float64(iterations))
}

// RecordRun records the totals of a completed sizing run
func (r *Registry) RecordRun(duration time.Duration, lengthM, cost, flowKgS float64, pipes int) {
	r.SizingDurationSeconds.Observe(duration.Seconds())
	r.NetworkLengthM.Set(lengthM)
	r.NetworkCost.Set(cost)
	r.NetworkFlowKgS.Set(flowKgS)
	r.NetworkPipes.Set(float64(pipes))
}

// RecordViolation records one standards violation
func (r *Registry) RecordViolation(standard, severity string) {
	r.ViolationsTotal.WithLabelValues(standard, severity).Inc()
}
