package observability

import (
	"errors"
	"strconv"

	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by network hooks.
type Metrics struct {
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	Iterations    prometheus.Histogram
	Failures      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowpath_queries_total",
				Help: "Total number of flow queries",
			},
			[]string{"kind", "found"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowpath_query_duration_seconds",
				Help:    "Duration of flow queries",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"kind"},
		),
		Iterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flowpath_propagation_iterations",
				Help:    "Fixed-point passes per flow-rate propagation",
				Buckets: []float64{1, 2, 4, 8, 16, 64, 256, 1000},
			},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowpath_query_failures_total",
				Help: "Flow queries that returned an error, by reason",
			},
			[]string{"kind", "reason"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Queries, m.QueryDuration, m.Iterations, m.Failures)
	}
	return m
}

// Hooks returns network hooks recording into m.
func (m *Metrics) Hooks() flow.Hooks {
	return flow.Hooks{
		OnQuery: func(ev flow.QueryEvent) {
			m.Queries.WithLabelValues(ev.Kind, strconv.FormatBool(ev.Found)).Inc()
			m.QueryDuration.WithLabelValues(ev.Kind).Observe(ev.Duration.Seconds())
			if ev.Err != nil {
				m.Failures.WithLabelValues(ev.Kind, Reason(ev.Err)).Inc()
			}
		},
		OnPropagation: func(ev flow.PropagationEvent) {
			if ev.Err == nil {
				m.Iterations.Observe(float64(ev.Iterations))
			}
		},
	}
}

// Reason classifies a query error for metric labels.
func Reason(err error) string {
	switch {
	case errors.Is(err, flow.ErrAmbiguousPath):
		return "ambiguous_path"
	case errors.Is(err, flow.ErrNonConvergence):
		return "non_convergence"
	case errors.Is(err, flow.ErrSegmentNotFound):
		return "not_found"
	}
	return "other"
}
