// Package metrics exposes simulation counters in Prometheus format and
// collects runtime memory statistics for the benchmark mode.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for simulation activity.
// Collectors are registered on a private registry so tests can create
// independent instances without global-registration collisions.
type Metrics struct {
	handler http.Handler

	trialsTotal      *prometheus.CounterVec
	couponDrawsTotal prometheus.Counter
	extinctionsTotal prometheus.Counter
}

// NewMetrics creates a Metrics instance with its own registry and handler.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		trialsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "probsim_trials_total",
			Help: "Number of simulation trials completed, by experiment.",
		}, []string{"experiment"}),
		couponDrawsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "probsim_coupon_draws_total",
			Help: "Total coupon draws across all coupon-collector trials.",
		}),
		extinctionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "probsim_branching_extinctions_total",
			Help: "Number of branching-process trials extinct by their horizon.",
		}),
	}
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler returns the HTTP handler serving the metrics in Prometheus text
// format.
func (m *Metrics) Handler() http.Handler { return m.handler }

// ObserveCouponRun records a completed coupon-collector aggregation run.
func (m *Metrics) ObserveCouponRun(trials, totalDraws int) {
	m.trialsTotal.WithLabelValues("coupon").Add(float64(trials))
	m.couponDrawsTotal.Add(float64(totalDraws))
}

// ObserveBranchingRun records a completed branching-process aggregation run.
func (m *Metrics) ObserveBranchingRun(trials, extinctions int) {
	m.trialsTotal.WithLabelValues("branching").Add(float64(trials))
	m.extinctionsTotal.Add(float64(extinctions))
}
