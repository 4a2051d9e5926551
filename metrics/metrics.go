// Package metrics provides Prometheus metrics for the action server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blinks"

// Metrics holds the collectors of one registry. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	ActionRequests   *prometheus.CounterVec
	TransactionBuild *prometheus.HistogramVec
	BackendRequests  *prometheus.CounterVec
	RPCCallLatency   *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActionRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_requests_total",
			Help:      "Action requests by action, method and status code",
		}, []string{"action", "method", "status"}),
		TransactionBuild: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_build_seconds",
			Help:      "Time spent assembling an unsigned transaction",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"action"}),
		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Calls to the challenge service and AI service by outcome",
		}, []string{"endpoint", "outcome"}),
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Handler serves this registry on /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest counts one finished action request.
func (m *Metrics) ObserveRequest(action, method string, status int) {
	m.ActionRequests.WithLabelValues(action, method, http.StatusText(status)).Inc()
}

// ObserveBuild records how long a transaction build took.
func (m *Metrics) ObserveBuild(action string, d time.Duration) {
	m.TransactionBuild.WithLabelValues(action).Observe(d.Seconds())
}

// ObserveBackend implements backend.Observer.
func (m *Metrics) ObserveBackend(endpoint, outcome string) {
	m.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
}

// ObserveRPC records an RPC call latency.
func (m *Metrics) ObserveRPC(method string, d time.Duration) {
	m.RPCCallLatency.WithLabelValues(method).Observe(d.Seconds())
}
