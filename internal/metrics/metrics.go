// Package metrics exposes the Prometheus collectors the orchestrator and
// its sensors update on every request, grounded in the teacher's
// internal/metrics/collector.go latency/cache/circuit tracking but
// re-expressed against github.com/prometheus/client_golang instead of a
// hand-rolled snapshot struct.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every collector this service publishes. It is built
// once in cmd/equitycore and threaded through the AppContext.
type Registry struct {
	SensorLatency      *prometheus.HistogramVec
	SensorFailures     *prometheus.CounterVec
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	ProviderAttempts   *prometheus.CounterVec
	ProviderFailures   *prometheus.CounterVec
	CircuitState       *prometheus.GaugeVec
	GovernorRejections *prometheus.CounterVec
	DecisionsTotal     *prometheus.CounterVec
	NarrativeBypass    prometheus.Counter
	RequestLatency     prometheus.Histogram
}

// NewRegistry constructs and registers all collectors against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		SensorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "equitycore_sensor_latency_seconds",
			Help:    "Latency of each sensor fan-out branch.",
			Buckets: prometheus.DefBuckets,
		}, []string{"sensor"}),
		SensorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equitycore_sensor_failures_total",
			Help: "Non-fatal sensor failures, by sensor and error kind.",
		}, []string{"sensor", "kind"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equitycore_cache_hits_total",
			Help: "Distributed cache hits by key prefix.",
		}, []string{"prefix"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equitycore_cache_misses_total",
			Help: "Distributed cache misses by key prefix.",
		}, []string{"prefix"}),
		ProviderAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equitycore_provider_attempts_total",
			Help: "DataProvider failover chain attempts by provider name.",
		}, []string{"provider"}),
		ProviderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equitycore_provider_failures_total",
			Help: "DataProvider failover chain failures by provider name and error kind.",
		}, []string{"provider", "kind"}),
		CircuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "equitycore_circuit_state",
			Help: "Circuit breaker state (0=closed,1=half-open,2=open) by name.",
		}, []string{"name"}),
		GovernorRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equitycore_governor_rejections_total",
			Help: "Governor rule violations by rule code.",
		}, []string{"rule"}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equitycore_decisions_total",
			Help: "Assembled decisions by state and horizon.",
		}, []string{"state", "horizon"}),
		NarrativeBypass: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "equitycore_narrative_bypass_total",
			Help: "Times the deterministic narrative bypass fired instead of an LLM call.",
		}),
		RequestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "equitycore_request_latency_seconds",
			Help:    "End-to-end analyze() latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		r.SensorLatency, r.SensorFailures, r.CacheHits, r.CacheMisses,
		r.ProviderAttempts, r.ProviderFailures, r.CircuitState,
		r.GovernorRejections, r.DecisionsTotal, r.NarrativeBypass, r.RequestLatency,
	)
	return r
}
