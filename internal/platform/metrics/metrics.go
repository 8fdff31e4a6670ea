package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the auth core. A nil *Metrics is
// safe to use everywhere; methods become no-ops so tests can skip wiring.
type Metrics struct {
	GateDecisions    *prometheus.CounterVec
	ResolverOutcomes *prometheus.CounterVec
	ActionResults    *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	AuditDropped     prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates metrics against a caller-supplied registerer so tests can
// use isolated registries.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "placelist_gate_decisions_total",
			Help: "Session gate decisions by route class and decision.",
		}, []string{"class", "decision"}),
		ResolverOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "placelist_resolver_outcomes_total",
			Help: "Verification resolutions by method and outcome.",
		}, []string{"method", "outcome"}),
		ActionResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "placelist_credential_actions_total",
			Help: "Credential action results by action and result.",
		}, []string{"action", "result"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "placelist_identity_provider_seconds",
			Help:    "Identity provider call latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		AuditDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "placelist_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full.",
		}),
	}
}

// ObserveGateDecision records one session gate decision.
func (m *Metrics) ObserveGateDecision(class, decision string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(class, decision).Inc()
}

// ObserveResolution records one verification resolution.
func (m *Metrics) ObserveResolution(method, outcome string) {
	if m == nil {
		return
	}
	m.ResolverOutcomes.WithLabelValues(method, outcome).Inc()
}

// ObserveAction records one credential action result.
func (m *Metrics) ObserveAction(action, result string) {
	if m == nil {
		return
	}
	m.ActionResults.WithLabelValues(action, result).Inc()
}

// ObserveProviderCall records the latency of one identity provider call.
func (m *Metrics) ObserveProviderCall(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderLatency.WithLabelValues(op).Observe(d.Seconds())
}

// IncAuditDropped counts one dropped audit event.
func (m *Metrics) IncAuditDropped() {
	if m == nil {
		return
	}
	m.AuditDropped.Inc()
}
