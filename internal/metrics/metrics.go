// Package metrics exposes the Prometheus counters and histograms the
// service layer records into: LLM call latency/errors, calendar mirror
// throttle/push outcomes, and scheduler proposal volume.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a private Prometheus registry and implements the narrow
// MetricsRecorder interfaces declared by internal/llm and
// internal/calendarmirror, so those packages never import internal/metrics
// directly.
type Recorder struct {
	registry *prometheus.Registry

	llmCallDuration *prometheus.HistogramVec
	llmCallErrors   *prometheus.CounterVec

	mirrorPushes    *prometheus.CounterVec
	mirrorThrottles prometheus.Counter

	schedulerProposals prometheus.Counter
	proposalsApplied   prometheus.Counter
}

// New builds a Recorder with its own registry, so tests can construct many
// Recorders without tripping Prometheus's duplicate-registration panics.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		llmCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aawo_llm_call_duration_ms",
			Help:    "Latency of LLM calls in milliseconds, by purpose and model",
			Buckets: prometheus.ExponentialBuckets(50, 2, 10), // 50ms to ~25s
		}, []string{"purpose", "model"}),

		llmCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aawo_llm_call_errors_total",
			Help: "Total number of failed LLM calls, by purpose, model, and error code",
		}, []string{"purpose", "model", "error_code"}),

		mirrorPushes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aawo_mirror_pushes_total",
			Help: "Total number of calendar mirror pushes, by outcome",
		}, []string{"outcome"}), // outcome: success, failure

		mirrorThrottles: factory.NewCounter(prometheus.CounterOpts{
			Name: "aawo_mirror_throttles_total",
			Help: "Total number of 429 responses observed while mirroring to the external calendar",
		}),

		schedulerProposals: factory.NewCounter(prometheus.CounterOpts{
			Name: "aawo_scheduler_proposals_generated_total",
			Help: "Total number of scheduling proposals generated across all strategies",
		}),

		proposalsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "aawo_scheduler_proposals_applied_total",
			Help: "Total number of scheduling proposals applied",
		}),
	}
}

// Registry exposes the private registry for the /metrics HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveLLMCall implements internal/llm's MetricsRecorder.
func (r *Recorder) ObserveLLMCall(purpose, model string, latencyMs int64, success bool, errorCode string) {
	r.llmCallDuration.WithLabelValues(purpose, model).Observe(float64(latencyMs))
	if !success {
		r.llmCallErrors.WithLabelValues(purpose, model, errorCode).Inc()
	}
}

// ObserveMirrorPush implements internal/calendarmirror's MetricsRecorder.
func (r *Recorder) ObserveMirrorPush(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	r.mirrorPushes.WithLabelValues(outcome).Inc()
}

// ObserveMirrorThrottle implements internal/calendarmirror's MetricsRecorder.
func (r *Recorder) ObserveMirrorThrottle() {
	r.mirrorThrottles.Inc()
}

// ObserveProposalsGenerated records how many draft proposals a scheduling
// run produced.
func (r *Recorder) ObserveProposalsGenerated(count int) {
	r.schedulerProposals.Add(float64(count))
}

// ObserveProposalApplied records a single applied proposal.
func (r *Recorder) ObserveProposalApplied() {
	r.proposalsApplied.Inc()
}
