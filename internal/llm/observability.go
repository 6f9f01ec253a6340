package llm

import (
	"go.uber.org/zap"
)

// LLMCallEvent records metadata about a single LLM invocation.
type LLMCallEvent struct {
	Purpose   Purpose
	Model     string
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about LLM calls for logging and metrics.
type Observer interface {
	OnCallComplete(event LLMCallEvent)
}

// ZapObserver logs LLM call events through a structured zap logger and, if
// a MetricsRecorder is set, records them for Prometheus export.
type ZapObserver struct {
	log     *zap.Logger
	metrics MetricsRecorder
}

// MetricsRecorder is the narrow surface internal/metrics implements; kept
// here (rather than importing internal/metrics directly) to avoid a
// dependency cycle between metrics and llm.
type MetricsRecorder interface {
	ObserveLLMCall(purpose, model string, latencyMs int64, success bool, errorCode string)
}

// NewZapObserver creates an Observer that logs via log and optionally
// records Prometheus metrics via recorder (nil disables metrics).
func NewZapObserver(log *zap.Logger, recorder MetricsRecorder) *ZapObserver {
	return &ZapObserver{log: log, metrics: recorder}
}

func (o *ZapObserver) OnCallComplete(event LLMCallEvent) {
	fields := []zap.Field{
		zap.String("purpose", string(event.Purpose)),
		zap.String("model", event.Model),
		zap.Int64("latency_ms", event.LatencyMs),
		zap.Bool("success", event.Success),
	}
	if event.ErrorCode != "" {
		fields = append(fields, zap.String("error_code", event.ErrorCode))
	}
	if event.Success {
		o.log.Info("llm_call", fields...)
	} else {
		o.log.Warn("llm_call", fields...)
	}
	if o.metrics != nil {
		o.metrics.ObserveLLMCall(string(event.Purpose), event.Model, event.LatencyMs, event.Success, event.ErrorCode)
	}
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(LLMCallEvent) {}
