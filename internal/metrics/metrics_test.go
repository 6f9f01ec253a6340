package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/hawlion/ai-planner/internal/calendarmirror"
	"github.com/hawlion/ai-planner/internal/llm"
)

var (
	_ llm.MetricsRecorder            = (*Recorder)(nil)
	_ calendarmirror.MetricsRecorder = (*Recorder)(nil)
)

func TestObserveLLMCall_RecordsDurationAndErrors(t *testing.T) {
	r := New()
	r.ObserveLLMCall("plan", "gpt-4o", 120, true, "")
	r.ObserveLLMCall("plan", "gpt-4o", 500, false, "rate_limited")

	assert.Equal(t, 1, testutil.CollectAndCount(r.llmCallDuration, "aawo_llm_call_duration_ms"))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.llmCallErrors.WithLabelValues("plan", "gpt-4o", "rate_limited")))
}

func TestObserveMirrorPush_SplitsByOutcome(t *testing.T) {
	r := New()
	r.ObserveMirrorPush(true)
	r.ObserveMirrorPush(false)
	r.ObserveMirrorPush(false)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.mirrorPushes.WithLabelValues("success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.mirrorPushes.WithLabelValues("failure")))
}

func TestObserveMirrorThrottle_Increments(t *testing.T) {
	r := New()
	r.ObserveMirrorThrottle()
	r.ObserveMirrorThrottle()

	assert.Equal(t, float64(2), testutil.ToFloat64(r.mirrorThrottles))
}

func TestObserveProposals_GeneratedAndApplied(t *testing.T) {
	r := New()
	r.ObserveProposalsGenerated(3)
	r.ObserveProposalApplied()

	assert.Equal(t, float64(3), testutil.ToFloat64(r.schedulerProposals))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.proposalsApplied))
}
