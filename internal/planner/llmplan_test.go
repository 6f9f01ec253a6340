package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/llm"
)

type fakeLLMClient struct {
	text string
	err  error
}

func (f *fakeLLMClient) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{Text: f.text, Model: "fake-model"}, nil
}

func (f *fakeLLMClient) Available(ctx context.Context) bool { return f.err == nil }

func fixedParseDate(hint string, base time.Time) *time.Time {
	if hint == "" {
		return nil
	}
	d := base.Add(24 * time.Hour)
	return &d
}

func TestClassifyLLM_ConvertsCreateEventAction(t *testing.T) {
	client := &fakeLLMClient{text: `{"actions":[
		{"intent":"create_event","title":"기획 회의","start":"tomorrow","duration_minutes":30}
	],"note":""}`}
	base := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)

	plan, err := ClassifyLLM(context.Background(), client, "내일 기획 회의 잡아줘", base, "Asia/Seoul", nil, nil, nil, nil, fixedParseDate)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)

	a := plan.Actions[0]
	assert.Equal(t, ActionCreateEvent, a.Kind)
	require.NotNil(t, a.Title)
	assert.Equal(t, "기획 회의", *a.Title)
	require.NotNil(t, a.Start)
	require.NotNil(t, a.DurationMinutes)
	assert.Equal(t, 30, *a.DurationMinutes)
	require.NotNil(t, a.Duration)
	assert.Equal(t, 30*time.Minute, *a.Duration)
}

func TestClassifyLLM_ClampsEffortAndCutoffHour(t *testing.T) {
	client := &fakeLLMClient{text: `{"actions":[
		{"intent":"create_task","title":"보고서 작성","effort_minutes":5},
		{"intent":"reschedule_after_hour","cutoff_hour":30}
	],"note":""}`}

	plan, err := ClassifyLLM(context.Background(), client, "x", time.Now(), "UTC", nil, nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 2)

	require.NotNil(t, plan.Actions[0].EffortMin)
	assert.Equal(t, 15, *plan.Actions[0].EffortMin)

	require.NotNil(t, plan.Actions[1].CutoffHour)
	assert.Equal(t, 23, *plan.Actions[1].CutoffHour)
}

func TestClassifyLLM_EmptyIntentFailsValidation(t *testing.T) {
	client := &fakeLLMClient{text: `{"actions":[{"intent":""}],"note":""}`}
	_, err := ClassifyLLM(context.Background(), client, "x", time.Now(), "UTC", nil, nil, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrInvalidOutput)
}

func TestClassifyLLM_UnknownFallsBackWithNote(t *testing.T) {
	client := &fakeLLMClient{text: `{"actions":[{"intent":"unknown"}],"note":"무엇을 도와드릴까요?"}`}
	plan, err := ClassifyLLM(context.Background(), client, "???", time.Now(), "UTC", nil, nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionUnknown, plan.Actions[0].Kind)
	assert.Equal(t, "무엇을 도와드릴까요?", plan.Note)
}

func TestClassifyLLM_GenerateErrorPropagates(t *testing.T) {
	client := &fakeLLMClient{err: llm.ErrOllamaUnavailable}
	_, err := ClassifyLLM(context.Background(), client, "x", time.Now(), "UTC", nil, nil, nil, nil, nil)
	assert.ErrorIs(t, err, llm.ErrOllamaUnavailable)
}

func TestBuildAssistantPlanUserPrompt_IncludesAllSections(t *testing.T) {
	base := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	due := base.Add(48 * time.Hour)
	history := []ChatTurn{{Role: "user", Text: "아까 그거 언제였지"}}
	tasks := []TaskContext{{Title: "보고서", Status: "todo", Priority: "high", Due: &due}}
	events := []EventContext{{Title: "스탠드업", Start: base, End: base.Add(30 * time.Minute), Source: "local"}}
	approvals := []ApprovalContext{{ID: "ap1", Type: "reschedule", Summary: "일정 변경 승인 대기"}}

	prompt := buildAssistantPlanUserPrompt("그거 다시 잡아줘", base, "Asia/Seoul", history, tasks, events, approvals)

	assert.Contains(t, prompt, "timezone=Asia/Seoul")
	assert.Contains(t, prompt, "아까 그거 언제였지")
	assert.Contains(t, prompt, "title=보고서")
	assert.Contains(t, prompt, "title=스탠드업")
	assert.Contains(t, prompt, "id=ap1")
	assert.Contains(t, prompt, "user_message=그거 다시 잡아줘")
}

func TestBuildAssistantPlanUserPrompt_EmptyContextUsesNonePlaceholder(t *testing.T) {
	prompt := buildAssistantPlanUserPrompt("x", time.Now(), "UTC", nil, nil, nil, nil)
	assert.Contains(t, prompt, "recent_conversation:\n(none)")
	assert.Contains(t, prompt, "existing_tasks:\n(none)")
	assert.Contains(t, prompt, "existing_events:\n(none)")
	assert.Contains(t, prompt, "pending_approvals:\n(none)")
}
