package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hawlion/ai-planner/internal/llm"
)

// ChatTurn is one prior turn of the conversation, newest-last.
type ChatTurn struct {
	Role string // "user" or "assistant"
	Text string
}

// TaskContext is a task projected into the LLM prompt's existing_tasks block.
type TaskContext struct {
	Title    string
	Status   string
	Priority string
	Due      *time.Time
}

// EventContext is a calendar block projected into the prompt's existing_events block.
type EventContext struct {
	Title  string
	Start  time.Time
	End    time.Time
	Source string
}

// ApprovalContext is a pending approval projected into the prompt's pending_approvals block.
type ApprovalContext struct {
	ID      string
	Type    string
	Summary string
}

// assistantPlanAction mirrors the JSON shape the LLM is instructed to emit.
// Field presence varies by Intent; absent fields are left at their zero value.
type assistantPlanAction struct {
	Intent          string   `json:"intent"`
	Title           *string  `json:"title"`
	TaskKeyword     *string  `json:"task_keyword"`
	Due             *string  `json:"due"`
	CutoffHour      *int     `json:"cutoff_hour"`
	EffortMinutes   *int     `json:"effort_minutes"`
	Priority        *string  `json:"priority"`
	Status          *string  `json:"status"`
	MeetingNote     *string  `json:"meeting_note"`
	RescheduleHint  *string  `json:"reschedule_hint"`
	NewTitle        *string  `json:"new_title"`
	Start           *string  `json:"start"`
	End             *string  `json:"end"`
	DurationMinutes *int     `json:"duration_minutes"`
	Description     *string  `json:"description"`
	TargetDate      *string  `json:"target_date"`
	Limit           *int     `json:"limit"`
}

type assistantPlanOutput struct {
	Actions []assistantPlanAction `json:"actions"`
	Note    string                `json:"note"`
}

func validateAssistantPlan(out assistantPlanOutput) error {
	for i, a := range out.Actions {
		if strings.TrimSpace(a.Intent) == "" {
			return fmt.Errorf("action %d: empty intent", i)
		}
	}
	return nil
}

var assistantPlanSystemPrompt = `You extract structured planning actions from a Korean-or-English personal assistant chat message. Return strict JSON only, matching this shape:
{"actions":[{"intent":string,"title":string|null,"task_keyword":string|null,"due":string|null,"cutoff_hour":int|null,"effort_minutes":int|null,"priority":string|null,"status":string|null,"meeting_note":string|null,"reschedule_hint":string|null,"new_title":string|null,"start":string|null,"end":string|null,"duration_minutes":int|null,"description":string|null,"target_date":string|null,"limit":int|null}],"note":string}

Valid intent values: create_task, create_event, update_task, delete_task, start_task, complete_task, update_priority, update_due, list_tasks, list_events, find_free_time, move_event, delete_event, update_event, reschedule_request, reschedule_after_hour, delete_duplicate_tasks, register_meeting_note, unknown.

Parse multiple requests in one message into multiple actions, in the order the user mentioned them.

CRITICAL: when the message names a calendar concept (일정, 미팅, 회의, 캘린더) together with an add/register verb (추가, 등록, 잡아줘), emit create_event, never create_task. Only emit create_task for an explicit to-do/task request (할일, 작업, task).

Field guidance:
- create_task: title, due (ISO-8601 if inferable, else null), effort_minutes (15-480), priority.
- create_event: title, start (ISO-8601), duration_minutes (15-480).
- move_event: task_keyword (the event to find), start (new ISO-8601 start), duration_minutes if mentioned.
- update_event: task_keyword, new_title and/or start/duration_minutes for whatever changed.
- delete_event: task_keyword.
- update_task / update_priority / update_due / start_task / complete_task: task_keyword identifying the target, plus due/priority/status as applicable.
- delete_task: task_keyword.
- list_tasks: status filter in status if the user asked for one subset, else null.
- list_events: target_date if a specific day was named, else null.
- find_free_time: target_date, duration_minutes, limit (1-20, default 3).
- delete_duplicate_tasks: emitted whenever the user asks to deduplicate or clean up repeated tasks.
- reschedule_after_hour: cutoff_hour (0-23) extracted from phrases like "after 6pm" or "오후 6시 이후".
- reschedule_request: reschedule_hint carrying the free-text timing hint.
- register_meeting_note: meeting_note carrying the pasted transcript or summary text; never emit any other action alongside it.

Never use a generic one-word keyword like '작업', '고객', or '미팅' as task_keyword — it must identify a specific item. Resolve references like "그거", "방금 거", or "that one" using the recent conversation provided below.

If the message gives no clear actionable evidence, fall back to a single unknown action and put a short Korean clarification question in note. Otherwise prefer emitting an executable action over unknown.`

// ClassifyLLM asks the configured LLM to turn a chat message into an ordered
// plan of actions, grounded on recent history and the current world snapshot.
func ClassifyLLM(
	ctx context.Context,
	client llm.LLMClient,
	text string,
	baseTime time.Time,
	timezone string,
	history []ChatTurn,
	tasks []TaskContext,
	events []EventContext,
	approvals []ApprovalContext,
	parseDate func(hint string, base time.Time) *time.Time,
) (Plan, error) {
	userPrompt := buildAssistantPlanUserPrompt(text, baseTime, timezone, history, tasks, events, approvals)

	resp, err := client.Generate(ctx, llm.GenerateRequest{
		Purpose:      llm.PurposeAssistantPlan,
		SystemPrompt: assistantPlanSystemPrompt,
		UserPrompt:   userPrompt,
	})
	if err != nil {
		return Plan{}, err
	}

	out, err := llm.ExtractJSON[assistantPlanOutput](resp.Text, validateAssistantPlan)
	if err != nil {
		return Plan{}, err
	}

	actions := make([]Action, 0, len(out.Actions))
	for _, a := range out.Actions {
		actions = append(actions, convertAssistantPlanAction(a, baseTime, parseDate))
	}
	return Plan{Actions: actions, Note: out.Note}, nil
}

func buildAssistantPlanUserPrompt(
	text string,
	baseTime time.Time,
	timezone string,
	history []ChatTurn,
	tasks []TaskContext,
	events []EventContext,
	approvals []ApprovalContext,
) string {
	historyLines := "(none)"
	if recent := lastChatTurns(history, 8); len(recent) > 0 {
		lines := make([]string, 0, len(recent))
		for _, t := range recent {
			if t.Role != "user" && t.Role != "assistant" {
				continue
			}
			if strings.TrimSpace(t.Text) == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Text))
		}
		if len(lines) > 0 {
			historyLines = strings.Join(lines, "\n")
		}
	}

	contextLines := "(none)"
	if len(tasks) > 0 {
		n := tasks
		if len(n) > 40 {
			n = n[:40]
		}
		lines := make([]string, 0, len(n))
		for _, tc := range n {
			due := "null"
			if tc.Due != nil {
				due = tc.Due.Format(time.RFC3339)
			}
			lines = append(lines, fmt.Sprintf("- title=%s | status=%s | priority=%s | due=%s", tc.Title, tc.Status, tc.Priority, due))
		}
		contextLines = strings.Join(lines, "\n")
	}

	eventLines := "(none)"
	if len(events) > 0 {
		n := events
		if len(n) > 40 {
			n = n[:40]
		}
		lines := make([]string, 0, len(n))
		for _, ec := range n {
			lines = append(lines, fmt.Sprintf("- title=%s | start=%s | end=%s | source=%s",
				ec.Title, ec.Start.Format(time.RFC3339), ec.End.Format(time.RFC3339), ec.Source))
		}
		eventLines = strings.Join(lines, "\n")
	}

	approvalLines := "(none)"
	if len(approvals) > 0 {
		n := approvals
		if len(n) > 20 {
			n = n[:20]
		}
		lines := make([]string, 0, len(n))
		for _, ac := range n {
			lines = append(lines, fmt.Sprintf("- id=%s | type=%s | summary=%s", ac.ID, ac.Type, ac.Summary))
		}
		approvalLines = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(
		"timezone=%s\nbase_datetime=%s\nrecent_conversation:\n%s\nexisting_tasks:\n%s\nexisting_events:\n%s\npending_approvals:\n%s\nuser_message=%s",
		timezone, baseTime.Format(time.RFC3339), historyLines, contextLines, eventLines, approvalLines, text,
	)
}

func lastChatTurns(history []ChatTurn, n int) []ChatTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func convertAssistantPlanAction(a assistantPlanAction, base time.Time, parseDate func(string, time.Time) *time.Time) Action {
	out := Action{Kind: ActionKind(a.Intent)}

	if a.Title != nil {
		out.Title = a.Title
	}
	if a.Description != nil {
		out.Description = a.Description
	}
	if a.TaskKeyword != nil {
		out.TaskKeyword = a.TaskKeyword
		out.Keyword = a.TaskKeyword
	}
	if a.Priority != nil {
		out.Priority = a.Priority
		out.NewPriority = a.Priority
	}
	if a.EffortMinutes != nil {
		em := clampInt(*a.EffortMinutes, 15, 480)
		out.EffortMin = &em
	}
	if a.CutoffHour != nil {
		ch := clampInt(*a.CutoffHour, 0, 23)
		out.CutoffHour = &ch
	}
	if a.RescheduleHint != nil {
		out.Hint = a.RescheduleHint
	}
	if a.MeetingNote != nil {
		out.MessageBody = a.MeetingNote
	}
	if a.NewTitle != nil {
		out.Title = a.NewTitle
	}
	if a.DurationMinutes != nil {
		dm := clampInt(*a.DurationMinutes, 15, 480)
		out.DurationMinutes = &dm
		d := time.Duration(dm) * time.Minute
		out.Duration = &d
	}

	if a.Due != nil && parseDate != nil {
		out.Due = parseDate(*a.Due, base)
	}
	if a.Start != nil && parseDate != nil {
		out.Start = parseDate(*a.Start, base)
	}
	if a.TargetDate != nil && parseDate != nil {
		out.OnDate = parseDate(*a.TargetDate, base)
	}

	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
