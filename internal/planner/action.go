// Package planner maps a user utterance, bounded conversational history, and
// a world snapshot into an ordered plan of typed actions.
package planner

import (
	"strings"
	"time"
)

type ActionKind string

const (
	ActionCreateTask          ActionKind = "create_task"
	ActionCreateEvent         ActionKind = "create_event"
	ActionUpdateTask          ActionKind = "update_task"
	ActionDeleteTask          ActionKind = "delete_task"
	ActionStartTask           ActionKind = "start_task"
	ActionCompleteTask        ActionKind = "complete_task"
	ActionUpdatePriority      ActionKind = "update_priority"
	ActionUpdateDue           ActionKind = "update_due"
	ActionListTasks           ActionKind = "list_tasks"
	ActionListEvents          ActionKind = "list_events"
	ActionFindFreeTime        ActionKind = "find_free_time"
	ActionMoveEvent           ActionKind = "move_event"
	ActionDeleteEvent         ActionKind = "delete_event"
	ActionUpdateEvent         ActionKind = "update_event"
	ActionRescheduleRequest    ActionKind = "reschedule_request"
	ActionRescheduleAfterHour  ActionKind = "reschedule_after_hour"
	ActionDeleteDuplicateTasks ActionKind = "delete_duplicate_tasks"
	ActionRegisterMeetingNote  ActionKind = "register_meeting_note"
	ActionUnknown              ActionKind = "unknown"
)

// singletonKinds may appear at most once per planned turn.
var singletonKinds = map[ActionKind]bool{
	ActionRegisterMeetingNote:  true,
	ActionRescheduleAfterHour:  true,
	ActionDeleteDuplicateTasks: true,
}

// Action is a tagged union: fields not applicable to Kind are left at their
// zero value / nil, never populated with a placeholder.
type Action struct {
	Kind ActionKind

	// create_task / update_task
	Title       *string
	Description *string
	Due         *time.Time
	EffortMin   *int
	Priority    *string

	// create_event / move_event / update_event
	Keyword  *string
	Start    *time.Time
	Duration *time.Duration

	// update_priority
	NewPriority *string

	// task targeting (update/delete/start/complete/update_priority/update_due)
	TaskKeyword *string
	TaskID      *string

	// reschedule_after_hour
	CutoffHour *int

	// reschedule_request
	Hint *string

	// register_meeting_note
	MessageBody *string

	// find_free_time
	DurationMinutes *int
	OnDate          *time.Time
}

// Plan is the Planner's output: an ordered list of actions plus an optional
// clarifying note when no action is confident.
type Plan struct {
	Actions []Action
	Note    string
}

// ApplyHardRules enforces the plan-shaping invariants from spec 4.7 before
// dispatch: meeting-note exclusivity, singleton dedup, and the 5-action cap.
func ApplyHardRules(actions []Action) []Action {
	for _, a := range actions {
		if a.Kind == ActionRegisterMeetingNote {
			return []Action{a} // meeting notes are holistic: discard all else
		}
	}

	seenSingleton := make(map[ActionKind]bool)
	var out []Action
	for _, a := range actions {
		if singletonKinds[a.Kind] {
			if seenSingleton[a.Kind] {
				continue
			}
			seenSingleton[a.Kind] = true
		}
		out = append(out, a)
		if len(out) >= 5 {
			break
		}
	}
	return out
}

// genericKeywords are rejected as targeting hints: they name a category, not
// a specific task.
var genericKeywords = map[string]bool{
	"작업": true, "업무": true, "task": true, "일정": true, "할일": true,
	"고객": true, "회의": true, "미팅": true, "보고서": true, "준비": true,
}

// IsGenericKeyword reports whether a resolved keyword is too generic to
// target a specific task/event: empty, or a single short/stopword token.
func IsGenericKeyword(keyword string) bool {
	tokens := strings.Fields(strings.ToLower(keyword))
	if len(tokens) == 0 {
		return true
	}
	if len(tokens) == 1 {
		token := tokens[0]
		if genericKeywords[token] || len([]rune(NormalizeText(token))) <= 2 {
			return true
		}
	}
	return false
}
