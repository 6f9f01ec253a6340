package planner

// QuickIntents are the fallback-classifier outcomes confident enough to
// skip an LLM planning call entirely.
var QuickIntents = map[ActionKind]bool{
	ActionRegisterMeetingNote:  true,
	ActionCreateTask:           true,
	ActionRescheduleAfterHour:  true,
	ActionDeleteDuplicateTasks: true,
	ActionUpdateDue:            true,
	ActionUpdatePriority:       true,
	ActionCompleteTask:         true,
	ActionRescheduleRequest:    true,
}

// RewriteDueChange converts a reschedule_request into update_due when the
// message is unambiguously about changing a deadline rather than moving a
// calendar slot ("마감을 내일로 변경" reads as reschedule_request on a pure
// keyword match, but is really a due-date edit).
func RewriteDueChange(actions []Action, message string) []Action {
	if !LooksLikeDueChange(message) {
		return actions
	}
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		if a.Kind != ActionRescheduleRequest {
			out = append(out, a)
			continue
		}
		rewritten := a
		rewritten.Kind = ActionUpdateDue
		if rewritten.Hint == nil {
			msg := message
			rewritten.Hint = &msg
		}
		if rewritten.Title == nil && rewritten.TaskKeyword == nil {
			msg := message
			rewritten.Title = &msg
		}
		out = append(out, rewritten)
	}
	return out
}

// BuildPlan assembles the final action list for a chat turn: apply the
// due-change rewrite, then the meeting-note/singleton/cap hard rules.
func BuildPlan(actions []Action, message string) []Action {
	rewritten := RewriteDueChange(actions, message)
	return ApplyHardRules(rewritten)
}
