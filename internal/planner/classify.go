package planner

import "strings"

// priorityTokenOrder lists the bilingual priority words in the fixed order
// they are tried, so classification is deterministic; priorityMap maps each
// onto its canonical value.
var priorityTokenOrder = []string{"긴급", "높음", "중간", "낮음", "critical", "high", "medium", "low"}

var priorityMap = map[string]string{
	"긴급": "critical", "높음": "high", "중간": "medium", "낮음": "low",
	"critical": "critical", "high": "high", "medium": "medium", "low": "low",
}

// FallbackClassify is the deterministic, LLM-free classifier tried before
// (and as a safety net after) an LLM plan: a short cascade of keyword/regex
// rules covering the highest-confidence intents.
func FallbackClassify(text string) Action {
	lowered := strings.ToLower(text)

	if LooksLikeMeetingNote(text) {
		body := text
		return Action{Kind: ActionRegisterMeetingNote, MessageBody: &body}
	}

	if containsAny(text, "중복", "duplicate") && containsAny(text, "삭제", "정리", "제거", "dedup", "merge") {
		return Action{Kind: ActionDeleteDuplicateTasks}
	}

	if containsAny(text, "재배치", "옮겨", "조정") || strings.Contains(lowered, "reschedule") {
		if cutoff, ok := ExtractCutoffHour(text); ok && (strings.Contains(text, "이후") || strings.Contains(lowered, "after") || strings.Contains(text, "저녁")) {
			return Action{Kind: ActionRescheduleAfterHour, CutoffHour: &cutoff}
		}
	}

	if strings.Contains(text, "마감") || strings.Contains(lowered, "due") {
		if containsAny(text, "변경", "옮겨", "조정", "바꿔") || strings.Contains(lowered, "change") {
			title, due := text, text
			return Action{Kind: ActionUpdateDue, Title: &title, TaskKeyword: &title, Hint: &due}
		}
	}

	if strings.Contains(text, "우선순위") || strings.Contains(lowered, "priority") {
		var priority *string
		for _, tok := range priorityTokenOrder {
			if strings.Contains(text, tok) || strings.Contains(lowered, tok) {
				mapped := priorityMap[tok]
				priority = &mapped
				break
			}
		}
		title := text
		return Action{Kind: ActionUpdatePriority, Title: &title, TaskKeyword: &title, NewPriority: priority}
	}

	if strings.Contains(text, "완료") || strings.Contains(lowered, "done") {
		title := text
		return Action{Kind: ActionCompleteTask, Title: &title, TaskKeyword: &title}
	}

	if containsAny(text, "추가", "만들", "등록") || strings.Contains(lowered, "create task") {
		title := text
		effort, priority := 60, "medium"
		return Action{Kind: ActionCreateTask, Title: &title, EffortMin: &effort, Priority: &priority}
	}

	if containsAny(text, "일정", "재배치", "조정") || strings.Contains(lowered, "reschedule") {
		hint := text
		return Action{Kind: ActionRescheduleRequest, Hint: &hint}
	}

	return Action{Kind: ActionUnknown}
}

func containsAny(text string, tokens ...string) bool {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}
