package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/domain"
)

func TestFallbackClassifyMeetingNote(t *testing.T) {
	a := FallbackClassify("회의록:\n철수: 내일까지 초안 작성\n영희: 리뷰 예정")
	assert.Equal(t, ActionRegisterMeetingNote, a.Kind)
}

func TestFallbackClassifyDuplicateCleanup(t *testing.T) {
	a := FallbackClassify("중복 태스크 정리해줘")
	assert.Equal(t, ActionDeleteDuplicateTasks, a.Kind)
}

func TestFallbackClassifyRescheduleAfterHour(t *testing.T) {
	a := FallbackClassify("오후 6시 이후 일정 재배치해줘")
	require.Equal(t, ActionRescheduleAfterHour, a.Kind)
	require.NotNil(t, a.CutoffHour)
	assert.Equal(t, 18, *a.CutoffHour)
}

func TestFallbackClassifyUnknown(t *testing.T) {
	a := FallbackClassify("안녕하세요")
	assert.Equal(t, ActionUnknown, a.Kind)
}

func TestApplyHardRulesMeetingNoteExclusive(t *testing.T) {
	title := "x"
	actions := []Action{
		{Kind: ActionCreateTask, Title: &title},
		{Kind: ActionRegisterMeetingNote},
	}
	out := ApplyHardRules(actions)
	require.Len(t, out, 1)
	assert.Equal(t, ActionRegisterMeetingNote, out[0].Kind)
}

func TestApplyHardRulesCapsAtFive(t *testing.T) {
	title := "x"
	var actions []Action
	for i := 0; i < 8; i++ {
		actions = append(actions, Action{Kind: ActionCreateTask, Title: &title})
	}
	out := ApplyHardRules(actions)
	assert.Len(t, out, 5)
}

func TestApplyHardRulesDedupSingleton(t *testing.T) {
	cutoff := 18
	actions := []Action{
		{Kind: ActionRescheduleAfterHour, CutoffHour: &cutoff},
		{Kind: ActionRescheduleAfterHour, CutoffHour: &cutoff},
	}
	out := ApplyHardRules(actions)
	assert.Len(t, out, 1)
}

func TestRewriteDueChangeConvertsRescheduleRequest(t *testing.T) {
	hint := "x"
	actions := []Action{{Kind: ActionRescheduleRequest, Hint: &hint}}
	out := RewriteDueChange(actions, "분기보고서 마감을 내일로 변경해줘")
	require.Len(t, out, 1)
	assert.Equal(t, ActionUpdateDue, out[0].Kind)
}

func TestFindTaskExactTitleWins(t *testing.T) {
	candidates := []domain.Task{
		{ID: "t1", Title: "분기보고서 작성"},
		{ID: "t2", Title: "고객 제안서"},
	}
	found := FindTask(candidates, "고객 제안서", false)
	require.NotNil(t, found)
	assert.Equal(t, "t2", found.ID)
}

func TestFindTaskGenericKeywordFallsBackWhenAllowed(t *testing.T) {
	candidates := []domain.Task{{ID: "t1", Title: "최근 작업"}}
	found := FindTask(candidates, "작업", true)
	require.NotNil(t, found)
	assert.Equal(t, "t1", found.ID)
}
