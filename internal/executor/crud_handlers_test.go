package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/planner"
)

type fakeProfileStore struct{ profile *domain.Profile }

func (s *fakeProfileStore) Get(ctx context.Context) (*domain.Profile, error) {
	return s.profile, nil
}

func defaultTestProfile() *domain.Profile {
	windows := make([]domain.WorkWindow, 0, 7)
	for d := 0; d < 7; d++ {
		windows = append(windows, domain.WorkWindow{Weekday: d, StartMin: 9 * 60, EndMin: 18 * 60})
	}
	return &domain.Profile{ID: "p1", Timezone: "UTC", Autonomy: domain.AutonomyL4, WorkWindows: windows}
}

func ptrStr(s string) *string                    { return &s }
func ptrTime(t time.Time) *time.Time              { return &t }
func ptrDuration(d time.Duration) *time.Duration  { return &d }

func TestCreateEventHandler_CreatesBlockAndRefreshesCalendar(t *testing.T) {
	blocks := newFakeBlockStore()
	e := &Executor{Blocks: blocks, Now: fixedNow}
	start := fixedNow().Add(24 * time.Hour)

	result, err := e.Dispatch(context.Background(), planner.Action{
		Kind: planner.ActionCreateEvent, Title: ptrStr("기획 회의"), Start: ptrTime(start), Duration: ptrDuration(30 * time.Minute),
	}, DispatchOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "기획 회의")
	assert.Equal(t, []string{"calendar"}, result.Refresh)
	assert.Len(t, blocks.blocks, 1)
}

func TestCreateEventHandler_RejectsOverlap(t *testing.T) {
	start := fixedNow().Add(24 * time.Hour)
	existing := &domain.CalendarBlock{ID: "blk1", Title: "기존 일정", Start: start, End: start.Add(time.Hour), Source: domain.BlockSourceAawo}
	blocks := newFakeBlockStore(existing)
	e := &Executor{Blocks: blocks, Now: fixedNow}

	result, err := e.Dispatch(context.Background(), planner.Action{
		Kind: planner.ActionCreateEvent, Title: ptrStr("새 회의"), Start: ptrTime(start.Add(30 * time.Minute)), Duration: ptrDuration(time.Hour),
	}, DispatchOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "이미 다른 일정")
	assert.Len(t, blocks.blocks, 1)
}

func TestMoveEventHandler_MovesByKeyword(t *testing.T) {
	start := fixedNow().Add(24 * time.Hour)
	existing := &domain.CalendarBlock{ID: "blk1", Title: "기획 회의", Start: start, End: start.Add(time.Hour), Source: domain.BlockSourceAawo}
	blocks := newFakeBlockStore(existing)
	e := &Executor{Blocks: blocks, Now: fixedNow}

	newStart := start.Add(48 * time.Hour)
	result, err := e.Dispatch(context.Background(), planner.Action{
		Kind: planner.ActionMoveEvent, Keyword: ptrStr("기획 회의"), Start: ptrTime(newStart),
	}, DispatchOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "일정을 변경했습니다")
	assert.True(t, blocks.blocks["blk1"].Start.Equal(newStart))
}

func TestMoveEventHandler_RefusesExternalBlock(t *testing.T) {
	start := fixedNow().Add(24 * time.Hour)
	existing := &domain.CalendarBlock{ID: "blk1", Title: "외부 일정", Start: start, End: start.Add(time.Hour), Source: domain.BlockSourceExternal}
	blocks := newFakeBlockStore(existing)
	e := &Executor{Blocks: blocks, Now: fixedNow}

	result, err := e.Dispatch(context.Background(), planner.Action{
		Kind: planner.ActionMoveEvent, Keyword: ptrStr("외부 일정"), Start: ptrTime(start.Add(48 * time.Hour)),
	}, DispatchOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "외부에서 가져온 일정")
}

func TestDeleteEventHandler_RemovesLocalBlockWithoutMirror(t *testing.T) {
	start := fixedNow().Add(24 * time.Hour)
	existing := &domain.CalendarBlock{ID: "blk1", Title: "기획 회의", Start: start, End: start.Add(time.Hour), Source: domain.BlockSourceAawo}
	blocks := newFakeBlockStore(existing)
	e := &Executor{Blocks: blocks, Now: fixedNow}

	result, err := e.Dispatch(context.Background(), planner.Action{
		Kind: planner.ActionDeleteEvent, Keyword: ptrStr("기획 회의"),
	}, DispatchOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "일정을 삭제했습니다")
	assert.Empty(t, blocks.blocks)
}

func TestDeleteEventHandler_FailsWhenMirrorDisconnectedForExternalLinkedBlock(t *testing.T) {
	start := fixedNow().Add(24 * time.Hour)
	extID := "ext-evt-1"
	existing := &domain.CalendarBlock{
		ID: "blk1", Title: "동기화된 회의", Start: start, End: start.Add(time.Hour),
		Source: domain.BlockSourceAawo, ExternalEventID: &extID,
	}
	blocks := newFakeBlockStore(existing)
	e := &Executor{Blocks: blocks, Now: fixedNow}

	result, err := e.Dispatch(context.Background(), planner.Action{
		Kind: planner.ActionDeleteEvent, Keyword: ptrStr("동기화된 회의"),
	}, DispatchOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "Outlook 연동")
	assert.Len(t, blocks.blocks, 1)
}

func TestStartTaskHandler_TransitionsToInProgress(t *testing.T) {
	task := &domain.Task{ID: "t1", Title: "분기보고서 작성", Status: domain.TaskTodo, UpdatedAt: fixedNow()}
	store := newFakeTaskStore(task)
	e := &Executor{Tasks: store, Now: fixedNow}

	result, err := e.Dispatch(context.Background(), planner.Action{
		Kind: planner.ActionStartTask, TaskKeyword: ptrStr("분기보고서"),
	}, DispatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInProgress, store.tasks["t1"].Status)
	assert.Contains(t, result.Reply, "진행중으로 변경했습니다")
}

func TestUpdateTaskHandler_RenamesTitle(t *testing.T) {
	task := &domain.Task{ID: "t1", Title: "초안 작성", Status: domain.TaskTodo, UpdatedAt: fixedNow()}
	store := newFakeTaskStore(task)
	e := &Executor{Tasks: store, Now: fixedNow}

	result, err := e.Dispatch(context.Background(), planner.Action{
		Kind: planner.ActionUpdateTask, TaskKeyword: ptrStr("초안"), Title: ptrStr("최종본 작성"),
	}, DispatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "최종본 작성", store.tasks["t1"].Title)
	assert.Contains(t, result.Reply, "할일을 수정했습니다")
}

func TestDeleteTaskHandler_DetachesBlocksThenDeletes(t *testing.T) {
	task := &domain.Task{ID: "t1", Title: "분기보고서 작성", Status: domain.TaskTodo, UpdatedAt: fixedNow()}
	taskID := "t1"
	block := &domain.CalendarBlock{ID: "blk1", TaskID: &taskID, Start: fixedNow(), End: fixedNow().Add(time.Hour)}
	taskStore := newFakeTaskStore(task)
	blockStore := newFakeBlockStore(block)
	e := &Executor{Tasks: taskStore, Blocks: blockStore, Now: fixedNow}

	result, err := e.Dispatch(context.Background(), planner.Action{
		Kind: planner.ActionDeleteTask, TaskKeyword: ptrStr("분기보고서"),
	}, DispatchOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "할일을 삭제했습니다")
	_, stillExists := taskStore.tasks["t1"]
	assert.False(t, stillExists)
	assert.Nil(t, blockStore.blocks["blk1"].TaskID)
}

func TestListTasksHandler_ReportsCount(t *testing.T) {
	store := newFakeTaskStore(
		&domain.Task{ID: "t1", Title: "A", Status: domain.TaskTodo, UpdatedAt: fixedNow()},
		&domain.Task{ID: "t2", Title: "B", Status: domain.TaskDone, UpdatedAt: fixedNow()},
	)
	e := &Executor{Tasks: store, Now: fixedNow}

	result, err := e.Dispatch(context.Background(), planner.Action{Kind: planner.ActionListTasks}, DispatchOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "할일 2건")
}

func TestListEventsHandler_ReportsBlocksInWindow(t *testing.T) {
	start := fixedNow().Add(time.Hour)
	blocks := newFakeBlockStore(&domain.CalendarBlock{ID: "blk1", Title: "스탠드업", Start: start, End: start.Add(30 * time.Minute)})
	e := &Executor{Blocks: blocks, Now: fixedNow}

	result, err := e.Dispatch(context.Background(), planner.Action{Kind: planner.ActionListEvents}, DispatchOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "스탠드업")
}

func TestFindFreeTimeHandler_ReturnsSlotsWithinWorkWindow(t *testing.T) {
	blocks := newFakeBlockStore()
	profiles := &fakeProfileStore{profile: defaultTestProfile()}
	e := &Executor{Blocks: blocks, Profiles: profiles, Now: fixedNow}

	result, err := e.Dispatch(context.Background(), planner.Action{Kind: planner.ActionFindFreeTime}, DispatchOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "여유 시간")
}

func TestCompleteTaskHandler_ResolvesReferenceFromAssistantHistory(t *testing.T) {
	task := &domain.Task{ID: "t1", Title: "분기보고서 작성", Status: domain.TaskTodo, UpdatedAt: fixedNow()}
	store := newFakeTaskStore(task)
	e := &Executor{Tasks: store, Now: fixedNow}

	history := []planner.ChatTurn{
		{Role: "user", Text: "분기보고서 작성 해줘"},
		{Role: "assistant", Text: "할일을 생성했습니다: 분기보고서 작성"},
	}
	result, err := e.Dispatch(context.Background(), planner.Action{Kind: planner.ActionCompleteTask}, DispatchOptions{
		Message: "그거 완료 처리해줘", History: history,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskDone, store.tasks["t1"].Status)
	assert.Contains(t, result.Reply, "완료 처리했습니다")
}

func TestCompleteTaskHandler_NoReferenceWithoutMatchingHistory(t *testing.T) {
	store := newFakeTaskStore()
	e := &Executor{Tasks: store, Now: fixedNow}

	history := []planner.ChatTurn{
		{Role: "assistant", Text: "할일을 생성했습니다: 다른 작업"},
	}
	result, err := e.Dispatch(context.Background(), planner.Action{Kind: planner.ActionCompleteTask}, DispatchOptions{
		Message: "그거 완료 처리해줘", History: history,
	})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "완료 처리할 할일을 찾지 못했습니다")
}
