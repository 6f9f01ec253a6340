package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/freeslot"
	"github.com/hawlion/ai-planner/internal/planner"
)

const defaultEventDuration = 60 * time.Minute

func (e *Executor) createEvent(ctx context.Context, title string, start time.Time, duration time.Duration) (Result, error) {
	if start.IsZero() {
		return Result{Reply: "일정 시작 시간을 파악하지 못했습니다. 예: '내일 오후 3시에 기획 회의 추가'"}, nil
	}
	if duration <= 0 {
		duration = defaultEventDuration
	}
	end := start.Add(duration)

	overlapping, err := e.Blocks.BlocksIntersectingHorizon(ctx, start, end)
	if err != nil {
		return Result{}, fmt.Errorf("create event: overlap check: %w", err)
	}
	if len(overlapping) > 0 {
		return Result{Reply: "해당 시간에 이미 다른 일정이 있습니다. 시간을 다시 지정해 주세요."}, nil
	}

	block := domain.CalendarBlock{
		ID:      uuid.NewString(),
		Type:    domain.BlockOther,
		Title:   firstNonEmpty(title, "새 일정"),
		Start:   start,
		End:     end,
		Locked:  false,
		Source:  domain.BlockSourceAawo,
		Version: 1,
	}
	if err := e.Blocks.CreateBlock(ctx, block); err != nil {
		return Result{}, fmt.Errorf("create event: %w", err)
	}

	synced := e.mirrorCreated(ctx, []domain.CalendarBlock{block})
	reply := "일정을 추가했습니다: " + block.Title
	if synced > 0 {
		reply += " (Outlook 동기화 완료)"
	}
	return Result{
		Reply:   reply,
		Events:  []Event{{Type: "event_created", Detail: map[string]any{"block_id": block.ID, "title": block.Title}}},
		Refresh: refreshSet("calendar"),
	}, nil
}

// findBlockByKeyword resolves a calendar block by title: exact (normalized)
// match first, then a substring match, mirroring planner.FindTask's
// exact-then-contains precedence without its task-specific scoring.
func (e *Executor) findBlockByKeyword(ctx context.Context, keyword string) (*domain.CalendarBlock, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}
	now := e.now()
	candidates, err := e.Blocks.BlocksIntersectingHorizon(ctx, now.AddDate(-1, 0, 0), now.AddDate(100, 0, 0))
	if err != nil {
		return nil, err
	}
	normKeyword := planner.NormalizeText(keyword)
	var contains *domain.CalendarBlock
	for i := range candidates {
		b := candidates[i]
		normTitle := planner.NormalizeText(b.Title)
		if normTitle == normKeyword {
			return &b, nil
		}
		if contains == nil && strings.Contains(normTitle, normKeyword) {
			bb := b
			contains = &bb
		}
	}
	return contains, nil
}

func (e *Executor) moveEvent(ctx context.Context, keyword string, newStart time.Time, duration time.Duration) (Result, error) {
	block, err := e.findBlockByKeyword(ctx, keyword)
	if err != nil {
		return Result{}, fmt.Errorf("move event: lookup: %w", err)
	}
	if block == nil {
		return Result{Reply: "변경할 일정을 찾지 못했습니다. 일정 제목을 조금 더 구체적으로 말해 주세요."}, nil
	}
	if block.IsExternal() {
		return Result{Reply: "외부에서 가져온 일정은 직접 변경할 수 없습니다: " + block.Title}, nil
	}
	if newStart.IsZero() {
		return Result{Reply: "새 시작 시간을 파악하지 못했습니다."}, nil
	}
	if duration <= 0 {
		duration = block.End.Sub(block.Start)
	}
	newEnd := newStart.Add(duration)

	overlapping, err := e.Blocks.BlocksIntersectingHorizon(ctx, newStart, newEnd)
	if err != nil {
		return Result{}, fmt.Errorf("move event: overlap check: %w", err)
	}
	for _, o := range overlapping {
		if o.ID != block.ID {
			return Result{Reply: "새 시간대에 이미 다른 일정이 있습니다. 다른 시간을 지정해 주세요."}, nil
		}
	}

	block.Start = newStart
	block.End = newEnd
	block.Version++
	if err := e.Blocks.UpdateBlock(ctx, *block); err != nil {
		return Result{}, fmt.Errorf("move event: update: %w", err)
	}
	return Result{
		Reply:   fmt.Sprintf("일정을 변경했습니다: %s -> %s", block.Title, newStart.Format("2006-01-02 15:04")),
		Events:  []Event{{Type: "event_moved", Detail: map[string]any{"block_id": block.ID, "start": newStart.Format(time.RFC3339)}}},
		Refresh: refreshSet("calendar"),
	}, nil
}

// updateEvent renames a block and/or reschedules it. A zero newStart leaves
// timing untouched; otherwise the block is moved first via moveEvent (so the
// overlap recheck runs against the live calendar) and any new title is
// applied afterwards.
func (e *Executor) updateEvent(ctx context.Context, keyword string, newTitle *string, newStart time.Time, duration time.Duration) (Result, error) {
	if newStart.IsZero() {
		block, err := e.findBlockByKeyword(ctx, keyword)
		if err != nil {
			return Result{}, fmt.Errorf("update event: lookup: %w", err)
		}
		if block == nil {
			return Result{Reply: "변경할 일정을 찾지 못했습니다."}, nil
		}
		if block.IsExternal() {
			return Result{Reply: "외부에서 가져온 일정은 직접 변경할 수 없습니다: " + block.Title}, nil
		}
		if newTitle == nil {
			return Result{Reply: "변경할 내용을 찾지 못했습니다."}, nil
		}
		block.Title = *newTitle
		block.Version++
		if err := e.Blocks.UpdateBlock(ctx, *block); err != nil {
			return Result{}, fmt.Errorf("update event: update: %w", err)
		}
		return Result{
			Reply:   "일정 제목을 변경했습니다: " + block.Title,
			Events:  []Event{{Type: "event_updated", Detail: map[string]any{"block_id": block.ID, "title": block.Title}}},
			Refresh: refreshSet("calendar"),
		}, nil
	}

	result, err := e.moveEvent(ctx, keyword, newStart, duration)
	if err != nil || newTitle == nil {
		return result, err
	}
	block, lookupErr := e.findBlockByKeyword(ctx, keyword)
	if lookupErr != nil || block == nil {
		return result, nil
	}
	block.Title = *newTitle
	block.Version++
	if err := e.Blocks.UpdateBlock(ctx, *block); err != nil {
		return Result{}, fmt.Errorf("update event: rename after move: %w", err)
	}
	result.Reply += fmt.Sprintf(" (제목: %s)", block.Title)
	return result, nil
}

// deleteEvent removes a calendar block. Unlike createEvent, a mirror
// failure here is fatal: a disconnected or failing remote delete would
// leave a stale entry on the external calendar with no local record of it.
func (e *Executor) deleteEvent(ctx context.Context, keyword string) (Result, error) {
	block, err := e.findBlockByKeyword(ctx, keyword)
	if err != nil {
		return Result{}, fmt.Errorf("delete event: lookup: %w", err)
	}
	if block == nil {
		return Result{Reply: "삭제할 일정을 찾지 못했습니다."}, nil
	}
	if block.IsExternal() {
		return Result{Reply: "외부에서 가져온 일정은 직접 삭제할 수 없습니다: " + block.Title}, nil
	}
	if block.ExternalEventID != nil {
		if e.Mirror == nil || !e.Mirror.IsConnected(ctx) {
			return Result{Reply: "Outlook 연동이 끊겨 있어 연동된 일정을 삭제할 수 없습니다. 연동 상태를 확인해 주세요."}, nil
		}
		_, failed, derr := e.Mirror.Delete(ctx, []domain.CalendarBlock{*block})
		if derr != nil || len(failed) > 0 {
			return Result{}, fmt.Errorf("delete event: remote delete failed: %w", derr)
		}
	}
	if err := e.Blocks.Delete(ctx, block.ID); err != nil {
		return Result{}, fmt.Errorf("delete event: %w", err)
	}
	return Result{
		Reply:   "일정을 삭제했습니다: " + block.Title,
		Events:  []Event{{Type: "event_deleted", Detail: map[string]any{"block_id": block.ID, "title": block.Title}}},
		Refresh: refreshSet("calendar"),
	}, nil
}

func (e *Executor) startTask(ctx context.Context, keyword string) (Result, error) {
	candidates, err := e.Tasks.ListByStatus(ctx, []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked})
	if err != nil {
		return Result{}, fmt.Errorf("start task: list: %w", err)
	}
	task := planner.FindTask(candidates, keyword, false)
	if task == nil {
		return Result{Reply: "시작할 할일을 찾지 못했습니다."}, nil
	}
	if !domain.CanTransition(task.Status, domain.TaskInProgress) {
		return Result{Reply: "현재 상태에서는 진행중으로 전환할 수 없습니다: " + task.Title}, nil
	}
	task.Status = domain.TaskInProgress
	task.Version++
	task.UpdatedAt = e.now()
	if err := e.Tasks.Update(ctx, task); err != nil {
		return Result{}, fmt.Errorf("start task: update: %w", err)
	}
	return Result{
		Reply:   "진행중으로 변경했습니다: " + task.Title,
		Events:  []Event{{Type: "task_started", Detail: map[string]any{"task_id": task.ID, "title": task.Title}}},
		Refresh: refreshSet("tasks"),
	}, nil
}

func (e *Executor) updateTask(ctx context.Context, keyword string, title, description *string) (Result, error) {
	candidates, err := e.Tasks.ListByStatus(ctx, []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked})
	if err != nil {
		return Result{}, fmt.Errorf("update task: list: %w", err)
	}
	task := planner.FindTask(candidates, keyword, false)
	if task == nil {
		return Result{Reply: "수정할 할일을 찾지 못했습니다."}, nil
	}
	if title == nil && description == nil {
		return Result{Reply: "변경할 내용을 찾지 못했습니다."}, nil
	}
	if title != nil {
		task.Title = *title
	}
	if description != nil {
		task.Description = *description
	}
	task.Version++
	task.UpdatedAt = e.now()
	if err := e.Tasks.Update(ctx, task); err != nil {
		return Result{}, fmt.Errorf("update task: update: %w", err)
	}
	return Result{
		Reply:   "할일을 수정했습니다: " + task.Title,
		Events:  []Event{{Type: "task_updated", Detail: map[string]any{"task_id": task.ID}}},
		Refresh: refreshSet("tasks"),
	}, nil
}

func (e *Executor) deleteTask(ctx context.Context, keyword string) (Result, error) {
	candidates, err := e.Tasks.ListByStatus(ctx, []domain.TaskStatus{
		domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked, domain.TaskDone, domain.TaskCanceled,
	})
	if err != nil {
		return Result{}, fmt.Errorf("delete task: list: %w", err)
	}
	task := planner.FindTask(candidates, keyword, false)
	if task == nil {
		return Result{Reply: "삭제할 할일을 찾지 못했습니다."}, nil
	}
	if _, err := e.Blocks.DetachTask(ctx, task.ID); err != nil {
		return Result{}, fmt.Errorf("delete task: detach blocks: %w", err)
	}
	if err := e.Tasks.Delete(ctx, task.ID); err != nil {
		return Result{}, fmt.Errorf("delete task: %w", err)
	}
	return Result{
		Reply:   "할일을 삭제했습니다: " + task.Title,
		Events:  []Event{{Type: "task_deleted", Detail: map[string]any{"task_id": task.ID, "title": task.Title}}},
		Refresh: refreshSet("tasks", "calendar"),
	}, nil
}

func (e *Executor) listTasks(ctx context.Context, statusFilter *string) (Result, error) {
	statuses := []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked, domain.TaskDone}
	if statusFilter != nil {
		statuses = []domain.TaskStatus{domain.TaskStatus(*statusFilter)}
	}
	tasks, err := e.Tasks.ListByStatus(ctx, statuses)
	if err != nil {
		return Result{}, fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return Result{Reply: "해당하는 할일이 없습니다."}, nil
	}
	var lines []string
	for _, t := range tasks {
		line := fmt.Sprintf("- %s (%s/%s)", t.Title, t.Status, t.Priority)
		if t.Due != nil {
			line += " 마감:" + t.Due.Format("01/02 15:04")
		}
		lines = append(lines, line)
	}
	return Result{
		Reply:  fmt.Sprintf("할일 %d건:\n%s", len(tasks), strings.Join(lines, "\n")),
		Events: []Event{{Type: "tasks_listed", Detail: map[string]any{"count": len(tasks)}}},
	}, nil
}

func (e *Executor) listEvents(ctx context.Context, onDate *time.Time) (Result, error) {
	start := e.now()
	end := start.Add(7 * 24 * time.Hour)
	if onDate != nil {
		day := time.Date(onDate.Year(), onDate.Month(), onDate.Day(), 0, 0, 0, 0, onDate.Location())
		start = day
		end = day.Add(24 * time.Hour)
	}
	blocks, err := e.Blocks.BlocksIntersectingHorizon(ctx, start, end)
	if err != nil {
		return Result{}, fmt.Errorf("list events: %w", err)
	}
	if len(blocks) == 0 {
		return Result{Reply: "해당 기간에 등록된 일정이 없습니다."}, nil
	}
	var lines []string
	for _, b := range blocks {
		lines = append(lines, fmt.Sprintf("- %s: %s ~ %s", b.Title, b.Start.Format("01/02 15:04"), b.End.Format("15:04")))
	}
	return Result{
		Reply:  fmt.Sprintf("일정 %d건:\n%s", len(blocks), strings.Join(lines, "\n")),
		Events: []Event{{Type: "events_listed", Detail: map[string]any{"count": len(blocks)}}},
	}, nil
}

func (e *Executor) findFreeTime(ctx context.Context, onDate *time.Time, limit int) (Result, error) {
	profile, err := e.Profiles.Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("find free time: profile: %w", err)
	}
	date := e.now()
	if onDate != nil {
		date = *onDate
	}
	if limit <= 0 {
		limit = 3
	}

	loc, lerr := time.LoadLocation(profile.Timezone)
	if lerr != nil {
		loc = time.UTC
	}
	local := date.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	blocks, err := e.Blocks.BlocksIntersectingHorizon(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return Result{}, fmt.Errorf("find free time: blocks: %w", err)
	}

	slots := freeslot.FindOnDate(profile, date, blocks)
	if len(slots) > limit {
		slots = slots[:limit]
	}
	if len(slots) == 0 {
		return Result{Reply: "해당 날짜에 여유 시간이 없습니다."}, nil
	}
	var lines []string
	for _, s := range slots {
		lines = append(lines, fmt.Sprintf("- %s ~ %s", s.Start.In(loc).Format("15:04"), s.End.In(loc).Format("15:04")))
	}
	return Result{
		Reply:  fmt.Sprintf("여유 시간 %d건:\n%s", len(slots), strings.Join(lines, "\n")),
		Events: []Event{{Type: "free_time_found", Detail: map[string]any{"count": len(slots)}}},
	}, nil
}
