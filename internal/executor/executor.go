package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/google/uuid"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/meetingextract"
	"github.com/hawlion/ai-planner/internal/planner"
	"github.com/hawlion/ai-planner/internal/scheduler"
	"github.com/hawlion/ai-planner/internal/timealgebra"
)

// Executor turns one planner.Action into committed state, gating writes that
// autonomy policy requires a human to confirm first.
type Executor struct {
	Tasks      TaskStore
	Blocks     BlockStore
	Proposals  ProposalStore
	Approvals  ApprovalStore
	Meetings   MeetingStore
	Candidates CandidateStore
	Audit      AuditStore
	Profiles   ProfileStore
	Mirror     Mirror
	Metrics    scheduler.MetricsRecorder

	Now func() time.Time
}

func (e *Executor) observeProposalsGenerated(count int) {
	if e.Metrics != nil {
		e.Metrics.ObserveProposalsGenerated(count)
	}
}

func (e *Executor) observeProposalApplied() {
	if e.Metrics != nil {
		e.Metrics.ObserveProposalApplied()
	}
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// RequireConfirmation gates the two actions spec.md marks confirmation-first
// regardless of autonomy level (reschedule_after_hour, delete_duplicate
// tasks): chat dispatch always confirms; a replayed chat_pending_action
// approval dispatches with this false.
type DispatchOptions struct {
	RequireConfirmation bool
	Message             string
	History             []planner.ChatTurn
}

// Dispatch executes one action, recording an audit entry for every
// successful effect (including approval-queued ones).
func (e *Executor) Dispatch(ctx context.Context, action planner.Action, opts DispatchOptions) (Result, error) {
	result, err := e.dispatch(ctx, action, opts)
	if err != nil {
		return result, err
	}
	if e.Audit != nil {
		_ = e.Audit.Append(ctx, domain.AuditEntry{
			ID:        uuid.NewString(),
			Action:    string(action.Kind),
			Actor:     "assistant",
			CreatedAt: e.now(),
		})
	}
	return result, nil
}

func (e *Executor) dispatch(ctx context.Context, action planner.Action, opts DispatchOptions) (Result, error) {
	switch action.Kind {
	case planner.ActionRegisterMeetingNote:
		body := ""
		if action.MessageBody != nil {
			body = *action.MessageBody
		} else {
			body = opts.Message
		}
		return e.registerMeetingNote(ctx, body)

	case planner.ActionCreateTask:
		title := opts.Message
		if action.Title != nil {
			title = *action.Title
		}
		due, _ := e.resolveDue(action.Due, action.Hint, opts.Message)
		effort := 60
		if action.EffortMin != nil {
			effort = *action.EffortMin
		}
		priority := "medium"
		if action.Priority != nil {
			priority = *action.Priority
		}
		return e.createTask(ctx, title, due, effort, priority)

	case planner.ActionRescheduleAfterHour:
		cutoff, ok := ResolveCutoff(action, opts.Message)
		if !ok {
			return Result{Reply: "기준 시간을 파악하지 못했습니다. 예: '오후 6시 이후 일정 재배치'"}, nil
		}
		if opts.RequireConfirmation {
			return e.queueConfirmation(ctx, action, fmt.Sprintf("%02d:00 이후 일정 재배치", cutoff), opts.Message,
				fmt.Sprintf("%02d:00 이후 일정을 재배치하려고 합니다. 채팅에 '승인' 또는 '취소'라고 답해 주세요.", cutoff))
		}
		return e.rescheduleAfterHour(ctx, cutoff)

	case planner.ActionRescheduleRequest:
		hint := opts.Message
		if action.Hint != nil {
			hint = *action.Hint
		}
		return e.rescheduleFromMessage(ctx, hint)

	case planner.ActionDeleteDuplicateTasks:
		if opts.RequireConfirmation {
			return e.queueConfirmation(ctx, action, "중복 태스크 정리(중복 항목 취소 및 일정 재연결)", opts.Message,
				"중복 태스크를 정리하려고 합니다. 채팅에 '승인' 또는 '취소'라고 답해 주세요.")
		}
		return e.deleteDuplicateTasks(ctx)

	case planner.ActionCompleteTask:
		keyword := e.resolveKeyword(ctx, action, opts, []domain.TaskStatus{
			domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked, domain.TaskDone,
		})
		return e.completeTask(ctx, keyword)

	case planner.ActionUpdatePriority:
		keyword := e.resolveKeyword(ctx, action, opts, []domain.TaskStatus{
			domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked,
		})
		var priority string
		if action.NewPriority != nil {
			priority = *action.NewPriority
		}
		return e.updatePriority(ctx, keyword, priority)

	case planner.ActionUpdateDue:
		keyword := e.resolveKeyword(ctx, action, opts, []domain.TaskStatus{
			domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked,
		})
		due, ok := e.resolveDue(action.Due, action.Hint, opts.Message)
		if !ok {
			return Result{Reply: "새 마감일을 찾지 못했습니다. 예: '보고서 마감을 내일 오후 5시로 변경'"}, nil
		}
		return e.updateDue(ctx, keyword, due)

	case planner.ActionCreateEvent:
		title := opts.Message
		if action.Title != nil {
			title = *action.Title
		}
		var start time.Time
		if action.Start != nil {
			start = *action.Start
		}
		duration := defaultEventDuration
		if action.Duration != nil {
			duration = *action.Duration
		}
		return e.createEvent(ctx, title, start, duration)

	case planner.ActionMoveEvent:
		keyword := resolveEventKeyword(action, opts.Message)
		var start time.Time
		if action.Start != nil {
			start = *action.Start
		}
		var duration time.Duration
		if action.Duration != nil {
			duration = *action.Duration
		}
		return e.moveEvent(ctx, keyword, start, duration)

	case planner.ActionUpdateEvent:
		keyword := resolveEventKeyword(action, opts.Message)
		var start time.Time
		if action.Start != nil {
			start = *action.Start
		}
		var duration time.Duration
		if action.Duration != nil {
			duration = *action.Duration
		}
		return e.updateEvent(ctx, keyword, action.Title, start, duration)

	case planner.ActionDeleteEvent:
		keyword := resolveEventKeyword(action, opts.Message)
		return e.deleteEvent(ctx, keyword)

	case planner.ActionStartTask:
		keyword := e.resolveKeyword(ctx, action, opts, []domain.TaskStatus{
			domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked,
		})
		return e.startTask(ctx, keyword)

	case planner.ActionUpdateTask:
		keyword := e.resolveKeyword(ctx, action, opts, []domain.TaskStatus{
			domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked,
		})
		return e.updateTask(ctx, keyword, action.Title, action.Description)

	case planner.ActionDeleteTask:
		keyword := e.resolveKeyword(ctx, action, opts, []domain.TaskStatus{
			domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked, domain.TaskDone,
		})
		return e.deleteTask(ctx, keyword)

	case planner.ActionListTasks:
		return e.listTasks(ctx, nil)

	case planner.ActionListEvents:
		return e.listEvents(ctx, action.OnDate)

	case planner.ActionFindFreeTime:
		return e.findFreeTime(ctx, action.OnDate, 3)

	default:
		return Result{Reply: "요청 의도를 처리하지 못했습니다."}, nil
	}
}

// resolveEventKeyword resolves a calendar-block target the same way
// resolveKeyword resolves a task target, but against event-naming fields
// (Keyword/TaskKeyword/Title) since calendar blocks have no status to filter.
func resolveEventKeyword(action planner.Action, message string) string {
	var base string
	if action.Keyword != nil {
		base = *action.Keyword
	} else if action.TaskKeyword != nil {
		base = *action.TaskKeyword
	} else if action.Title != nil {
		base = *action.Title
	}
	keyword := planner.ExtractTaskKeyword(base)
	if keyword == "" {
		keyword = planner.ExtractTaskKeyword(message)
	}
	return keyword
}

// ResolveCutoff picks the reschedule_after_hour cutoff hour off the action
// if the planner already resolved one, else re-parses it from the raw
// message — exported so the chat service's clarification check and the
// dispatch path agree on the same answer.
func ResolveCutoff(action planner.Action, message string) (int, bool) {
	if action.CutoffHour != nil {
		return *action.CutoffHour, true
	}
	return planner.ExtractCutoffHour(message)
}

// ResolveDue exposes resolveDue for the chat service's pre-dispatch
// clarification check, so "can this due date be parsed" uses the exact
// same resolution a dispatch would.
func (e *Executor) ResolveDue(explicit *time.Time, hint *string, message string) (time.Time, bool) {
	return e.resolveDue(explicit, hint, message)
}

func (e *Executor) resolveDue(explicit *time.Time, hint *string, message string) (time.Time, bool) {
	if explicit != nil {
		return *explicit, true
	}
	fallback := message
	value := ""
	if hint != nil {
		value = *hint
	}
	loc := time.UTC
	return planner.ParseDue(value, fallback, loc, e.now())
}

func (e *Executor) resolveKeyword(ctx context.Context, action planner.Action, opts DispatchOptions, statuses []domain.TaskStatus) string {
	message := opts.Message
	var base string
	if action.TaskKeyword != nil {
		base = *action.TaskKeyword
	} else if action.Title != nil {
		base = *action.Title
	}
	keyword := planner.ExtractTaskKeyword(base)
	if keyword == "" {
		keyword = planner.ExtractTaskKeyword(message)
	}
	if planner.HasReferencePhrase(message) {
		if hist := e.inferKeywordFromHistory(ctx, message, opts.History, statuses); hist != "" {
			return hist
		}
	}
	if keyword == "" || planner.IsGenericKeyword(keyword) {
		if hist := e.inferKeywordFromHistory(ctx, message, opts.History, statuses); hist != "" {
			return hist
		}
	}
	return keyword
}

// ResolveTaskKeyword exposes resolveKeyword's title/history-inference
// resolution to callers outside the package (the chat service's
// pre-dispatch clarification check needs the same keyword a dispatch would
// land on, without actually dispatching).
func (e *Executor) ResolveTaskKeyword(ctx context.Context, action planner.Action, opts DispatchOptions, statuses []domain.TaskStatus) string {
	return e.resolveKeyword(ctx, action, opts, statuses)
}

// FindTaskByKeyword resolves keyword against the live tasks in statuses,
// the same lookup a dispatch would perform, for callers that need to know
// whether a target exists before committing to dispatch (pre-dispatch
// clarification checks).
func (e *Executor) FindTaskByKeyword(ctx context.Context, keyword string, statuses []domain.TaskStatus) (*domain.Task, error) {
	candidates, err := e.Tasks.ListByStatus(ctx, statuses)
	if err != nil {
		return nil, fmt.Errorf("find task by keyword: %w", err)
	}
	return planner.FindTask(candidates, keyword, false), nil
}

// inferKeywordFromHistory walks the last 12 turns back-to-front looking for a
// task title a reference phrase ("그거", "아까") could plausibly point at: an
// assistant reply's reported title, or a prior user turn's own keyword
// extraction. The first candidate that still resolves to a live task wins.
// Mirrors the distillation's reluctance to guess from history when the
// current message is already long and specific (>6 normalized runes and no
// reference phrase): a long message is assumed to name its own target.
func (e *Executor) inferKeywordFromHistory(ctx context.Context, message string, history []planner.ChatTurn, statuses []domain.TaskStatus) string {
	if !planner.HasReferencePhrase(message) && len([]rune(planner.NormalizeText(message))) > 6 {
		return ""
	}

	recent := history
	if len(recent) > 12 {
		recent = recent[len(recent)-12:]
	}

	candidates, err := e.Tasks.ListByStatus(ctx, statuses)
	if err != nil {
		return ""
	}

	for i := len(recent) - 1; i >= 0; i-- {
		turn := recent[i]
		role := strings.ToLower(strings.TrimSpace(turn.Role))
		text := strings.TrimSpace(turn.Text)
		if text == "" || (role != "user" && role != "assistant") {
			continue
		}

		var keywords []string
		if role == "assistant" {
			keywords = planner.ExtractAssistantTitles(text)
		} else if kw := planner.ExtractTaskKeyword(text); kw != "" {
			keywords = []string{kw}
		}

		for _, kw := range keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" || planner.IsGenericKeyword(kw) {
				continue
			}
			if planner.FindTask(candidates, kw, false) != nil {
				return kw
			}
		}
	}
	return ""
}

func (e *Executor) createTask(ctx context.Context, title string, due time.Time, effortMin int, priority string) (Result, error) {
	p := domain.Priority(priority)
	if !p.Valid() {
		p = domain.PriorityMedium
	}
	task := &domain.Task{
		ID:        uuid.NewString(),
		Title:     firstNonEmpty(title, "새 작업"),
		EffortMin: domain.ClampEffort(effortMin),
		Priority:  p,
		Status:    domain.TaskTodo,
		Origin:    domain.OriginChat,
		CreatedAt: e.now(),
		UpdatedAt: e.now(),
	}
	if !due.IsZero() {
		task.Due = &due
	}
	if err := e.Tasks.Create(ctx, task); err != nil {
		return Result{}, fmt.Errorf("create task: %w", err)
	}
	return Result{
		Reply:   "할일을 생성했습니다: " + task.Title,
		Events:  []Event{{Type: "task_created", Detail: map[string]any{"task_id": task.ID, "title": task.Title}}},
		Refresh: refreshSet("tasks"),
	}, nil
}

func (e *Executor) completeTask(ctx context.Context, keyword string) (Result, error) {
	candidates, err := e.Tasks.ListByStatus(ctx, []domain.TaskStatus{
		domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked, domain.TaskDone,
	})
	if err != nil {
		return Result{}, fmt.Errorf("complete task: list: %w", err)
	}
	task := planner.FindTask(candidates, keyword, false)
	if task == nil {
		return Result{Reply: "완료 처리할 할일을 찾지 못했습니다. 작업 제목을 조금 더 구체적으로 말해 주세요."}, nil
	}
	if task.Status == domain.TaskDone {
		return Result{
			Reply:   "이미 완료 상태입니다: " + task.Title,
			Events:  []Event{{Type: "task_already_done", Detail: map[string]any{"task_id": task.ID, "title": task.Title}}},
			Refresh: refreshSet("tasks"),
		}, nil
	}
	task.Status = domain.TaskDone
	task.Version++
	task.UpdatedAt = e.now()
	if err := e.Tasks.Update(ctx, task); err != nil {
		return Result{}, fmt.Errorf("complete task: update: %w", err)
	}
	return Result{
		Reply:   "완료 처리했습니다: " + task.Title,
		Events:  []Event{{Type: "task_completed", Detail: map[string]any{"task_id": task.ID, "title": task.Title}}},
		Refresh: refreshSet("tasks"),
	}, nil
}

func (e *Executor) updatePriority(ctx context.Context, keyword, priority string) (Result, error) {
	if priority == "" {
		return Result{Reply: "우선순위 값을 찾지 못했습니다. 예: '보고서 작업 우선순위 높음으로 변경'"}, nil
	}
	mapped := domain.Priority(priority)
	if !mapped.Valid() {
		return Result{Reply: "지원하지 않는 우선순위입니다. 낮음/중간/높음/긴급 중 하나로 요청해 주세요."}, nil
	}
	candidates, err := e.Tasks.ListByStatus(ctx, []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked})
	if err != nil {
		return Result{}, fmt.Errorf("update priority: list: %w", err)
	}
	task := planner.FindTask(candidates, keyword, false)
	if task == nil {
		return Result{Reply: "우선순위를 바꿀 할일을 찾지 못했습니다."}, nil
	}
	task.Priority = mapped
	task.Version++
	task.UpdatedAt = e.now()
	if err := e.Tasks.Update(ctx, task); err != nil {
		return Result{}, fmt.Errorf("update priority: update: %w", err)
	}
	return Result{
		Reply:   fmt.Sprintf("우선순위를 변경했습니다: %s -> %s", task.Title, mapped),
		Events:  []Event{{Type: "task_priority_updated", Detail: map[string]any{"task_id": task.ID, "priority": string(mapped)}}},
		Refresh: refreshSet("tasks"),
	}, nil
}

func (e *Executor) updateDue(ctx context.Context, keyword string, due time.Time) (Result, error) {
	candidates, err := e.Tasks.ListByStatus(ctx, []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked})
	if err != nil {
		return Result{}, fmt.Errorf("update due: list: %w", err)
	}
	task := planner.FindTask(candidates, keyword, false)
	if task == nil {
		return Result{Reply: "마감일을 변경할 할일을 찾지 못했습니다."}, nil
	}
	task.Due = &due
	task.Version++
	task.UpdatedAt = e.now()
	if err := e.Tasks.Update(ctx, task); err != nil {
		return Result{}, fmt.Errorf("update due: update: %w", err)
	}
	return Result{
		Reply:   fmt.Sprintf("마감일을 변경했습니다: %s -> %s", task.Title, due.Format("2006-01-02 15:04")),
		Events:  []Event{{Type: "task_due_updated", Detail: map[string]any{"task_id": task.ID, "due": due.Format(time.RFC3339)}}},
		Refresh: refreshSet("tasks"),
	}, nil
}

func (e *Executor) rescheduleFromMessage(ctx context.Context, hint string) (Result, error) {
	profile, err := e.Profiles.Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reschedule: profile: %w", err)
	}
	tasks, err := e.Tasks.ListByStatus(ctx, []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress})
	if err != nil {
		return Result{}, fmt.Errorf("reschedule: tasks: %w", err)
	}
	blocks, err := e.Blocks.ActiveNonExternalAfter(ctx, e.now().Add(-24*time.Hour))
	if err != nil {
		return Result{}, fmt.Errorf("reschedule: blocks: %w", err)
	}

	horizon := timealgebra.Interval{Start: e.now(), End: e.now().Add(48 * time.Hour)}
	proposals := scheduler.GenerateProposals(profile, horizon, tasks, blocks, 30, 1)
	e.observeProposalsGenerated(len(proposals))
	if len(proposals) == 0 {
		return Result{Reply: "재배치할 제안을 만들지 못했습니다. 기간을 더 넓혀 다시 요청해 주세요.", Refresh: refreshSet("calendar")}, nil
	}
	proposal := &proposals[0]
	if err := e.Proposals.Create(ctx, proposal); err != nil {
		return Result{}, fmt.Errorf("reschedule: persist proposal: %w", err)
	}

	if profile.Autonomy.RequiresApproval() {
		approval := &domain.ApprovalRequest{
			ID:        uuid.NewString(),
			Type:      domain.ApprovalReschedule,
			Status:    domain.ApprovalPending,
			Payload:   domain.ApprovalPayload{ProposalID: proposal.ID},
			Reason:    "assistant_chat_request",
			CreatedAt: e.now(),
		}
		if err := e.Approvals.Create(ctx, approval); err != nil {
			return Result{}, fmt.Errorf("reschedule: queue approval: %w", err)
		}
		return Result{
			Reply:   fmt.Sprintf("재배치 제안을 만들었습니다. 채팅에서 '승인' 또는 '취소'로 결정해 주세요. (approval %s)", approval.ID),
			Events:  []Event{{Type: "reschedule_approval_requested", Detail: map[string]any{"approval_id": approval.ID}}},
			Refresh: refreshSet("approvals", "calendar"),
		}, nil
	}

	created, _, err := scheduler.ApplyProposal(ctx, e.Blocks, proposal)
	if err != nil {
		return Result{}, fmt.Errorf("reschedule: apply: %w", err)
	}
	e.observeProposalApplied()
	synced := e.mirrorCreated(ctx, created)
	reply := fmt.Sprintf("재배치를 적용했습니다. 새 일정 %d건 생성", len(created))
	if synced > 0 {
		reply += fmt.Sprintf(", Outlook 동기화 %d건", synced)
	}
	if hint != "" {
		reply += fmt.Sprintf(" (요청: %s)", hint)
	}
	reply += "."
	return Result{
		Reply:   reply,
		Events:  []Event{{Type: "reschedule_applied", Detail: map[string]any{"proposal_id": proposal.ID, "created_blocks": len(created)}}},
		Refresh: refreshSet("calendar"),
	}, nil
}

func (e *Executor) rescheduleAfterHour(ctx context.Context, cutoffHour int) (Result, error) {
	profile, err := e.Profiles.Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reschedule after hour: profile: %w", err)
	}
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil || profile.Timezone == "" {
		loc = time.UTC
	}
	nowUTC := e.now()
	nowLocal := nowUTC.In(loc)

	active, err := e.Blocks.ActiveNonExternalAfter(ctx, nowUTC)
	if err != nil {
		return Result{}, fmt.Errorf("reschedule after hour: blocks: %w", err)
	}

	var targets []domain.CalendarBlock
	for _, b := range active {
		start := b.Start.In(loc)
		end := b.End.In(loc)
		if !end.After(nowLocal) {
			continue
		}
		startHour := float64(start.Hour()) + float64(start.Minute())/60.0
		endHour := float64(end.Hour()) + float64(end.Minute())/60.0
		if startHour >= float64(cutoffHour) || endHour > float64(cutoffHour) {
			targets = append(targets, b)
		}
	}
	if len(targets) == 0 {
		return Result{Reply: fmt.Sprintf("%02d:00 이후 일정이 없어 재배치할 항목이 없습니다.", cutoffHour), Refresh: refreshSet("calendar")}, nil
	}

	taskIDSet := map[string]bool{}
	skippedUnlinked := 0
	for _, b := range targets {
		if b.TaskID != nil {
			taskIDSet[*b.TaskID] = true
		} else {
			skippedUnlinked++
		}
	}
	if len(taskIDSet) == 0 {
		return Result{Reply: "재배치 대상 일정은 찾았지만 연결된 할일이 없어 자동 재배치를 적용하지 못했습니다.", Refresh: refreshSet("calendar")}, nil
	}
	var taskIDs []string
	for id := range taskIDSet {
		taskIDs = append(taskIDs, id)
	}

	allTasks, err := e.Tasks.ListByStatus(ctx, []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked})
	if err != nil {
		return Result{}, fmt.Errorf("reschedule after hour: tasks: %w", err)
	}
	var selected []domain.Task
	for _, t := range allTasks {
		if taskIDSet[t.ID] {
			selected = append(selected, t)
		}
	}

	horizon := timealgebra.Interval{Start: nowLocal, End: nowLocal.AddDate(0, 0, 14)}
	proposals := scheduler.GenerateProposals(profile, horizon, selected, active, 30, 1)
	e.observeProposalsGenerated(len(proposals))
	if len(proposals) == 0 {
		return Result{Reply: "재배치 가능한 제안을 만들지 못했습니다. 근무시간 또는 기존 일정 충돌을 확인해 주세요.", Refresh: refreshSet("calendar")}, nil
	}
	proposal := &proposals[0]
	if err := e.Proposals.Create(ctx, proposal); err != nil {
		return Result{}, fmt.Errorf("reschedule after hour: persist proposal: %w", err)
	}
	created, _, err := scheduler.ApplyProposal(ctx, e.Blocks, proposal)
	if err != nil {
		return Result{}, fmt.Errorf("reschedule after hour: apply: %w", err)
	}
	e.observeProposalApplied()
	if len(created) == 0 {
		return Result{Reply: "재배치 제안을 만들었지만 적용 가능한 새 일정 슬롯이 없어 변경하지 못했습니다.", Refresh: refreshSet("calendar")}, nil
	}

	var removed []domain.CalendarBlock
	for _, b := range targets {
		if b.TaskID != nil && taskIDSet[*b.TaskID] {
			removed = append(removed, b)
		}
	}
	deletedOutlook := 0
	if len(removed) > 0 && e.Mirror != nil && e.Mirror.IsConnected(ctx) {
		deleted, _, derr := e.Mirror.Delete(ctx, removed)
		if derr == nil {
			deletedOutlook = len(deleted)
		}
	}
	for _, b := range removed {
		if err := e.Blocks.Delete(ctx, b.ID); err != nil {
			return Result{}, fmt.Errorf("reschedule after hour: delete block: %w", err)
		}
	}

	synced := e.mirrorCreated(ctx, created)
	reply := fmt.Sprintf("%02d:00 이후 일정 재배치를 적용했습니다. 기존 %d건 정리, 새 일정 %d건 생성", cutoffHour, len(removed), len(created))
	if skippedUnlinked > 0 {
		reply += fmt.Sprintf(", 미연결 일정 %d건 제외", skippedUnlinked)
	}
	if synced > 0 {
		reply += fmt.Sprintf(", Outlook 반영 %d건", synced)
	}
	if deletedOutlook > 0 {
		reply += fmt.Sprintf(", Outlook 기존일정 삭제 %d건", deletedOutlook)
	}
	reply += "."

	return Result{
		Reply: reply,
		Events: []Event{{Type: "after_hour_rescheduled", Detail: map[string]any{
			"cutoff_hour": cutoffHour, "removed_blocks": len(removed), "created_blocks": len(created), "skipped_unlinked": skippedUnlinked,
		}}},
		Refresh: refreshSet("calendar", "tasks"),
	}, nil
}

// keeperScore ranks tasks within a duplicate group so the most complete,
// most advanced record survives: status, then priority, then whether it has
// a due date, then description length, then recency — each a tiebreak for
// the one before it.
func keeperScore(t domain.Task) [5]float64 {
	due := 0.0
	if t.Due != nil {
		due = 1.0
	}
	return [5]float64{
		float64(t.Status.StatusRank()),
		float64(t.Priority.Rank()),
		due,
		float64(len(strings.TrimSpace(t.Description))),
		float64(t.UpdatedAt.Unix()),
	}
}

func scoreLess(a, b [5]float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func (e *Executor) deleteDuplicateTasks(ctx context.Context) (Result, error) {
	tasks, err := e.Tasks.ListByStatus(ctx, []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked, domain.TaskDone})
	if err != nil {
		return Result{}, fmt.Errorf("delete duplicates: list: %w", err)
	}

	groups := map[string][]domain.Task{}
	for _, t := range tasks {
		key := planner.NormalizeText(t.Title)
		if len([]rune(key)) < 3 {
			continue
		}
		groups[key] = append(groups[key], t)
	}

	groupCount, canceled, relinked, merged := 0, 0, 0, 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		keeperIdx := 0
		for i := 1; i < len(group); i++ {
			if scoreLess(keeperScore(group[keeperIdx]), keeperScore(group[i])) {
				keeperIdx = i
			}
		}
		keeper := group[keeperIdx]
		keeperChanged := false

		for i, t := range group {
			if i == keeperIdx {
				continue
			}
			before := keeper
			if err := mergo.Merge(&keeper, domain.Task{Description: t.Description, Due: t.Due}); err != nil {
				return Result{}, fmt.Errorf("delete duplicates: merge fields: %w", err)
			}
			if keeper != before {
				merged++
				keeperChanged = true
			}
			if t.Priority.Rank() > keeper.Priority.Rank() {
				keeper.Priority = t.Priority
				keeperChanged = true
				merged++
			}

			n, err := e.Blocks.ReassignTask(ctx, t.ID, keeper.ID)
			if err != nil {
				return Result{}, fmt.Errorf("delete duplicates: relink blocks: %w", err)
			}
			relinked += n

			if t.Status != domain.TaskCanceled {
				t.Status = domain.TaskCanceled
				t.Version++
				t.UpdatedAt = e.now()
				if err := e.Tasks.Update(ctx, &t); err != nil {
					return Result{}, fmt.Errorf("delete duplicates: cancel %s: %w", t.ID, err)
				}
				canceled++
			}
		}

		if keeperChanged {
			keeper.Version++
			keeper.UpdatedAt = e.now()
			if err := e.Tasks.Update(ctx, &keeper); err != nil {
				return Result{}, fmt.Errorf("delete duplicates: update keeper %s: %w", keeper.ID, err)
			}
		}
		groupCount++
	}

	if groupCount == 0 {
		return Result{Reply: "중복으로 판단되는 태스크가 없습니다.", Refresh: refreshSet("tasks")}, nil
	}

	return Result{
		Reply: fmt.Sprintf("중복 태스크를 정리했습니다. 그룹 %d개, 취소 %d건, 일정 재연결 %d건.", groupCount, canceled, relinked),
		Events: []Event{{Type: "duplicate_tasks_cleaned", Detail: map[string]any{
			"groups": groupCount, "canceled": canceled, "relinked_blocks": relinked, "merged_fields": merged,
		}}},
		Refresh: refreshSet("tasks", "calendar"),
	}, nil
}

func (e *Executor) registerMeetingNote(ctx context.Context, noteText string) (Result, error) {
	pairs := meetingextract.ParseTranscriptLines(noteText)
	transcript := make([]domain.TranscriptLine, 0, len(pairs))
	for _, p := range pairs {
		transcript = append(transcript, domain.TranscriptLine{TsMs: p.TsMs, Speaker: p.Speaker, Text: p.Text})
	}
	var summary string
	if len(transcript) > 0 {
		summary = truncateRunes(transcript[0].Text, 200)
	}

	now := e.now()
	meeting := &domain.Meeting{
		ID:               "chat-meeting-" + uuid.NewString(),
		Title:            "Chat Meeting Note",
		StartedAt:        now,
		EndedAt:          &now,
		Summary:          summary,
		Transcript:       transcript,
		ExtractionStatus: domain.ExtractionPending,
	}
	if err := e.Meetings.Create(ctx, meeting); err != nil {
		return Result{}, fmt.Errorf("register meeting: %w", err)
	}

	drafts := meetingextract.ExtractFallback(*meeting, now, func(hint string, base time.Time) *time.Time {
		if due, ok := planner.ParseDue(hint, hint, time.UTC, base); ok {
			return &due
		}
		return nil
	})

	autoTasks, queuedApprovals := 0, 0
	var createdBlocks []domain.CalendarBlock
	for _, d := range drafts {
		candidate := &domain.ActionItemCandidate{
			ID:           uuid.NewString(),
			MeetingID:    meeting.ID,
			Title:        d.Title,
			AssigneeName: d.AssigneeName,
			Due:          d.Due,
			EffortMin:    d.EffortMin,
			Confidence:   d.Confidence,
			Rationale:    d.Rationale,
			Status:       domain.CandidatePending,
		}
		if err := e.Candidates.Create(ctx, candidate); err != nil {
			return Result{}, fmt.Errorf("register meeting: candidate: %w", err)
		}

		if candidate.EligibleForAutoApproval() {
			_, blocks, err := e.ApproveCandidate(ctx, candidate)
			if err != nil {
				return Result{}, fmt.Errorf("register meeting: auto approve: %w", err)
			}
			createdBlocks = append(createdBlocks, blocks...)
			autoTasks++
			continue
		}

		approval := &domain.ApprovalRequest{
			ID:        uuid.NewString(),
			Type:      domain.ApprovalActionItem,
			Status:    domain.ApprovalPending,
			Payload:   domain.ApprovalPayload{CandidateID: candidate.ID},
			Reason:    "below_auto_approval_threshold",
			CreatedAt: now,
		}
		if err := e.Approvals.Create(ctx, approval); err != nil {
			return Result{}, fmt.Errorf("register meeting: queue approval: %w", err)
		}
		queuedApprovals++
	}

	synced := e.mirrorCreated(ctx, createdBlocks)

	reply := fmt.Sprintf("회의록을 등록했습니다. 액션아이템 %d건 중 자동 반영 %d건, 승인 대기 %d건.", len(drafts), autoTasks, queuedApprovals)
	if synced > 0 {
		reply += fmt.Sprintf(" (Outlook 동기화 %d건)", synced)
	}
	return Result{
		Reply:   reply,
		Events:  []Event{{Type: "meeting_registered", Detail: map[string]any{"meeting_id": meeting.ID, "candidates": len(drafts)}}},
		Refresh: refreshSet("approvals", "tasks", "meetings", "calendar"),
	}, nil
}

func (e *Executor) queueConfirmation(ctx context.Context, action planner.Action, summary, sourceMessage, reply string) (Result, error) {
	payload := domain.PlannedActionPayload{Kind: string(action.Kind), Fields: actionFields(action)}
	approval := &domain.ApprovalRequest{
		ID:        uuid.NewString(),
		Type:      domain.ApprovalChatPendingAction,
		Status:    domain.ApprovalPending,
		Payload:   domain.ApprovalPayload{Action: &payload, SourceMessage: sourceMessage},
		Reason:    "assistant_confirmation_required",
		CreatedAt: e.now(),
	}
	if err := e.Approvals.Create(ctx, approval); err != nil {
		return Result{}, fmt.Errorf("queue confirmation: %w", err)
	}
	return Result{
		Reply:   reply,
		Events:  []Event{{Type: "approval_requested", Detail: map[string]any{"approval_id": approval.ID, "type": "chat"}}},
		Refresh: refreshSet("approvals"),
	}, nil
}

func actionFields(a planner.Action) map[string]any {
	fields := map[string]any{}
	if a.CutoffHour != nil {
		fields["cutoff_hour"] = *a.CutoffHour
	}
	return fields
}

// ApplyApprovedProposal applies a draft scheduling proposal a human just
// approved (via the chat_pending_action/reschedule approval flow, not a
// freshly-generated one), mirroring created blocks onward the same way the
// in-chat autonomous-apply path does. Returns the created blocks and the
// Outlook-sync count.
func (e *Executor) ApplyApprovedProposal(ctx context.Context, proposal *domain.SchedulingProposal) ([]domain.CalendarBlock, int, error) {
	created, _, err := scheduler.ApplyProposal(ctx, e.Blocks, proposal)
	if err != nil {
		return nil, 0, fmt.Errorf("apply approved proposal: %w", err)
	}
	e.observeProposalApplied()
	return created, e.mirrorCreated(ctx, created), nil
}

// MirrorBlocks exposes mirrorCreated to callers outside the package — the
// chat service's action_item approval-resolution branch creates a task's
// calendar block via ApproveCandidate and then mirrors it exactly like
// registerMeetingNote's auto-approval path does.
func (e *Executor) MirrorBlocks(ctx context.Context, blocks []domain.CalendarBlock) int {
	return e.mirrorCreated(ctx, blocks)
}

func (e *Executor) mirrorCreated(ctx context.Context, blocks []domain.CalendarBlock) int {
	if e.Mirror == nil || len(blocks) == 0 || !e.Mirror.IsConnected(ctx) {
		return 0
	}
	result, err := e.Mirror.Mirror(ctx, blocks)
	if err != nil {
		return 0
	}
	return len(result.Created)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
