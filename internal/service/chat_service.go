package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hawlion/ai-planner/internal/approval"
	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/executor"
	"github.com/hawlion/ai-planner/internal/llm"
	"github.com/hawlion/ai-planner/internal/planner"
	"github.com/hawlion/ai-planner/internal/repository"
)

// chatApprovableTypes are the approval kinds a bare chat affirmation/negation
// ("승인"/"취소") can resolve, independent of any clarification in flight.
var chatApprovableTypes = []domain.ApprovalType{
	domain.ApprovalChatPendingAction,
	domain.ApprovalReschedule,
	domain.ApprovalActionItem,
}

var activeTaskStatuses = []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked}
var completableTaskStatuses = []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked, domain.TaskDone}

var dayTokens = []string{"오늘", "내일", "이번주", "다음주", "tomorrow", "week"}

type chatService struct {
	tasks      repository.TaskRepo
	blocks     repository.CalendarBlockRepo
	approvals  repository.ApprovalRequestRepo
	candidates repository.ActionItemCandidateRepo
	proposals  repository.SchedulingProposalRepo
	profiles   repository.ProfileRepo
	executor   *executor.Executor
	llm        llm.LLMClient // nil disables LLM-backed planning
	observer   UseCaseObserver

	// Now overrides the clock in tests; nil uses time.Now().UTC().
	Now func() time.Time
}

func NewChatService(
	tasks repository.TaskRepo,
	blocks repository.CalendarBlockRepo,
	approvals repository.ApprovalRequestRepo,
	candidates repository.ActionItemCandidateRepo,
	proposals repository.SchedulingProposalRepo,
	profiles repository.ProfileRepo,
	exec *executor.Executor,
	llmClient llm.LLMClient,
	observer UseCaseObserver,
) ChatService {
	return &chatService{
		tasks:      tasks,
		blocks:     blocks,
		approvals:  approvals,
		candidates: candidates,
		proposals:  proposals,
		profiles:   profiles,
		executor:   exec,
		llm:        llmClient,
		observer:   useCaseObserverOrNoop([]UseCaseObserver{observer}),
	}
}

func (s *chatService) nowTime() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Chat turns one free-text turn into dispatched actions, following the
// distillation's precedence: a pending clarification first, then a pending
// approval the message affirms/rejects, then fresh intent classification
// and per-action dispatch.
func (s *chatService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	started := s.nowTime()
	resp, err := s.chat(ctx, req)
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      "chat",
		Duration:  s.nowTime().Sub(started),
		Success:   err == nil,
		Err:       err,
		StartedAt: started,
	})
	return resp, err
}

func (s *chatService) chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	message := strings.TrimSpace(req.Message)

	clarification, err := s.approvals.LatestPending(ctx, domain.ApprovalChatClarification)
	if err != nil {
		return nil, fmt.Errorf("chat: latest clarification: %w", err)
	}
	if clarification != nil {
		if planner.IsNegative(message) {
			if _, err := approval.Reject(ctx, s.approvals, clarification.ID, "clarification_rejected_via_chat"); err != nil {
				return nil, fmt.Errorf("chat: reject clarification: %w", err)
			}
			return &ChatResponse{Reply: "요청을 취소했습니다. 새로 요청해 주세요.", Refresh: []string{"approvals"}}, nil
		}
		if _, err := approval.Approve(ctx, s.approvals, clarification.ID, "clarification_resolved_via_chat"); err != nil {
			return nil, fmt.Errorf("chat: approve clarification: %w", err)
		}
		if clarification.Payload.OriginalMessage != "" {
			message = fmt.Sprintf("%s\n추가정보: %s", clarification.Payload.OriginalMessage, message)
		}
	}

	if affirmative, negative := planner.IsAffirmative(message), planner.IsNegative(message); affirmative || negative {
		pending, err := s.pendingApprovalForChat(ctx, message)
		if err != nil {
			return nil, err
		}
		if pending != nil {
			return s.resolvePendingApprovalByChat(ctx, pending, affirmative, message, req.History)
		}
	}

	actions, planNote, err := s.classify(ctx, message, req.History)
	if err != nil {
		return nil, err
	}
	planned := planner.BuildPlan(actions, message)

	return s.dispatchPlan(ctx, planned, message, planNote, req.History)
}

// pendingApprovalForChat resolves the one approval a bare "승인"/"취소" reply
// should act on: an explicitly-named approval id when the message carries
// one and it's still pending and chat-approvable, else the most recently
// queued pending request among chatApprovableTypes.
func (s *chatService) pendingApprovalForChat(ctx context.Context, message string) (*domain.ApprovalRequest, error) {
	if id := planner.ExtractUUID(message); id != "" {
		req, err := s.approvals.Get(ctx, id)
		if err == nil && req != nil && req.Pending() && isChatApprovableType(req.Type) {
			return req, nil
		}
	}
	return approval.LatestPendingAmong(ctx, s.approvals, chatApprovableTypes)
}

func isChatApprovableType(t domain.ApprovalType) bool {
	for _, want := range chatApprovableTypes {
		if t == want {
			return true
		}
	}
	return false
}

// classify produces the initial planned-actions list plus any LLM planning
// note: a quick-rule hit short-circuits the LLM call entirely; otherwise the
// LLM is consulted (when configured and reachable) and a zero-action result
// falls back to the quick-rule classification.
func (s *chatService) classify(ctx context.Context, message string, history []planner.ChatTurn) ([]planner.Action, string, error) {
	quick := planner.FallbackClassify(message)
	if quick.Kind != planner.ActionUnknown {
		return []planner.Action{quick}, "", nil
	}
	if s.llm == nil || !s.llm.Available(ctx) {
		return []planner.Action{quick}, "", nil
	}

	taskCtx, eventCtx, approvalCtx := s.buildPlanningContext(ctx)
	timezone := s.timezone(ctx)
	plan, err := planner.ClassifyLLM(ctx, s.llm, message, s.nowTime(), timezone, history, taskCtx, eventCtx, approvalCtx, s.parseDateHint)
	if err != nil {
		return []planner.Action{quick}, "", nil
	}
	if len(plan.Actions) == 0 {
		return []planner.Action{quick}, plan.Note, nil
	}
	return plan.Actions, plan.Note, nil
}

func (s *chatService) timezone(ctx context.Context) string {
	profile, err := s.profiles.Get(ctx)
	if err != nil || profile.Timezone == "" {
		return "UTC"
	}
	return profile.Timezone
}

func (s *chatService) parseDateHint(hint string, base time.Time) *time.Time {
	if due, ok := planner.ParseDue(hint, hint, time.UTC, base); ok {
		return &due
	}
	return nil
}

func (s *chatService) buildPlanningContext(ctx context.Context) ([]planner.TaskContext, []planner.EventContext, []planner.ApprovalContext) {
	var taskCtx []planner.TaskContext
	if tasks, err := s.tasks.RecentForContext(ctx, 40); err == nil {
		for _, t := range tasks {
			taskCtx = append(taskCtx, planner.TaskContext{
				Title: t.Title, Status: string(t.Status), Priority: string(t.Priority), Due: t.Due,
			})
		}
	}

	now := s.nowTime()
	var eventCtx []planner.EventContext
	if blocks, err := s.blocks.BlocksIntersectingHorizon(ctx, now, now.Add(7*24*time.Hour)); err == nil {
		for _, b := range blocks {
			eventCtx = append(eventCtx, planner.EventContext{
				Title: b.Title, Start: b.Start, End: b.End, Source: string(b.Source),
			})
		}
	}

	var approvalCtx []planner.ApprovalContext
	if pending, err := s.approvals.ListPending(ctx); err == nil {
		for _, a := range pending {
			approvalCtx = append(approvalCtx, planner.ApprovalContext{ID: a.ID, Type: string(a.Type), Summary: a.Reason})
		}
	}

	return taskCtx, eventCtx, approvalCtx
}

// dispatchPlan walks planned (already capped to 5, meeting-exclusive, and
// singleton-deduped by BuildPlan), dispatching each action that clears its
// pre-dispatch clarification check. The first clarification need — or, if
// nothing at all dispatched, a generic one — short-circuits the turn.
func (s *chatService) dispatchPlan(ctx context.Context, planned []planner.Action, message, planNote string, history []planner.ChatTurn) (*ChatResponse, error) {
	referenceMode := planner.HasReferencePhrase(message)
	referenceProcessed := false

	var replyParts []string
	var mergedEvents []executor.Event
	refresh := map[string]bool{}

	for _, action := range planned {
		if action.Kind == planner.ActionUnknown {
			continue
		}
		if referenceMode && isReferenceDispatchKind(action.Kind) {
			if referenceProcessed {
				continue
			}
			referenceProcessed = true
		}

		question, err := s.needsClarificationForAction(ctx, action, message, history)
		if err != nil {
			return nil, err
		}
		if question != "" {
			if _, err := s.queueChatClarification(ctx, question, message); err != nil {
				return nil, err
			}
			return &ChatResponse{Reply: question, Refresh: []string{"approvals"}}, nil
		}

		result, err := s.executor.Dispatch(ctx, action, executor.DispatchOptions{
			RequireConfirmation: true,
			Message:             message,
			History:             history,
		})
		if err != nil {
			return nil, err
		}
		replyParts = append(replyParts, result.Reply)
		mergedEvents = append(mergedEvents, result.Events...)
		for _, r := range result.Refresh {
			refresh[r] = true
		}
	}

	if len(replyParts) == 0 {
		question := s.clarificationQuestion(message, planNote)
		if _, err := s.queueChatClarification(ctx, question, message); err != nil {
			return nil, err
		}
		return &ChatResponse{Reply: question, Refresh: []string{"approvals"}}, nil
	}

	reply := replyParts[0]
	if len(replyParts) > 1 {
		lines := make([]string, len(replyParts))
		for i, p := range replyParts {
			lines[i] = fmt.Sprintf("%d. %s", i+1, p)
		}
		reply = strings.Join(lines, "\n")
	}

	return &ChatResponse{Reply: reply, Actions: mergedEvents, Refresh: sortedKeys(refresh)}, nil
}

func isReferenceDispatchKind(kind planner.ActionKind) bool {
	return kind == planner.ActionCompleteTask || kind == planner.ActionUpdatePriority || kind == planner.ActionUpdateDue
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// needsClarificationForAction validates one planned action before dispatch,
// returning a non-empty question when the action can't yet be dispatched
// confidently. Each branch targets exactly the ambiguity its intent is prone
// to: a pasted-transcript check for meeting notes, a resolvable cutoff hour
// for after-hour reschedules, a resolvable priority/due value for their
// respective updates, a resolvable and existing task for any task-targeting
// intent, and a minimally-specific request for a bare reschedule.
func (s *chatService) needsClarificationForAction(ctx context.Context, action planner.Action, message string, history []planner.ChatTurn) (string, error) {
	switch action.Kind {
	case planner.ActionUnknown:
		return s.clarificationQuestion(message, ""), nil

	case planner.ActionRegisterMeetingNote:
		if !planner.LooksLikeMeetingNote(message) {
			return "회의록으로 인식할 내용을 찾지 못했습니다. '화자: 발언' 형식으로 붙여넣어 주세요.", nil
		}
		return "", nil

	case planner.ActionRescheduleAfterHour:
		if _, ok := executor.ResolveCutoff(action, message); !ok {
			return "기준 시간을 파악하지 못했습니다. 예: '오후 6시 이후 일정 재배치'", nil
		}
		return "", nil

	case planner.ActionRescheduleRequest:
		trimmed := strings.TrimSpace(message)
		tooShort := len([]rune(trimmed)) <= 8
		vagueReschedule := strings.Contains(message, "재배치") && !containsDayToken(message)
		if tooShort || vagueReschedule {
			return "재배치할 기간을 더 구체적으로 말씀해 주세요. 예: '이번주 일정 재배치해줘'", nil
		}
		return "", nil
	}

	if action.Kind == planner.ActionUpdatePriority {
		if action.NewPriority == nil || strings.TrimSpace(*action.NewPriority) == "" {
			return "변경할 우선순위를 찾지 못했습니다. 낮음/중간/높음/긴급 중 하나로 말씀해 주세요.", nil
		}
	}
	if action.Kind == planner.ActionUpdateDue {
		if _, ok := s.executor.ResolveDue(action.Due, action.Hint, message); !ok {
			return "새 마감일을 찾지 못했습니다. 예: '보고서 마감을 내일 오후 5시로 변경'", nil
		}
	}

	if action.Kind == planner.ActionCompleteTask || action.Kind == planner.ActionUpdatePriority || action.Kind == planner.ActionUpdateDue {
		statuses := activeTaskStatuses
		if action.Kind == planner.ActionCompleteTask {
			statuses = completableTaskStatuses
		}
		keyword := s.executor.ResolveTaskKeyword(ctx, action, executor.DispatchOptions{Message: message, History: history}, statuses)
		if keyword == "" {
			return "대상 작업이 불명확합니다. 할일 제목을 조금 더 구체적으로 말씀해 주세요.", nil
		}
		task, err := s.executor.FindTaskByKeyword(ctx, keyword, statuses)
		if err != nil {
			return "", fmt.Errorf("needs clarification: find task: %w", err)
		}
		if task == nil {
			return fmt.Sprintf("'%s' 작업을 찾지 못했습니다. 제목을 다시 확인해 주세요.", keyword), nil
		}
	}

	return "", nil
}

func containsDayToken(message string) bool {
	lowered := strings.ToLower(message)
	for _, tok := range dayTokens {
		if strings.Contains(message, tok) || strings.Contains(lowered, tok) {
			return true
		}
	}
	return false
}

// clarificationQuestion picks the reply for a turn that produced no
// dispatchable action at all: an LLM-authored note if one exists, else a
// keyword-routed Korean example prompt.
func (s *chatService) clarificationQuestion(message, planNote string) string {
	if strings.TrimSpace(planNote) != "" {
		return planNote
	}
	switch {
	case strings.Contains(message, "재배치"):
		return "몇 시 이후 일정을 재배치할지 알려주세요. 예: '오후 6시 이후 일정 재배치'"
	case strings.Contains(message, "마감"):
		return "어떤 작업의 마감일을 언제로 바꿀지 알려주세요. 예: '보고서 마감을 내일 오후 5시로 변경'"
	case strings.Contains(message, "우선순위"):
		return "어떤 작업의 우선순위를 무엇으로 바꿀지 알려주세요. 예: '보고서 작업 우선순위 높음으로 변경'"
	case strings.Contains(message, "삭제"):
		return "어떤 항목을 삭제할지 더 구체적으로 말씀해 주세요."
	default:
		return "요청하신 내용을 이해하지 못했습니다. 조금 더 구체적으로 말씀해 주세요."
	}
}

func (s *chatService) queueChatClarification(ctx context.Context, question, originalMessage string) (*domain.ApprovalRequest, error) {
	req := &domain.ApprovalRequest{
		ID:        uuid.NewString(),
		Type:      domain.ApprovalChatClarification,
		Status:    domain.ApprovalPending,
		Payload:   domain.ApprovalPayload{Question: question, OriginalMessage: originalMessage},
		Reason:    "assistant_needs_clarification",
		CreatedAt: s.nowTime(),
	}
	if err := s.approvals.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("queue chat clarification: %w", err)
	}
	return req, nil
}

// resolvePendingApprovalByChat resolves a pending approval the user just
// affirmed or rejected in chat, replaying/applying the underlying effect on
// approval per the approval's type.
func (s *chatService) resolvePendingApprovalByChat(ctx context.Context, pending *domain.ApprovalRequest, affirmative bool, message string, history []planner.ChatTurn) (*ChatResponse, error) {
	if !affirmative {
		if _, err := approval.Reject(ctx, s.approvals, pending.ID, "resolved_via_chat"); err != nil {
			return nil, fmt.Errorf("resolve pending approval: reject: %w", err)
		}
		return &ChatResponse{Reply: "요청한 작업을 취소했습니다.", Refresh: []string{"approvals"}}, nil
	}

	switch pending.Type {
	case domain.ApprovalChatPendingAction:
		return s.resolveChatPendingAction(ctx, pending, message, history)
	case domain.ApprovalActionItem:
		return s.resolveActionItemApproval(ctx, pending)
	case domain.ApprovalReschedule:
		return s.resolveRescheduleApproval(ctx, pending)
	default:
		if _, err := approval.Approve(ctx, s.approvals, pending.ID, "resolved_via_chat"); err != nil {
			return nil, fmt.Errorf("resolve pending approval: approve: %w", err)
		}
		return &ChatResponse{Reply: "승인되었습니다.", Refresh: []string{"approvals"}}, nil
	}
}

func (s *chatService) resolveChatPendingAction(ctx context.Context, pending *domain.ApprovalRequest, message string, history []planner.ChatTurn) (*ChatResponse, error) {
	if pending.Payload.Action == nil {
		if _, err := approval.Approve(ctx, s.approvals, pending.ID, "resolved_via_chat"); err != nil {
			return nil, fmt.Errorf("resolve chat pending action: approve: %w", err)
		}
		return &ChatResponse{Reply: "승인되었습니다.", Refresh: []string{"approvals"}}, nil
	}

	action := actionFromPayload(*pending.Payload.Action)
	sourceMessage := pending.Payload.SourceMessage
	if sourceMessage == "" {
		sourceMessage = message
	}
	result, err := s.executor.Dispatch(ctx, action, executor.DispatchOptions{
		RequireConfirmation: false,
		Message:             sourceMessage,
		History:             history,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve chat pending action: dispatch: %w", err)
	}
	if _, err := approval.Approve(ctx, s.approvals, pending.ID, "resolved_via_chat"); err != nil {
		return nil, fmt.Errorf("resolve chat pending action: approve: %w", err)
	}

	refresh := map[string]bool{"approvals": true}
	for _, r := range result.Refresh {
		refresh[r] = true
	}
	return &ChatResponse{
		Reply:   "승인되었습니다.\n" + result.Reply,
		Actions: result.Events,
		Refresh: sortedKeys(refresh),
	}, nil
}

func (s *chatService) resolveActionItemApproval(ctx context.Context, pending *domain.ApprovalRequest) (*ChatResponse, error) {
	candidate, err := s.candidates.Get(ctx, pending.Payload.CandidateID)
	if err != nil || candidate == nil || candidate.Status != domain.CandidatePending {
		if _, aerr := approval.Approve(ctx, s.approvals, pending.ID, "resolved_via_chat"); aerr != nil {
			return nil, fmt.Errorf("resolve action item approval: approve: %w", aerr)
		}
		return &ChatResponse{Reply: "승인할 액션아이템을 찾지 못했습니다.", Refresh: []string{"approvals"}}, nil
	}

	_, blocks, err := s.executor.ApproveCandidate(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("resolve action item approval: approve candidate: %w", err)
	}
	synced := s.executor.MirrorBlocks(ctx, blocks)
	if _, err := approval.Approve(ctx, s.approvals, pending.ID, "resolved_via_chat"); err != nil {
		return nil, fmt.Errorf("resolve action item approval: approve: %w", err)
	}

	reply := fmt.Sprintf("승인되었습니다. 액션아이템을 할일로 반영했습니다: %s", candidate.Title)
	if synced > 0 {
		reply += fmt.Sprintf(" (Outlook 동기화 %d건)", synced)
	}
	return &ChatResponse{Reply: reply, Refresh: []string{"approvals", "tasks", "calendar"}}, nil
}

func (s *chatService) resolveRescheduleApproval(ctx context.Context, pending *domain.ApprovalRequest) (*ChatResponse, error) {
	proposal, err := s.proposals.Get(ctx, pending.Payload.ProposalID)
	if err != nil || proposal == nil || proposal.Status != domain.ProposalDraft {
		if _, aerr := approval.Approve(ctx, s.approvals, pending.ID, "resolved_via_chat"); aerr != nil {
			return nil, fmt.Errorf("resolve reschedule approval: approve: %w", aerr)
		}
		return &ChatResponse{Reply: "승인할 재배치 제안을 찾지 못했습니다.", Refresh: []string{"approvals"}}, nil
	}

	created, synced, err := s.executor.ApplyApprovedProposal(ctx, proposal)
	if err != nil {
		return nil, fmt.Errorf("resolve reschedule approval: apply: %w", err)
	}
	if _, err := approval.Approve(ctx, s.approvals, pending.ID, "resolved_via_chat"); err != nil {
		return nil, fmt.Errorf("resolve reschedule approval: approve: %w", err)
	}

	reply := fmt.Sprintf("승인되었습니다. 새 일정 %d건 생성", len(created))
	if synced > 0 {
		reply += fmt.Sprintf(", Outlook 동기화 %d건", synced)
	}
	return &ChatResponse{Reply: reply, Refresh: []string{"approvals", "calendar"}}, nil
}

// actionFromPayload reconstructs a planner.Action from a stored
// PlannedActionPayload for replay. Only the two kinds queueConfirmation ever
// stores are handled: reschedule_after_hour (cutoff_hour) and
// delete_duplicate_tasks (no fields). cutoff_hour round-trips through JSON
// storage as float64; a direct in-memory int is also accepted defensively.
func actionFromPayload(p domain.PlannedActionPayload) planner.Action {
	action := planner.Action{Kind: planner.ActionKind(p.Kind)}
	switch v := p.Fields["cutoff_hour"].(type) {
	case float64:
		h := int(v)
		action.CutoffHour = &h
	case int:
		h := v
		action.CutoffHour = &h
	}
	return action
}
