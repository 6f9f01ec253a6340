package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/executor"
)

type fakeChatTaskRepo struct {
	tasks map[string]*domain.Task
}

func newFakeChatTaskRepo(tasks ...*domain.Task) *fakeChatTaskRepo {
	r := &fakeChatTaskRepo{tasks: map[string]*domain.Task{}}
	for _, t := range tasks {
		r.tasks[t.ID] = t
	}
	return r
}

func (r *fakeChatTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	r.tasks[t.ID] = t
	return nil
}
func (r *fakeChatTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	r.tasks[t.ID] = t
	return nil
}
func (r *fakeChatTaskRepo) Get(ctx context.Context, id string) (*domain.Task, error) {
	return r.tasks[id], nil
}
func (r *fakeChatTaskRepo) ListByStatus(ctx context.Context, statuses []domain.TaskStatus) ([]domain.Task, error) {
	want := map[domain.TaskStatus]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	var out []domain.Task
	for _, t := range r.tasks {
		if want[t.Status] {
			out = append(out, *t)
		}
	}
	return out, nil
}
func (r *fakeChatTaskRepo) RecentForContext(ctx context.Context, limit int) ([]domain.Task, error) {
	return nil, nil
}
func (r *fakeChatTaskRepo) Delete(ctx context.Context, id string) error {
	delete(r.tasks, id)
	return nil
}

type fakeChatBlockRepo struct {
	blocks map[string]*domain.CalendarBlock
}

func newFakeChatBlockRepo() *fakeChatBlockRepo {
	return &fakeChatBlockRepo{blocks: map[string]*domain.CalendarBlock{}}
}

func (r *fakeChatBlockRepo) CreateBlock(ctx context.Context, b domain.CalendarBlock) error {
	r.blocks[b.ID] = &b
	return nil
}
func (r *fakeChatBlockRepo) UpdateBlock(ctx context.Context, b domain.CalendarBlock) error {
	r.blocks[b.ID] = &b
	return nil
}
func (r *fakeChatBlockRepo) BlocksIntersectingHorizon(ctx context.Context, start, end time.Time) ([]domain.CalendarBlock, error) {
	var out []domain.CalendarBlock
	for _, b := range r.blocks {
		if b.Start.Before(end) && start.Before(b.End) {
			out = append(out, *b)
		}
	}
	return out, nil
}
func (r *fakeChatBlockRepo) ActiveNonExternalAfter(ctx context.Context, after time.Time) ([]domain.CalendarBlock, error) {
	var out []domain.CalendarBlock
	for _, b := range r.blocks {
		if b.Source != domain.BlockSourceExternal && b.End.After(after) {
			out = append(out, *b)
		}
	}
	return out, nil
}
func (r *fakeChatBlockRepo) MarkApplied(ctx context.Context, proposalID string) error { return nil }
func (r *fakeChatBlockRepo) Delete(ctx context.Context, blockID string) error {
	delete(r.blocks, blockID)
	return nil
}
func (r *fakeChatBlockRepo) ReassignTask(ctx context.Context, fromTaskID, toTaskID string) (int, error) {
	return 0, nil
}
func (r *fakeChatBlockRepo) DetachTask(ctx context.Context, taskID string) (int, error) {
	return 0, nil
}

type fakeChatApprovalRepo struct {
	byID map[string]*domain.ApprovalRequest
}

func newFakeChatApprovalRepo() *fakeChatApprovalRepo {
	return &fakeChatApprovalRepo{byID: map[string]*domain.ApprovalRequest{}}
}

func (r *fakeChatApprovalRepo) Create(ctx context.Context, req *domain.ApprovalRequest) error {
	r.byID[req.ID] = req
	return nil
}
func (r *fakeChatApprovalRepo) Get(ctx context.Context, id string) (*domain.ApprovalRequest, error) {
	return r.byID[id], nil
}
func (r *fakeChatApprovalRepo) ListPending(ctx context.Context) ([]domain.ApprovalRequest, error) {
	var out []domain.ApprovalRequest
	for _, req := range r.byID {
		if req.Pending() {
			out = append(out, *req)
		}
	}
	return out, nil
}
func (r *fakeChatApprovalRepo) LatestPending(ctx context.Context, t domain.ApprovalType) (*domain.ApprovalRequest, error) {
	var latest *domain.ApprovalRequest
	for _, req := range r.byID {
		if req.Type != t || !req.Pending() {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	return latest, nil
}
func (r *fakeChatApprovalRepo) Resolve(ctx context.Context, id string, status domain.ApprovalStatus, resolvedAt time.Time) error {
	req, ok := r.byID[id]
	if !ok {
		return nil
	}
	req.Status = status
	req.ResolvedAt = &resolvedAt
	return nil
}
func (r *fakeChatApprovalRepo) Update(ctx context.Context, req *domain.ApprovalRequest) error {
	r.byID[req.ID] = req
	return nil
}

type fakeChatCandidateRepo struct {
	byID map[string]*domain.ActionItemCandidate
}

func newFakeChatCandidateRepo(candidates ...*domain.ActionItemCandidate) *fakeChatCandidateRepo {
	r := &fakeChatCandidateRepo{byID: map[string]*domain.ActionItemCandidate{}}
	for _, c := range candidates {
		r.byID[c.ID] = c
	}
	return r
}

func (r *fakeChatCandidateRepo) Create(ctx context.Context, c *domain.ActionItemCandidate) error {
	r.byID[c.ID] = c
	return nil
}
func (r *fakeChatCandidateRepo) Get(ctx context.Context, id string) (*domain.ActionItemCandidate, error) {
	return r.byID[id], nil
}
func (r *fakeChatCandidateRepo) ListByMeeting(ctx context.Context, meetingID string) ([]domain.ActionItemCandidate, error) {
	return nil, nil
}
func (r *fakeChatCandidateRepo) ListPending(ctx context.Context) ([]domain.ActionItemCandidate, error) {
	return nil, nil
}
func (r *fakeChatCandidateRepo) UpdateStatus(ctx context.Context, id string, status domain.CandidateStatus) error {
	if c, ok := r.byID[id]; ok {
		c.Status = status
	}
	return nil
}
func (r *fakeChatCandidateRepo) LinkTask(ctx context.Context, candidateID, taskID string) error {
	if c, ok := r.byID[candidateID]; ok {
		c.LinkedTaskID = &taskID
	}
	return nil
}

type fakeChatProposalRepo struct {
	byID map[string]*domain.SchedulingProposal
}

func newFakeChatProposalRepo(proposals ...*domain.SchedulingProposal) *fakeChatProposalRepo {
	r := &fakeChatProposalRepo{byID: map[string]*domain.SchedulingProposal{}}
	for _, p := range proposals {
		r.byID[p.ID] = p
	}
	return r
}

func (r *fakeChatProposalRepo) Create(ctx context.Context, p *domain.SchedulingProposal) error {
	r.byID[p.ID] = p
	return nil
}
func (r *fakeChatProposalRepo) Get(ctx context.Context, id string) (*domain.SchedulingProposal, error) {
	return r.byID[id], nil
}
func (r *fakeChatProposalRepo) MarkApplied(ctx context.Context, proposalID string) error {
	return nil
}

type fakeChatProfileRepo struct{ profile *domain.Profile }

func (r *fakeChatProfileRepo) Get(ctx context.Context) (*domain.Profile, error) {
	return r.profile, nil
}
func (r *fakeChatProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	r.profile = p
	return nil
}

type fakeChatMeetingStore struct{ meetings []*domain.Meeting }

func (s *fakeChatMeetingStore) Create(ctx context.Context, m *domain.Meeting) error {
	s.meetings = append(s.meetings, m)
	return nil
}

// chatServiceHarness wires a chatService over in-memory fakes, reused across
// this file's scenarios.
type chatServiceHarness struct {
	svc        *chatService
	tasks      *fakeChatTaskRepo
	blocks     *fakeChatBlockRepo
	approvals  *fakeChatApprovalRepo
	candidates *fakeChatCandidateRepo
	proposals  *fakeChatProposalRepo
	now        time.Time
}

func newChatServiceHarness() *chatServiceHarness {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	tasks := newFakeChatTaskRepo()
	blocks := newFakeChatBlockRepo()
	approvals := newFakeChatApprovalRepo()
	candidates := newFakeChatCandidateRepo()
	proposals := newFakeChatProposalRepo()
	profiles := &fakeChatProfileRepo{profile: &domain.Profile{Timezone: "UTC", Autonomy: domain.AutonomyL2}}

	exec := &executor.Executor{
		Tasks:      tasks,
		Blocks:     blocks,
		Proposals:  proposals,
		Approvals:  approvals,
		Meetings:   &fakeChatMeetingStore{},
		Candidates: candidates,
		Profiles:   profiles,
		Now:        func() time.Time { return now },
	}

	svc := NewChatService(tasks, blocks, approvals, candidates, proposals, profiles, exec, nil, nil).(*chatService)
	svc.Now = func() time.Time { return now }

	return &chatServiceHarness{
		svc: svc, tasks: tasks, blocks: blocks, approvals: approvals, candidates: candidates, proposals: proposals, now: now,
	}
}

func TestChatService_CreateTask_DispatchesDirectly(t *testing.T) {
	h := newChatServiceHarness()
	resp, err := h.svc.Chat(context.Background(), ChatRequest{Message: "보고서 작업 추가해줘"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "할일을 생성했습니다")
	assert.Contains(t, resp.Refresh, "tasks")
	assert.Len(t, h.tasks.tasks, 1)
}

func TestChatService_CompleteTask_NoMatch_QueuesClarification(t *testing.T) {
	h := newChatServiceHarness()
	resp, err := h.svc.Chat(context.Background(), ChatRequest{Message: "보고서 작업 완료했어"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "찾지 못했습니다")

	pending, err := h.approvals.LatestPending(context.Background(), domain.ApprovalChatClarification)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "assistant_needs_clarification", pending.Reason)
}

func TestChatService_PendingClarification_Negative_Cancels(t *testing.T) {
	h := newChatServiceHarness()
	ctx := context.Background()
	clarification := &domain.ApprovalRequest{
		ID:        "clar-1",
		Type:      domain.ApprovalChatClarification,
		Status:    domain.ApprovalPending,
		Payload:   domain.ApprovalPayload{Question: "어떤 작업인가요?", OriginalMessage: "그거 완료해줘"},
		CreatedAt: h.now,
	}
	require.NoError(t, h.approvals.Create(ctx, clarification))

	resp, err := h.svc.Chat(ctx, ChatRequest{Message: "아니 취소"})
	require.NoError(t, err)
	assert.Equal(t, "요청을 취소했습니다. 새로 요청해 주세요.", resp.Reply)

	resolved, err := h.approvals.Get(ctx, "clar-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalRejected, resolved.Status)
}

func TestChatService_PendingChatAction_Affirmative_ReplaysAction(t *testing.T) {
	h := newChatServiceHarness()
	ctx := context.Background()
	payload := domain.PlannedActionPayload{Kind: "delete_duplicate_tasks", Fields: map[string]any{}}
	pending := &domain.ApprovalRequest{
		ID:        "pending-1",
		Type:      domain.ApprovalChatPendingAction,
		Status:    domain.ApprovalPending,
		Payload:   domain.ApprovalPayload{Action: &payload, SourceMessage: "중복 태스크 정리해줘"},
		CreatedAt: h.now,
	}
	require.NoError(t, h.approvals.Create(ctx, pending))

	resp, err := h.svc.Chat(ctx, ChatRequest{Message: "승인"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "승인되었습니다.")
	assert.Contains(t, resp.Reply, "중복으로 판단되는 태스크가 없습니다.")

	resolved, err := h.approvals.Get(ctx, "pending-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, resolved.Status)
}

func TestChatService_PendingActionItem_Affirmative_ApprovesCandidate(t *testing.T) {
	h := newChatServiceHarness()
	ctx := context.Background()

	candidate := &domain.ActionItemCandidate{
		ID:        "cand-1",
		MeetingID: "meeting-1",
		Title:     "발표자료 준비",
		EffortMin: 60,
		Status:    domain.CandidatePending,
	}
	require.NoError(t, h.candidates.Create(ctx, candidate))

	pending := &domain.ApprovalRequest{
		ID:        "pending-2",
		Type:      domain.ApprovalActionItem,
		Status:    domain.ApprovalPending,
		Payload:   domain.ApprovalPayload{CandidateID: "cand-1"},
		CreatedAt: h.now,
	}
	require.NoError(t, h.approvals.Create(ctx, pending))

	resp, err := h.svc.Chat(ctx, ChatRequest{Message: "승인"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "액션아이템을 할일로 반영했습니다: 발표자료 준비")

	assert.Equal(t, domain.CandidateApproved, candidate.Status)
	require.NotNil(t, candidate.LinkedTaskID)
	assert.Len(t, h.tasks.tasks, 1)
}
