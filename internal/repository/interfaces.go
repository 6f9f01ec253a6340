package repository

import (
	"context"
	"time"

	"github.com/hawlion/ai-planner/internal/domain"
)

// TaskRepo persists Task entities; satisfies executor.TaskStore.
type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, id string) (*domain.Task, error)
	ListByStatus(ctx context.Context, statuses []domain.TaskStatus) ([]domain.Task, error)
	RecentForContext(ctx context.Context, limit int) ([]domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// CalendarBlockRepo persists CalendarBlock entities; satisfies both
// scheduler.ApplierStore and executor.BlockStore.
type CalendarBlockRepo interface {
	CreateBlock(ctx context.Context, block domain.CalendarBlock) error
	UpdateBlock(ctx context.Context, block domain.CalendarBlock) error
	BlocksIntersectingHorizon(ctx context.Context, start, end time.Time) ([]domain.CalendarBlock, error)
	ActiveNonExternalAfter(ctx context.Context, after time.Time) ([]domain.CalendarBlock, error)
	MarkApplied(ctx context.Context, proposalID string) error
	Delete(ctx context.Context, blockID string) error
	ReassignTask(ctx context.Context, fromTaskID, toTaskID string) (relinked int, err error)
	DetachTask(ctx context.Context, taskID string) (detached int, err error)
}

// MeetingRepo persists Meeting entities.
type MeetingRepo interface {
	Create(ctx context.Context, m *domain.Meeting) error
	Get(ctx context.Context, id string) (*domain.Meeting, error)
	UpdateExtractionStatus(ctx context.Context, id string, status domain.MeetingExtractionStatus) error
}

// ActionItemCandidateRepo persists ActionItemCandidate entities.
type ActionItemCandidateRepo interface {
	Create(ctx context.Context, c *domain.ActionItemCandidate) error
	Get(ctx context.Context, id string) (*domain.ActionItemCandidate, error)
	ListByMeeting(ctx context.Context, meetingID string) ([]domain.ActionItemCandidate, error)
	ListPending(ctx context.Context) ([]domain.ActionItemCandidate, error)
	UpdateStatus(ctx context.Context, id string, status domain.CandidateStatus) error
	LinkTask(ctx context.Context, candidateID, taskID string) error
}

// ApprovalRequestRepo persists ApprovalRequest entities. Get/Update/
// LatestPending also satisfy approval.Store directly.
type ApprovalRequestRepo interface {
	Create(ctx context.Context, r *domain.ApprovalRequest) error
	Get(ctx context.Context, id string) (*domain.ApprovalRequest, error)
	ListPending(ctx context.Context) ([]domain.ApprovalRequest, error)
	LatestPending(ctx context.Context, t domain.ApprovalType) (*domain.ApprovalRequest, error)
	Resolve(ctx context.Context, id string, status domain.ApprovalStatus, resolvedAt time.Time) error
	Update(ctx context.Context, r *domain.ApprovalRequest) error
}

// SchedulingProposalRepo persists SchedulingProposal entities and satisfies
// executor.ProposalStore.
type SchedulingProposalRepo interface {
	Create(ctx context.Context, p *domain.SchedulingProposal) error
	Get(ctx context.Context, id string) (*domain.SchedulingProposal, error)
	MarkApplied(ctx context.Context, proposalID string) error
}

// SyncStatusRepo persists the singleton SyncStatus row.
type SyncStatusRepo interface {
	Get(ctx context.Context) (*domain.SyncStatus, error)
	Upsert(ctx context.Context, s *domain.SyncStatus) error
}

// ProfileRepo persists the singleton Profile row.
type ProfileRepo interface {
	Get(ctx context.Context) (*domain.Profile, error)
	Upsert(ctx context.Context, p *domain.Profile) error
}

// AuditRepo persists append-only AuditEntry rows.
type AuditRepo interface {
	Append(ctx context.Context, e domain.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
