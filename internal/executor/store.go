// Package executor turns a single planner.Action into committed state
// changes: task/calendar writes, scheduling-proposal generation, and the
// approval gating those writes may require under the active autonomy level.
package executor

import (
	"context"
	"time"

	"github.com/hawlion/ai-planner/internal/calendarmirror"
	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/scheduler"
)

// TaskStore is the task-repository slice the executor needs. Candidate
// listing is pre-filtered by status so FindTask never sees terminal tasks
// it shouldn't touch.
type TaskStore interface {
	ListByStatus(ctx context.Context, statuses []domain.TaskStatus) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	RecentForContext(ctx context.Context, limit int) ([]domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// BlockStore is the calendar-block slice the executor needs for
// reschedule_after_hour and proposal application; it embeds
// scheduler.ApplierStore so ApplyProposal can run against the same store.
type BlockStore interface {
	scheduler.ApplierStore
	ActiveNonExternalAfter(ctx context.Context, after time.Time) ([]domain.CalendarBlock, error)
	UpdateBlock(ctx context.Context, block domain.CalendarBlock) error
	Delete(ctx context.Context, blockID string) error
	// ReassignTask repoints every block owned by fromTaskID onto toTaskID
	// (bumping each block's version), used when delete_duplicate_tasks folds
	// a duplicate's calendar history into the surviving task.
	ReassignTask(ctx context.Context, fromTaskID, toTaskID string) (relinked int, err error)
	// DetachTask clears task_id (to NULL) on every block owned by taskID,
	// used by delete_task to preserve calendar history as unlinked blocks.
	DetachTask(ctx context.Context, taskID string) (detached int, err error)
}

// ProfileStore resolves the single active scheduling profile.
type ProfileStore interface {
	Get(ctx context.Context) (*domain.Profile, error)
}

// ProposalStore persists and applies scheduling proposals.
type ProposalStore interface {
	Create(ctx context.Context, proposal *domain.SchedulingProposal) error
	Get(ctx context.Context, id string) (*domain.SchedulingProposal, error)
}

// ApprovalStore queues pending approvals for confirmation-gated actions.
type ApprovalStore interface {
	Create(ctx context.Context, req *domain.ApprovalRequest) error
}

// MeetingStore persists chat-registered meeting notes.
type MeetingStore interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
}

// CandidateStore persists action-item candidates surfaced from a meeting and
// links an approved candidate to the task it became.
type CandidateStore interface {
	Create(ctx context.Context, candidate *domain.ActionItemCandidate) error
	LinkTask(ctx context.Context, candidateID, taskID string) error
}

// AuditStore records one entry per dispatched action.
type AuditStore interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
}

// Mirror is the slice of calendarmirror.Mirror the executor drives after a
// proposal is applied or blocks are removed.
type Mirror interface {
	IsConnected(ctx context.Context) bool
	Mirror(ctx context.Context, blocks []domain.CalendarBlock) (calendarmirror.MirrorResult, error)
	Delete(ctx context.Context, blocks []domain.CalendarBlock) (deleted, failed []string, err error)
}
