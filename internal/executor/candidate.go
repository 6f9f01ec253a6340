package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/freeslot"
)

// ApproveCandidate turns a pending action-item candidate into a committed
// task, and — when the Blocks store is wired — a linked task_block
// first-fit into the next open 30-minute-aligned slot within the next 48
// hours. Returns the created blocks (empty when no slot was found or Blocks
// isn't configured) so callers can mirror them onward.
func (e *Executor) ApproveCandidate(ctx context.Context, candidate *domain.ActionItemCandidate) (*domain.Task, []domain.CalendarBlock, error) {
	now := e.now()
	task := &domain.Task{
		ID:        uuid.NewString(),
		Title:     candidate.Title,
		Due:       candidate.Due,
		EffortMin: domain.ClampEffort(candidate.EffortMin),
		Priority:  domain.PriorityMedium,
		Status:    domain.TaskTodo,
		Origin:    domain.OriginMeeting,
		SourceRef: &candidate.MeetingID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Tasks.Create(ctx, task); err != nil {
		return nil, nil, fmt.Errorf("approve candidate: create task: %w", err)
	}

	var created []domain.CalendarBlock
	if e.Blocks != nil {
		if block, ok := e.nextTaskBlock(ctx, task, now); ok {
			if err := e.Blocks.CreateBlock(ctx, block); err != nil {
				return nil, nil, fmt.Errorf("approve candidate: create block: %w", err)
			}
			created = append(created, block)
		}
	}

	candidate.Status = domain.CandidateApproved
	candidate.LinkedTaskID = &task.ID
	if err := e.Candidates.LinkTask(ctx, candidate.ID, task.ID); err != nil {
		return nil, nil, fmt.Errorf("approve candidate: link task: %w", err)
	}

	return task, created, nil
}

func (e *Executor) nextTaskBlock(ctx context.Context, task *domain.Task, now time.Time) (domain.CalendarBlock, bool) {
	active, err := e.Blocks.ActiveNonExternalAfter(ctx, now)
	if err != nil {
		return domain.CalendarBlock{}, false
	}
	slot, ok := freeslot.FindNextSlot(now, task.EffortMin, active)
	if !ok {
		return domain.CalendarBlock{}, false
	}
	return domain.CalendarBlock{
		ID:     uuid.NewString(),
		Type:   domain.BlockTaskBlock,
		Title:  task.Title + " 실행",
		Start:  slot.Start,
		End:    slot.End,
		TaskID: &task.ID,
		Source: domain.BlockSourceAawo,
	}, true
}
