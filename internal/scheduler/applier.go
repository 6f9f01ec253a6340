package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hawlion/ai-planner/internal/domain"
)

// ErrInvalidState is returned when ApplyProposal is called on a non-draft
// proposal.
var ErrInvalidState = errors.New("proposal is not in draft state")

// ApplierStore is the minimal persistence surface ProposalApplier needs:
// read the live calendar for conflict rechecks, persist newly committed
// blocks, and flip the proposal's stored status. Implemented by
// internal/repository against the same transaction the caller is running.
type ApplierStore interface {
	BlocksIntersectingHorizon(ctx context.Context, start, end time.Time) ([]domain.CalendarBlock, error)
	CreateBlock(ctx context.Context, block domain.CalendarBlock) error
	MarkApplied(ctx context.Context, proposalID string) error
}

// ApplyProposal re-checks each create_block change of a draft proposal
// against the live calendar (a slot may have been taken since proposal
// generation), skips conflicting changes silently, and commits the rest as
// new aawo-sourced blocks. Returns (created, updated) where updated is
// reserved for future move_block changes and is currently always empty.
func ApplyProposal(ctx context.Context, store ApplierStore, proposal *domain.SchedulingProposal) (created []domain.CalendarBlock, updated []domain.CalendarBlock, err error) {
	if proposal.Status != domain.ProposalDraft {
		return nil, nil, fmt.Errorf("apply proposal %s: %w", proposal.ID, ErrInvalidState)
	}

	live, err := store.BlocksIntersectingHorizon(ctx, proposal.HorizonStart, proposal.HorizonEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("apply proposal %s: load live blocks: %w", proposal.ID, err)
	}

	for _, change := range proposal.Changes {
		if change.Kind != domain.ChangeCreateBlock {
			continue
		}
		candidate := domain.CalendarBlock{
			ID:     uuid.NewString(),
			Type:   change.BlockType,
			Title:  change.Title,
			Start:  change.Start,
			End:    change.End,
			TaskID: change.TaskID,
			Source: domain.BlockSourceAawo,
		}
		if conflicts(candidate, live) {
			continue
		}
		if err := store.CreateBlock(ctx, candidate); err != nil {
			return nil, nil, fmt.Errorf("apply proposal %s: create block: %w", proposal.ID, err)
		}
		created = append(created, candidate)
		live = append(live, candidate)
	}

	if err := store.MarkApplied(ctx, proposal.ID); err != nil {
		return created, updated, fmt.Errorf("apply proposal %s: mark applied: %w", proposal.ID, err)
	}
	proposal.Status = domain.ProposalApplied
	return created, updated, nil
}

func conflicts(candidate domain.CalendarBlock, live []domain.CalendarBlock) bool {
	for _, b := range live {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
