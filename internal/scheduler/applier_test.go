package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/domain"
)

type fakeApplierStore struct {
	live    []domain.CalendarBlock
	created []domain.CalendarBlock
	applied []string
}

func (f *fakeApplierStore) BlocksIntersectingHorizon(ctx context.Context, start, end time.Time) ([]domain.CalendarBlock, error) {
	return f.live, nil
}

func (f *fakeApplierStore) CreateBlock(ctx context.Context, block domain.CalendarBlock) error {
	f.created = append(f.created, block)
	return nil
}

func (f *fakeApplierStore) MarkApplied(ctx context.Context, proposalID string) error {
	f.applied = append(f.applied, proposalID)
	return nil
}

func TestApplyProposalSkipsConflictingChangeCommitsRest(t *testing.T) {
	store := &fakeApplierStore{
		live: []domain.CalendarBlock{
			{ID: "existing", Start: at(10, 0), End: at(11, 0), Source: domain.BlockSourceAawo},
		},
	}
	proposal := &domain.SchedulingProposal{
		ID:     "p1",
		Status: domain.ProposalDraft,
		Changes: []domain.SchedulingChange{
			{Kind: domain.ChangeCreateBlock, Title: "conflict", Start: at(10, 30), End: at(11, 30)},
			{Kind: domain.ChangeCreateBlock, Title: "clear", Start: at(13, 0), End: at(14, 0)},
		},
	}

	created, updated, err := ApplyProposal(context.Background(), store, proposal)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "clear", created[0].Title)
	assert.Empty(t, updated)
	assert.Equal(t, domain.ProposalApplied, proposal.Status)
	assert.Equal(t, []string{"p1"}, store.applied)
}

func TestApplyProposalRejectsNonDraft(t *testing.T) {
	store := &fakeApplierStore{}
	proposal := &domain.SchedulingProposal{ID: "p2", Status: domain.ProposalApplied}

	_, _, err := ApplyProposal(context.Background(), store, proposal)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)
}
