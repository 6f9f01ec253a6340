package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/domain"
)

type memStore struct {
	byID map[string]*domain.ApprovalRequest
}

func newMemStore(reqs ...*domain.ApprovalRequest) *memStore {
	m := &memStore{byID: map[string]*domain.ApprovalRequest{}}
	for _, r := range reqs {
		m.byID[r.ID] = r
	}
	return m
}

func (m *memStore) Get(ctx context.Context, id string) (*domain.ApprovalRequest, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, context.Canceled
	}
	return r, nil
}

func (m *memStore) Update(ctx context.Context, req *domain.ApprovalRequest) error {
	m.byID[req.ID] = req
	return nil
}

func (m *memStore) LatestPending(ctx context.Context, t domain.ApprovalType) (*domain.ApprovalRequest, error) {
	var latest *domain.ApprovalRequest
	for _, r := range m.byID {
		if r.Type != t || !r.Pending() {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest, nil
}

func TestApproveTransitionsPendingToApproved(t *testing.T) {
	req := &domain.ApprovalRequest{ID: "a1", Type: domain.ApprovalActionItem, Status: domain.ApprovalPending}
	store := newMemStore(req)

	resolved, err := Approve(context.Background(), store, "a1", "looks good")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)
}

func TestResolveNonPendingFails(t *testing.T) {
	now := time.Now().UTC()
	req := &domain.ApprovalRequest{ID: "a1", Status: domain.ApprovalApproved, ResolvedAt: &now}
	store := newMemStore(req)

	_, err := Approve(context.Background(), store, "a1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestResolveLatestByChatPicksMostRecent(t *testing.T) {
	older := &domain.ApprovalRequest{ID: "old", Type: domain.ApprovalChatPendingAction, Status: domain.ApprovalPending, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &domain.ApprovalRequest{ID: "new", Type: domain.ApprovalChatPendingAction, Status: domain.ApprovalPending, CreatedAt: time.Now()}
	store := newMemStore(older, newer)

	resolved, err := ResolveLatestByChat(context.Background(), store, domain.ApprovalChatPendingAction, true, "user said yes")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, "new", resolved.ID)
	assert.Equal(t, domain.ApprovalApproved, resolved.Status)
}

func TestSupersedeClarification(t *testing.T) {
	req := &domain.ApprovalRequest{ID: "c1", Type: domain.ApprovalChatClarification, Status: domain.ApprovalPending, CreatedAt: time.Now()}
	store := newMemStore(req)

	resolved, err := SupersedeClarification(context.Background(), store)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, domain.ApprovalRejected, resolved.Status)
	assert.Equal(t, "clarification_superseded_by_new_command", resolved.Reason)
}

func TestSupersedeClarificationNoneNil(t *testing.T) {
	store := newMemStore()
	resolved, err := SupersedeClarification(context.Background(), store)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}
