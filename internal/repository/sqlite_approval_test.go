package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/approval"
	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/testutil"
)

var _ approval.Store = (*SQLiteApprovalRequestRepo)(nil)

func TestApprovalRequestRepo_CreateAndLatestPendingByType(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteApprovalRequestRepo(database)
	ctx := context.Background()

	now := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	older := &domain.ApprovalRequest{
		ID: "a1", Type: domain.ApprovalChatPendingAction, Status: domain.ApprovalPending,
		Payload: domain.ApprovalPayload{SourceMessage: "첫 번째"}, CreatedAt: now,
	}
	newer := &domain.ApprovalRequest{
		ID: "a2", Type: domain.ApprovalChatPendingAction, Status: domain.ApprovalPending,
		Payload: domain.ApprovalPayload{SourceMessage: "두 번째"}, CreatedAt: now.Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	latest, err := repo.LatestPending(ctx, domain.ApprovalChatPendingAction)
	require.NoError(t, err)
	assert.Equal(t, "a2", latest.ID)
	assert.Equal(t, "두 번째", latest.Payload.SourceMessage)
}

func TestApprovalRequestRepo_Resolve_RemovesFromPending(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteApprovalRequestRepo(database)
	ctx := context.Background()

	now := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	req := &domain.ApprovalRequest{ID: "a1", Type: domain.ApprovalReschedule, Status: domain.ApprovalPending, CreatedAt: now}
	require.NoError(t, repo.Create(ctx, req))

	require.NoError(t, repo.Resolve(ctx, "a1", domain.ApprovalApproved, now.Add(time.Minute)))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, got.Status)
	require.NotNil(t, got.ResolvedAt)
}
