package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/testutil"
)

func TestMeetingRepo_CreateAndGet_RoundTripsTranscript(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteMeetingRepo(database)
	ctx := context.Background()

	started := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	meeting := &domain.Meeting{
		ID: "m1", Title: "주간 싱크", StartedAt: started,
		Transcript: []domain.TranscriptLine{
			{TsMs: 0, Speaker: "철수", Text: "시작하겠습니다"},
			{TsMs: 5000, Speaker: "영희", Text: "네 좋습니다"},
		},
		ExtractionStatus: domain.ExtractionPending,
	}
	require.NoError(t, repo.Create(ctx, meeting))

	got, err := repo.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, meeting.Title, got.Title)
	require.Len(t, got.Transcript, 2)
	assert.Equal(t, "철수", got.Transcript[0].Speaker)
	assert.Equal(t, domain.ExtractionPending, got.ExtractionStatus)

	require.NoError(t, repo.UpdateExtractionStatus(ctx, "m1", domain.ExtractionCompleted))
	got, err = repo.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionCompleted, got.ExtractionStatus)
}

func TestActionItemCandidateRepo_LinkTask_ApprovesAndLinks(t *testing.T) {
	database := testutil.NewTestDB(t)
	meetings := NewSQLiteMeetingRepo(database)
	candidates := NewSQLiteActionItemCandidateRepo(database)
	ctx := context.Background()

	require.NoError(t, meetings.Create(ctx, &domain.Meeting{ID: "m1", Title: "싱크", StartedAt: time.Now().UTC()}))
	require.NoError(t, candidates.Create(ctx, &domain.ActionItemCandidate{
		ID: "c1", MeetingID: "m1", Title: "초안 작성", EffortMin: 30, Confidence: 0.9, Status: domain.CandidatePending,
	}))

	require.NoError(t, candidates.LinkTask(ctx, "c1", "t1"))

	got, err := candidates.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateApproved, got.Status)
	require.NotNil(t, got.LinkedTaskID)
	assert.Equal(t, "t1", *got.LinkedTaskID)

	pending, err := candidates.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
