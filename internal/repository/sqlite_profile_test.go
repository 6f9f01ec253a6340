package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/testutil"
)

func TestProfileRepo_Get_SeededDefault(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteProfileRepo(database)
	ctx := context.Background()

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default", got.ID)
	assert.Equal(t, domain.AutonomyL1, got.Autonomy)
	assert.Empty(t, got.WorkWindows)
}

func TestProfileRepo_Upsert_RoundTripsWindowsAndBumpsVersion(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteProfileRepo(database)
	ctx := context.Background()

	p := &domain.Profile{
		ID: "default", Timezone: "Asia/Seoul", Autonomy: domain.AutonomyL2,
		WorkWindows: []domain.WorkWindow{{Weekday: 1, StartMin: 540, EndMin: 1080}},
		Version:     1,
	}
	require.NoError(t, repo.Upsert(ctx, p))
	assert.Equal(t, int64(2), p.Version)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", got.Timezone)
	assert.Equal(t, domain.AutonomyL2, got.Autonomy)
	require.Len(t, got.WorkWindows, 1)
	assert.Equal(t, 540, got.WorkWindows[0].StartMin)
}
