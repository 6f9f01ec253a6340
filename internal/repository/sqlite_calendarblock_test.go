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

func TestCalendarBlockRepo_CreateAndIntersectingHorizon(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteCalendarBlockRepo(database)
	ctx := context.Background()

	start := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	block := domain.CalendarBlock{
		ID: "blk1", Type: domain.BlockTaskBlock, Title: "작업", Start: start, End: start.Add(time.Hour),
		Source: domain.BlockSourceAawo, Version: 1,
	}
	require.NoError(t, repo.CreateBlock(ctx, block))

	found, err := repo.BlocksIntersectingHorizon(ctx, start.Add(-time.Hour), start.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "blk1", found[0].ID)

	none, err := repo.BlocksIntersectingHorizon(ctx, start.Add(2*time.Hour), start.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCalendarBlockRepo_ReassignTask(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteCalendarBlockRepo(database)
	ctx := context.Background()

	start := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	fromID := "task-a"
	require.NoError(t, repo.CreateBlock(ctx, domain.CalendarBlock{
		ID: "blk1", Type: domain.BlockTaskBlock, Start: start, End: start.Add(time.Hour),
		TaskID: &fromID, Source: domain.BlockSourceAawo, Version: 1,
	}))

	n, err := repo.ReassignTask(ctx, "task-a", "task-b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	blocks, err := repo.BlocksIntersectingHorizon(ctx, start, start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.NotNil(t, blocks[0].TaskID)
	assert.Equal(t, "task-b", *blocks[0].TaskID)
	assert.Equal(t, int64(2), blocks[0].Version)
}

func TestCalendarBlockRepo_DetachTask_ClearsTaskID(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteCalendarBlockRepo(database)
	ctx := context.Background()

	start := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	taskID := "task-a"
	require.NoError(t, repo.CreateBlock(ctx, domain.CalendarBlock{
		ID: "blk1", Type: domain.BlockTaskBlock, Start: start, End: start.Add(time.Hour),
		TaskID: &taskID, Source: domain.BlockSourceAawo, Version: 1,
	}))

	n, err := repo.DetachTask(ctx, "task-a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	blocks, err := repo.BlocksIntersectingHorizon(ctx, start, start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Nil(t, blocks[0].TaskID)
	assert.Equal(t, int64(2), blocks[0].Version)
}

func TestCalendarBlockRepo_UpdateBlock_MovesStartAndEnd(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteCalendarBlockRepo(database)
	ctx := context.Background()

	start := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	block := domain.CalendarBlock{
		ID: "blk1", Type: domain.BlockTaskBlock, Title: "기획 회의", Start: start, End: start.Add(time.Hour),
		Source: domain.BlockSourceAawo, Version: 1,
	}
	require.NoError(t, repo.CreateBlock(ctx, block))

	newStart := start.Add(24 * time.Hour)
	block.Start = newStart
	block.End = newStart.Add(30 * time.Minute)
	block.Version++
	require.NoError(t, repo.UpdateBlock(ctx, block))

	found, err := repo.BlocksIntersectingHorizon(ctx, newStart, newStart.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(2), found[0].Version)
	assert.True(t, found[0].End.Equal(newStart.Add(30*time.Minute)))
}

func TestCalendarBlockRepo_ActiveNonExternalAfter_ExcludesExternal(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteCalendarBlockRepo(database)
	ctx := context.Background()

	start := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateBlock(ctx, domain.CalendarBlock{
		ID: "aawo1", Type: domain.BlockFocusBlock, Start: start, End: start.Add(time.Hour), Source: domain.BlockSourceAawo, Version: 1,
	}))
	require.NoError(t, repo.CreateBlock(ctx, domain.CalendarBlock{
		ID: "ext1", Type: domain.BlockOther, Start: start, End: start.Add(time.Hour), Source: domain.BlockSourceExternal, Version: 1,
	}))

	active, err := repo.ActiveNonExternalAfter(ctx, start.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "aawo1", active[0].ID)
}
