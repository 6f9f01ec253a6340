package freeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/timealgebra"
)

func at(h, m int) time.Time {
	return time.Date(2026, 7, 27, h, m, 0, 0, time.UTC)
}

func TestFindExcludesExternalAndAawoBlocks(t *testing.T) {
	window := timealgebra.Interval{Start: at(9, 0), End: at(18, 0)}
	ref := func(s string) *string { return &s }
	blocks := []domain.CalendarBlock{
		{Start: at(12, 0), End: at(13, 0), Source: domain.BlockSourceAawo},
		{Start: at(15, 0), End: at(15, 30), Source: domain.BlockSourceExternal, TaskID: ref("t1")},
	}

	free := Find([]timealgebra.Interval{window}, blocks)
	require.Len(t, free, 3)
	assert.Equal(t, at(9, 0), free[0].Start)
	assert.Equal(t, at(12, 0), free[0].End)
	assert.Equal(t, at(13, 0), free[1].Start)
	assert.Equal(t, at(15, 0), free[1].End)
	assert.Equal(t, at(15, 30), free[2].Start)
	assert.Equal(t, at(18, 0), free[2].End)
}

func TestFindDropsSlotsUnderMinimum(t *testing.T) {
	window := timealgebra.Interval{Start: at(9, 0), End: at(9, 10)}
	free := Find([]timealgebra.Interval{window}, nil)
	assert.Empty(t, free)
}
