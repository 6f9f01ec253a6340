package workwindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/domain"
)

func seoulProfile() *domain.Profile {
	return &domain.Profile{
		Timezone: "Asia/Seoul",
		WorkWindows: []domain.WorkWindow{
			{Weekday: 1, StartMin: 9 * 60, EndMin: 18 * 60}, // Monday
		},
		Lunch: []domain.LunchWindow{
			{Weekday: 1, StartMin: 12 * 60, EndMin: 13 * 60},
		},
	}
}

func TestResolveClipsAndSubtractsLunch(t *testing.T) {
	p := seoulProfile()
	loc, _ := time.LoadLocation("Asia/Seoul")
	// Monday July 27 2026
	start := time.Date(2026, 7, 27, 0, 0, 0, 0, loc)
	end := time.Date(2026, 7, 28, 0, 0, 0, 0, loc)

	windows := Resolve(p, start, end)
	require.Len(t, windows, 2)
	assert.Equal(t, 9, windows[0].Start.Hour())
	assert.Equal(t, 12, windows[0].End.Hour())
	assert.Equal(t, 13, windows[1].Start.Hour())
	assert.Equal(t, 18, windows[1].End.Hour())
}

func TestResolveSkipsUnconfiguredDays(t *testing.T) {
	p := seoulProfile()
	loc, _ := time.LoadLocation("Asia/Seoul")
	// Sunday July 26 2026 — no configured window
	start := time.Date(2026, 7, 26, 0, 0, 0, 0, loc)
	end := time.Date(2026, 7, 27, 0, 0, 0, 0, loc)

	windows := Resolve(p, start, end)
	assert.Empty(t, windows)
}
