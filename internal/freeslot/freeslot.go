// Package freeslot finds ordered free intervals given a horizon's working
// windows and the calendar blocks that occupy it.
package freeslot

import (
	"sort"
	"time"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/timealgebra"
)

// MinSlotMinutes is the smallest free interval FreeSlotFinder ever emits.
const MinSlotMinutes = 15

// Find returns, in chronological order, intervals of at least MinSlotMinutes
// that lie inside some work window and do not intersect any block (aawo or
// external — external blocks count as busy even though the system may not
// modify them).
func Find(workWindows []timealgebra.Interval, blocks []domain.CalendarBlock) []timealgebra.Interval {
	busy := make([]timealgebra.Interval, 0, len(blocks))
	for _, b := range blocks {
		busy = append(busy, timealgebra.Interval{Start: b.Start, End: b.End})
	}
	merged := timealgebra.Merge(busy)

	var free []timealgebra.Interval
	for _, w := range workWindows {
		for _, candidate := range timealgebra.Subtract(w, merged) {
			if candidate.Minutes() >= MinSlotMinutes {
				free = append(free, candidate)
			}
		}
	}
	sort.Slice(free, func(i, j int) bool {
		return free[i].Start.Before(free[j].Start)
	})
	return free
}

// FindOnDate restricts Find to 09:00-18:00 local on the given date, the
// window find_free_time uses per spec.
func FindOnDate(profile *domain.Profile, date time.Time, blocks []domain.CalendarBlock) []timealgebra.Interval {
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := date.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	window := timealgebra.Interval{
		Start: day.Add(9 * time.Hour),
		End:   day.Add(18 * time.Hour),
	}
	return Find([]timealgebra.Interval{window}, blocks)
}

// FindNextSlot first-fits a block of effortMinutes (clamped to 30-120) onto
// a 30-minute grid over the next 48 hours from now, ignoring work-window
// bounds entirely: this is the coarse "get it on the calendar somewhere
// soon" search a just-approved meeting action item uses, distinct from
// FindOnDate's work-hours-only search.
func FindNextSlot(now time.Time, effortMinutes int, blocks []domain.CalendarBlock) (timealgebra.Interval, bool) {
	duration := time.Duration(clamp(effortMinutes, 30, 120)) * time.Minute
	horizonEnd := now.Add(48 * time.Hour)

	cursor := now.Truncate(30 * time.Minute)
	if cursor.Before(now) {
		cursor = cursor.Add(30 * time.Minute)
	}

	for cursor.Before(horizonEnd) {
		candidateEnd := cursor.Add(duration)
		conflict := false
		for _, b := range blocks {
			if b.Start.Before(candidateEnd) && cursor.Before(b.End) {
				conflict = true
				break
			}
		}
		if !conflict {
			return timealgebra.Interval{Start: cursor, End: candidateEnd}, true
		}
		cursor = cursor.Add(30 * time.Minute)
	}
	return timealgebra.Interval{}, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
