// Package workwindow projects a Profile's working hours, lunch, and
// deep-work preferences onto a concrete date range.
package workwindow

import (
	"time"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/timealgebra"
)

// Resolve emits, for each date in [horizonStart, horizonEnd), the working
// window of that weekday clipped to the horizon, with the lunch window
// subtracted if configured. Days with no configured entry contribute
// nothing. Deep-work windows are NOT subtracted here; callers consult
// profile.DeepWorkFor as a scoring hint.
func Resolve(profile *domain.Profile, horizonStart, horizonEnd time.Time) []timealgebra.Interval {
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	start := horizonStart.In(loc)
	end := horizonEnd.In(loc)

	var windows []timealgebra.Interval
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	for !day.After(end) {
		weekday := int(day.Weekday())
		startMin, endMin, ok := profile.WorkWindowFor(weekday)
		if ok {
			win := timealgebra.Interval{
				Start: day.Add(time.Duration(startMin) * time.Minute),
				End:   day.Add(time.Duration(endMin) * time.Minute),
			}
			win = clip(win, timealgebra.Interval{Start: start, End: end})
			if !win.Empty() {
				windows = append(windows, subtractLunch(win, profile, weekday, day)...)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return windows
}

func subtractLunch(win timealgebra.Interval, profile *domain.Profile, weekday int, day time.Time) []timealgebra.Interval {
	lunchStart, lunchEnd, ok := profile.LunchFor(weekday)
	if !ok {
		return []timealgebra.Interval{win}
	}
	lunch := timealgebra.Interval{
		Start: day.Add(time.Duration(lunchStart) * time.Minute),
		End:   day.Add(time.Duration(lunchEnd) * time.Minute),
	}
	return timealgebra.Subtract(win, []timealgebra.Interval{lunch})
}

func clip(iv, bound timealgebra.Interval) timealgebra.Interval {
	out := iv
	if out.Start.Before(bound.Start) {
		out.Start = bound.Start
	}
	if out.End.After(bound.End) {
		out.End = bound.End
	}
	if out.Empty() {
		return timealgebra.Interval{}
	}
	return out
}

// DeepWorkOverlapMinutes sums the weighted overlap between iv and the
// profile's deep-work windows configured on iv's weekday, expressed in the
// profile's timezone.
func DeepWorkOverlapMinutes(profile *domain.Profile, iv timealgebra.Interval) float64 {
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := iv.Start.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	weekday := int(local.Weekday())

	var total float64
	for _, dw := range profile.DeepWorkFor(weekday) {
		window := timealgebra.Interval{
			Start: day.Add(time.Duration(dw.StartMin) * time.Minute),
			End:   day.Add(time.Duration(dw.EndMin) * time.Minute),
		}
		overlapStart := maxTime(window.Start, iv.Start)
		overlapEnd := minTime(window.End, iv.End)
		if overlapEnd.After(overlapStart) {
			total += overlapEnd.Sub(overlapStart).Minutes() * dw.Weight
		}
	}
	return total
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
