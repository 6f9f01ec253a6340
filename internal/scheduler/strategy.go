// Package scheduler generates and applies scheduling proposals: placing
// task effort into free time under work-hour, lunch, deep-work, and
// conflict constraints.
package scheduler

import (
	"math"
	"sort"
	"time"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/timealgebra"
	"github.com/hawlion/ai-planner/internal/workwindow"
)

// MinSlotMinutes and MaxSlotMinutes bound the slot_minutes scheduling
// parameter.
const (
	MinSlotMinutes = 15
	MaxSlotMinutes = 60
	MinProposals   = 1
	MaxProposals   = 5
	// MaxBlockMinutes caps a single placed block; larger effort spills into
	// a later proposal run rather than one oversized block.
	MaxBlockMinutes = 120
)

// orderTasks sorts candidate tasks per strategy's primary -> tie-break rule.
// Ordering is stable so equal keys preserve input order (determinism).
func orderTasks(strategy domain.Strategy, tasks []domain.Task) []domain.Task {
	ordered := make([]domain.Task, len(tasks))
	copy(ordered, tasks)

	less := func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		switch strategy {
		case domain.StrategyUrgent:
			ad, bd := dueOrMax(a.Due), dueOrMax(b.Due)
			if !ad.Equal(bd) {
				return ad.Before(bd)
			}
			return a.Priority.Rank() > b.Priority.Rank()
		case domain.StrategyFocus:
			ae, be := clipFocusEffort(a.EffortMin), clipFocusEffort(b.EffortMin)
			if ae != be {
				return ae > be
			}
			if a.Priority.Rank() != b.Priority.Rank() {
				return a.Priority.Rank() > b.Priority.Rank()
			}
			return dueOrMax(a.Due).Before(dueOrMax(b.Due))
		default: // stable
			if a.Priority.Rank() != b.Priority.Rank() {
				return a.Priority.Rank() > b.Priority.Rank()
			}
			return dueOrMax(a.Due).Before(dueOrMax(b.Due))
		}
	}
	sort.SliceStable(ordered, less)
	return ordered
}

func dueOrMax(due *time.Time) time.Time {
	if due == nil {
		return time.Unix(1<<62, 0)
	}
	return *due
}

func clipFocusEffort(minutes int) int {
	if minutes < 30 {
		return 30
	}
	return minutes
}

// requiredMinutes computes the block length per spec 4.4 step 1: rounded up
// to a multiple of slotMinutes, capped at MaxBlockMinutes.
func requiredMinutes(effortMin, slotMinutes int) int {
	required := int(math.Ceil(float64(effortMin)/float64(slotMinutes))) * slotMinutes
	if required < slotMinutes {
		required = slotMinutes
	}
	if required > MaxBlockMinutes {
		required = MaxBlockMinutes
	}
	return required
}

// intervalScore computes the strategy's interval-pick score (lower=better)
// for placing a block of `required` minutes starting at iv.Start.
func intervalScore(strategy domain.Strategy, profile *domain.Profile, task domain.Task, iv timealgebra.Interval, required int) float64 {
	startMinutes := float64(iv.Start.Unix()) / 60
	switch strategy {
	case domain.StrategyUrgent:
		if task.Due == nil {
			return startMinutes
		}
		end := iv.Start.Add(time.Duration(required) * time.Minute)
		lateness := end.Sub(*task.Due).Minutes()
		if lateness < 0 {
			lateness = 0
		}
		return startMinutes + 5*lateness
	case domain.StrategyFocus:
		candidate := timealgebra.Interval{Start: iv.Start, End: iv.Start.Add(time.Duration(required) * time.Minute)}
		bonus := workwindow.DeepWorkOverlapMinutes(profile, candidate)
		return startMinutes - 60*bonus
	default: // stable
		return startMinutes
	}
}
