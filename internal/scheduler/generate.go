package scheduler

import (
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/freeslot"
	"github.com/hawlion/ai-planner/internal/timealgebra"
	"github.com/hawlion/ai-planner/internal/workwindow"
)

// MetricsRecorder is the narrow surface internal/metrics implements for
// proposal generation/application counters; a nil recorder disables both.
type MetricsRecorder interface {
	ObserveProposalsGenerated(count int)
	ObserveProposalApplied()
}

// GenerateProposals produces up to maxProposals draft proposals, one per
// strategy in domain.DefaultStrategyOrder, truncated to maxProposals. No
// mutation of calendar blocks occurs in this phase; the overlap check here
// is advisory — ProposalApplier's re-check is authoritative.
func GenerateProposals(
	profile *domain.Profile,
	horizon timealgebra.Interval,
	tasks []domain.Task,
	existingBlocks []domain.CalendarBlock,
	slotMinutes int,
	maxProposals int,
) []domain.SchedulingProposal {
	if slotMinutes < MinSlotMinutes {
		slotMinutes = MinSlotMinutes
	}
	if slotMinutes > MaxSlotMinutes {
		slotMinutes = MaxSlotMinutes
	}
	if maxProposals < MinProposals {
		maxProposals = MinProposals
	}
	if maxProposals > MaxProposals {
		maxProposals = MaxProposals
	}

	workWindows := workwindow.Resolve(profile, horizon.Start, horizon.End)
	free := freeslot.Find(workWindows, existingBlocks)

	strategies := domain.DefaultStrategyOrder
	if len(strategies) > maxProposals {
		strategies = strategies[:maxProposals]
	}

	proposals := make([]domain.SchedulingProposal, 0, len(strategies))
	for _, strategy := range strategies {
		proposals = append(proposals, runStrategy(profile, strategy, horizon, tasks, free, slotMinutes))
	}
	return proposals
}

func runStrategy(
	profile *domain.Profile,
	strategy domain.Strategy,
	horizon timealgebra.Interval,
	tasks []domain.Task,
	free []timealgebra.Interval,
	slotMinutes int,
) domain.SchedulingProposal {
	ordered := orderTasks(strategy, tasks)
	slots := make([]timealgebra.Interval, len(free))
	copy(slots, free)

	proposal := domain.SchedulingProposal{
		ID:           uuid.NewString(),
		Strategy:     strategy,
		Status:       domain.ProposalDraft,
		HorizonStart: horizon.Start,
		HorizonEnd:   horizon.End,
		CreatedAt:    time.Now().UTC(),
	}

	var latenessMinutes, deepWorkMinutes float64
	for _, task := range ordered {
		required := requiredMinutes(task.EffortMin, slotMinutes)
		idx := pickSlot(strategy, profile, task, slots, required)
		if idx < 0 {
			continue // no interval fits: skip this task in this proposal, no error
		}

		chosen := slots[idx]
		blockStart := chosen.Start
		blockEnd := blockStart.Add(time.Duration(required) * time.Minute)

		blockType := domain.BlockTaskBlock
		if required >= 90 {
			blockType = domain.BlockFocusBlock
		}

		taskID := task.ID
		proposal.Changes = append(proposal.Changes, domain.SchedulingChange{
			ID:         uuid.NewString(),
			ProposalID: proposal.ID,
			Kind:       domain.ChangeCreateBlock,
			BlockType:  blockType,
			Title:      task.Title,
			Start:      blockStart,
			End:        blockEnd,
			TaskID:     &taskID,
		})

		if task.Due != nil {
			late := blockEnd.Sub(*task.Due).Minutes()
			if late > 0 {
				latenessMinutes += late
			}
		}
		if required >= 90 {
			deepWorkMinutes += float64(required)
		}

		// shrink the picked interval to [end, interval.End); drop if empty
		remaining := timealgebra.Interval{Start: blockEnd, End: chosen.End}
		if remaining.Empty() {
			slots = append(slots[:idx], slots[idx+1:]...)
		} else {
			slots[idx] = remaining
		}
	}

	changesCount := len(proposal.Changes)
	objective := 1000 - latenessMinutes - 10*float64(changesCount) + 0.5*deepWorkMinutes
	if objective < 0 {
		objective = 0
	}
	proposal.LatenessMinutes = round2(latenessMinutes)
	proposal.DeepWorkMinutes = round2(deepWorkMinutes)
	proposal.ChangesCount = changesCount
	proposal.ObjectiveValue = round2(objective)
	proposal.Explanation = explain(strategy, changesCount, proposal.LatenessMinutes, proposal.DeepWorkMinutes)
	return proposal
}

// pickSlot finds, among intervals with at least `required` minutes free,
// the one with the minimum strategy score, tie-broken by earliest start.
// Returns -1 if none fits.
func pickSlot(strategy domain.Strategy, profile *domain.Profile, task domain.Task, slots []timealgebra.Interval, required int) int {
	best := -1
	var bestScore float64
	for i, s := range slots {
		if s.Minutes() < float64(required) {
			continue
		}
		score := intervalScore(strategy, profile, task, s, required)
		if best < 0 || score < bestScore || (score == bestScore && s.Start.Before(slots[best].Start)) {
			best = i
			bestScore = score
		}
	}
	return best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func explain(strategy domain.Strategy, changes int, lateness, deepWork float64) string {
	note := map[domain.Strategy]string{
		domain.StrategyStable: "ordered by priority then due date, earliest-fit placement",
		domain.StrategyUrgent: "ordered by due date then priority, penalizing placements that run past due",
		domain.StrategyFocus:  "ordered by effort then priority, biased toward deep-work windows",
	}[strategy]
	return note + "; placed " + strconv.Itoa(changes) + " block(s)"
}
