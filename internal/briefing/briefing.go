// Package briefing composes the daily briefing: today's top tasks, risk
// flags, reminders, and a time-budget snapshot, ported from the original
// planner's build_daily_briefing.
package briefing

import (
	"sort"
	"strconv"
	"time"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/workwindow"
)

var priorityScore = map[domain.Priority]int{
	domain.PriorityCritical: 4,
	domain.PriorityHigh:     3,
	domain.PriorityMedium:   2,
	domain.PriorityLow:      1,
}

// TaskBlock is a recommended [start,end) slot for a top task, or nil when
// none was found in the working window.
type TaskBlock struct {
	Start time.Time
	End   time.Time
}

type TopTask struct {
	TaskID    string
	Title     string
	Reason    string
	Recommend *TaskBlock
}

type Snapshot struct {
	MeetingMinutes int
	FocusMinutes   int
	FreeMinutes    int
}

type Briefing struct {
	Date      time.Time
	TopTasks  []TopTask
	Risks     []string
	Reminders []string
	Snapshot  Snapshot
}

type busyRange struct{ start, end time.Time }

// Build assembles the briefing for targetDate (any time within that day, in
// the profile's timezone). tasks must be pre-filtered to todo/in_progress;
// blocks must intersect [dayStart, dayEnd).
func Build(profile *domain.Profile, targetDate time.Time, tasks []domain.Task, blocks []domain.CalendarBlock) Briefing {
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := targetDate.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	sorted := append([]domain.Task(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := priorityScore[sorted[i].Priority], priorityScore[sorted[j].Priority]
		if si != sj {
			return si > sj
		}
		return dueOrMax(sorted[i].Due, loc).Before(dueOrMax(sorted[j].Due, loc))
	})

	var busy []busyRange
	var busyMinutes, focusMinutes, meetingMinutes int
	for _, b := range blocks {
		start, end := clip(b.Start.In(loc), b.End.In(loc), dayStart, dayEnd)
		if !start.Before(end) {
			continue
		}
		busy = append(busy, busyRange{start, end})
		busyMinutes += toMinutes(start, end)
		if b.Type == domain.BlockFocusBlock || b.Type == domain.BlockTaskBlock {
			focusMinutes += toMinutes(start, end)
		}
		if b.Type == domain.BlockOther && b.Source == domain.BlockSourceExternal {
			meetingMinutes += toMinutes(start, end)
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].start.Before(busy[j].start) })

	windows := workwindow.Resolve(profile, dayStart, dayEnd)
	var workStart, workEnd time.Time
	var workMinutes int
	for _, w := range windows {
		workMinutes += toMinutes(w.Start, w.End)
		if workStart.IsZero() || w.Start.Before(workStart) {
			workStart = w.Start
		}
		if workEnd.IsZero() || w.End.After(workEnd) {
			workEnd = w.End
		}
	}
	freeMinutes := workMinutes - busyMinutes
	if freeMinutes < 0 {
		freeMinutes = 0
	}

	top := sorted
	if len(top) > 5 {
		top = top[:5]
	}
	var topTasks []TopTask
	for _, t := range top {
		tt := TopTask{
			TaskID: t.ID,
			Title:  t.Title,
			Reason: priorityReason(t),
		}
		if !workStart.IsZero() && !workEnd.IsZero() {
			if slotStart, slotEnd, ok := firstFreeSlot(workStart, workEnd, busy); ok {
				tt.Recommend = &TaskBlock{Start: slotStart, End: slotEnd}
			}
		}
		topTasks = append(topTasks, tt)
	}

	var risks []string
	overdue := 0
	dueToday := 0
	var dueTodayTasks []domain.Task
	for _, t := range sorted {
		if t.Due == nil {
			continue
		}
		due := t.Due.In(loc)
		if due.Before(dayStart) {
			overdue++
		} else if !due.Before(dayStart) && due.Before(dayEnd) {
			dueToday++
			dueTodayTasks = append(dueTodayTasks, t)
		}
	}
	if overdue > 0 {
		risks = append(risks, "기한 경과 작업 "+strconv.Itoa(overdue)+"건")
	}
	if dueToday >= 3 {
		risks = append(risks, "오늘 마감 작업이 3건 이상입니다")
	}
	if freeMinutes < 120 {
		risks = append(risks, "가용 집중 시간이 2시간 미만입니다")
	}

	var reminders []string
	for i, t := range dueTodayTasks {
		if i >= 3 {
			break
		}
		reminders = append(reminders, t.Title+" 마감이 오늘입니다")
	}

	return Briefing{
		Date:      dayStart,
		TopTasks:  topTasks,
		Risks:     risks,
		Reminders: reminders,
		Snapshot: Snapshot{
			MeetingMinutes: meetingMinutes,
			FocusMinutes:   focusMinutes,
			FreeMinutes:    freeMinutes,
		},
	}
}

func priorityReason(t domain.Task) string {
	return "우선순위=" + string(t.Priority) + ", 예상소요=" + strconv.Itoa(t.EffortMin) + "분"
}

func dueOrMax(due *time.Time, loc *time.Location) time.Time {
	if due == nil {
		return time.Date(9999, 1, 1, 0, 0, 0, 0, loc)
	}
	return due.In(loc)
}

func clip(start, end, boundStart, boundEnd time.Time) (time.Time, time.Time) {
	if start.Before(boundStart) {
		start = boundStart
	}
	if end.After(boundEnd) {
		end = boundEnd
	}
	return start, end
}

func toMinutes(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Minutes())
}

// firstFreeSlot finds the first gap of up to 90 minutes between workStart
// and workEnd not covered by busy, sorted ascending by start.
func firstFreeSlot(workStart, workEnd time.Time, busy []busyRange) (time.Time, time.Time, bool) {
	cursor := workStart
	for _, b := range busy {
		if !b.end.After(cursor) {
			continue
		}
		if b.start.After(cursor) {
			slotEnd := b.start
			if max := cursor.Add(90 * time.Minute); slotEnd.After(max) {
				slotEnd = max
			}
			if slotEnd.After(cursor) {
				return cursor, slotEnd, true
			}
		}
		if b.end.After(cursor) {
			cursor = b.end
		}
	}
	if cursor.Before(workEnd) {
		slotEnd := workEnd
		if max := cursor.Add(90 * time.Minute); slotEnd.After(max) {
			slotEnd = max
		}
		return cursor, slotEnd, true
	}
	return time.Time{}, time.Time{}, false
}
