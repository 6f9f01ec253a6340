package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hawlion/ai-planner/internal/briefing"
	"github.com/hawlion/ai-planner/internal/domain"
)

type taskBlockDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type topTaskDTO struct {
	TaskID           string        `json:"task_id"`
	Title            string        `json:"title"`
	Reason           string        `json:"reason"`
	RecommendedBlock *taskBlockDTO `json:"recommended_block,omitempty"`
}

type briefingDTO struct {
	Date      time.Time    `json:"date"`
	TopTasks  []topTaskDTO `json:"top_tasks"`
	Risks     []string     `json:"risks"`
	Reminders []string     `json:"reminders"`
	Snapshot  struct {
		MeetingMinutes int `json:"meeting_minutes"`
		FocusMinutes   int `json:"focus_minutes"`
		FreeMinutes    int `json:"free_minutes"`
	} `json:"snapshot"`
}

// handleDailyBriefing ports build_daily_briefing: today's top five tasks by
// priority/due ordering, risk flags, due-today reminders, and a time-budget
// snapshot over the day's calendar blocks.
func (s *Server) handleDailyBriefing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target := s.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: invalid date: %v", domain.ErrValidation, err))
			return
		}
		target = parsed
	}

	profile, err := s.Profiles.Get(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if profile == nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: profile is not configured", domain.ErrValidation))
		return
	}

	tasks, err := s.Tasks.ListByStatus(ctx, []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress})
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	loc, locErr := time.LoadLocation(profile.Timezone)
	if locErr != nil {
		loc = time.UTC
	}
	local := target.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	blocks, err := s.Blocks.BlocksIntersectingHorizon(ctx, dayStart, dayEnd)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	result := briefing.Build(profile, target, tasks, blocks)

	dto := briefingDTO{
		Date:      result.Date,
		Risks:     result.Risks,
		Reminders: result.Reminders,
	}
	dto.Snapshot.MeetingMinutes = result.Snapshot.MeetingMinutes
	dto.Snapshot.FocusMinutes = result.Snapshot.FocusMinutes
	dto.Snapshot.FreeMinutes = result.Snapshot.FreeMinutes
	for _, t := range result.TopTasks {
		tt := topTaskDTO{TaskID: t.TaskID, Title: t.Title, Reason: t.Reason}
		if t.Recommend != nil {
			tt.RecommendedBlock = &taskBlockDTO{Start: t.Recommend.Start, End: t.Recommend.End}
		}
		dto.TopTasks = append(dto.TopTasks, tt)
	}
	writeJSON(w, http.StatusOK, dto)
}
