package httpapi

import (
	"time"

	"github.com/hawlion/ai-planner/internal/domain"
)

// taskDTO is the wire shape for Task; pointer fields are omitted when nil
// instead of serialized as null, matching the teacher's payload convention.
type taskDTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Due         *time.Time `json:"due,omitempty"`
	EffortMin   int        `json:"effort_minutes"`
	ProjectID   *string    `json:"project_id,omitempty"`
	Origin      string     `json:"origin"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func taskToDTO(t domain.Task) taskDTO {
	return taskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Due:         t.Due,
		EffortMin:   t.EffortMin,
		ProjectID:   t.ProjectID,
		Origin:      string(t.Origin),
		Version:     t.Version,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Due         *time.Time `json:"due"`
	EffortMin   int        `json:"effort_minutes"`
	ProjectID   *string    `json:"project_id"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	Due         *time.Time `json:"due"`
	ClearDue    bool       `json:"clear_due"`
	EffortMin   *int       `json:"effort_minutes"`
	ProjectID   *string    `json:"project_id"`
}

type blockDTO struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	TaskID          *string   `json:"task_id,omitempty"`
	Locked          bool      `json:"locked"`
	Source          string    `json:"source"`
	ExternalEventID *string   `json:"external_event_id,omitempty"`
	Version         int64     `json:"version"`
}

func blockToDTO(b domain.CalendarBlock) blockDTO {
	return blockDTO{
		ID:              b.ID,
		Type:            string(b.Type),
		Title:           b.Title,
		Start:           b.Start,
		End:             b.End,
		TaskID:          b.TaskID,
		Locked:          b.Locked,
		Source:          string(b.Source),
		ExternalEventID: b.ExternalEventID,
		Version:         b.Version,
	}
}

type createBlockRequest struct {
	Type   string    `json:"type"`
	Title  string    `json:"title"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	TaskID *string   `json:"task_id"`
	Locked bool      `json:"locked"`
}

type updateBlockRequest struct {
	Title  *string    `json:"title"`
	Start  *time.Time `json:"start"`
	End    *time.Time `json:"end"`
	Locked *bool      `json:"locked"`
}

type approvalDTO struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Status     string                 `json:"status"`
	Reason     string                 `json:"reason,omitempty"`
	Payload    domain.ApprovalPayload `json:"payload"`
	CreatedAt  time.Time              `json:"created_at"`
	ResolvedAt *time.Time             `json:"resolved_at,omitempty"`
}

func approvalToDTO(a domain.ApprovalRequest) approvalDTO {
	return approvalDTO{
		ID:         a.ID,
		Type:       string(a.Type),
		Status:     string(a.Status),
		Reason:     a.Reason,
		Payload:    a.Payload,
		CreatedAt:  a.CreatedAt,
		ResolvedAt: a.ResolvedAt,
	}
}

type candidateDTO struct {
	ID           string     `json:"id"`
	MeetingID    string     `json:"meeting_id"`
	Title        string     `json:"title"`
	AssigneeName *string    `json:"assignee_name,omitempty"`
	Due          *time.Time `json:"due,omitempty"`
	EffortMin    int        `json:"effort_minutes"`
	Confidence   float64    `json:"confidence"`
	Rationale    string     `json:"rationale"`
	Status       string     `json:"status"`
	LinkedTaskID *string    `json:"linked_task_id,omitempty"`
}

func candidateToDTO(c domain.ActionItemCandidate) candidateDTO {
	return candidateDTO{
		ID:           c.ID,
		MeetingID:    c.MeetingID,
		Title:        c.Title,
		AssigneeName: c.AssigneeName,
		Due:          c.Due,
		EffortMin:    c.EffortMin,
		Confidence:   c.Confidence,
		Rationale:    c.Rationale,
		Status:       string(c.Status),
		LinkedTaskID: c.LinkedTaskID,
	}
}

type meetingDTO struct {
	ID               string                `json:"id"`
	Title            string                `json:"title"`
	StartedAt        time.Time             `json:"started_at"`
	EndedAt          *time.Time            `json:"ended_at,omitempty"`
	Summary          string                `json:"summary,omitempty"`
	ExtractionStatus string                `json:"extraction_status"`
	Candidates       []candidateDTO        `json:"candidates,omitempty"`
	Transcript       []domain.TranscriptLine `json:"transcript,omitempty"`
}

func meetingToDTO(m domain.Meeting, candidates []domain.ActionItemCandidate) meetingDTO {
	dto := meetingDTO{
		ID:               m.ID,
		Title:            m.Title,
		StartedAt:        m.StartedAt,
		EndedAt:          m.EndedAt,
		Summary:          m.Summary,
		ExtractionStatus: string(m.ExtractionStatus),
		Transcript:       m.Transcript,
	}
	for _, c := range candidates {
		dto.Candidates = append(dto.Candidates, candidateToDTO(c))
	}
	return dto
}

type proposalDTO struct {
	ID              string    `json:"id"`
	Strategy        string    `json:"strategy"`
	Status          string    `json:"status"`
	HorizonStart    time.Time `json:"horizon_start"`
	HorizonEnd      time.Time `json:"horizon_end"`
	ChangesCount    int       `json:"changes_count"`
	Explanation     string    `json:"explanation"`
	LatenessMinutes float64   `json:"lateness_minutes"`
	DeepWorkMinutes float64   `json:"deep_work_minutes"`
	ObjectiveValue  float64   `json:"objective_value"`
	CreatedAt       time.Time `json:"created_at"`
}

func proposalToDTO(p domain.SchedulingProposal) proposalDTO {
	return proposalDTO{
		ID:              p.ID,
		Strategy:        string(p.Strategy),
		Status:          string(p.Status),
		HorizonStart:    p.HorizonStart,
		HorizonEnd:      p.HorizonEnd,
		ChangesCount:    p.ChangesCount,
		Explanation:     p.Explanation,
		LatenessMinutes: p.LatenessMinutes,
		DeepWorkMinutes: p.DeepWorkMinutes,
		ObjectiveValue:  p.ObjectiveValue,
		CreatedAt:       p.CreatedAt,
	}
}

type profileDTO struct {
	ID          string                `json:"id"`
	Timezone    string                `json:"timezone"`
	Autonomy    string                `json:"autonomy"`
	WorkWindows []domain.WorkWindow   `json:"work_windows"`
	Lunch       []domain.LunchWindow  `json:"lunch,omitempty"`
	DeepWork    []domain.DeepWorkWindow `json:"deep_work,omitempty"`
	Version     int64                 `json:"version"`
}

func profileToDTO(p domain.Profile) profileDTO {
	return profileDTO{
		ID:          p.ID,
		Timezone:    p.Timezone,
		Autonomy:    string(p.Autonomy),
		WorkWindows: p.WorkWindows,
		Lunch:       p.Lunch,
		DeepWork:    p.DeepWork,
		Version:     p.Version,
	}
}

type syncStatusDTO struct {
	Connected           bool       `json:"connected"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastThrottleAt      *time.Time `json:"last_throttle_at,omitempty"`
	RecentThrottleCount int        `json:"recent_throttle_count"`
}

func syncStatusToDTO(s domain.SyncStatus) syncStatusDTO {
	return syncStatusDTO{
		Connected:           s.Connected,
		LastSuccessAt:       s.LastSuccessAt,
		LastThrottleAt:      s.LastThrottleAt,
		RecentThrottleCount: s.RecentThrottleCount,
	}
}

type eventDTO struct {
	Type   string         `json:"type"`
	Detail map[string]any `json:"detail,omitempty"`
}
