package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/meetingextract"
	"github.com/hawlion/ai-planner/internal/planner"
)

type createMeetingRequest struct {
	Title      string                  `json:"title"`
	StartedAt  time.Time               `json:"started_at"`
	EndedAt    *time.Time              `json:"ended_at"`
	Summary    string                  `json:"summary"`
	Transcript []domain.TranscriptLine `json:"transcript"`
}

// handleCreateMeeting persists the meeting immediately and returns 202;
// action-item extraction runs on a separate goroutine against a background
// context so ingestion never blocks the HTTP response, per spec.md's
// concurrency model for meeting ingestion.
func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req createMeetingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: title required", domain.ErrValidation))
		return
	}

	meeting := &domain.Meeting{
		ID:               uuid.NewString(),
		Title:            req.Title,
		StartedAt:        req.StartedAt,
		EndedAt:          req.EndedAt,
		Summary:          req.Summary,
		Transcript:       req.Transcript,
		ExtractionStatus: domain.ExtractionPending,
	}
	if err := s.Meetings.Create(r.Context(), meeting); err != nil {
		writeDomainErr(w, err)
		return
	}

	go s.extractMeeting(meeting.ID)

	writeJSON(w, http.StatusAccepted, meetingToDTO(*meeting, nil))
}

func (s *Server) extractMeeting(meetingID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	meeting, err := s.Meetings.Get(ctx, meetingID)
	if err != nil || meeting == nil {
		return
	}

	parseDue := func(hint string, base time.Time) *time.Time {
		if due, ok := planner.ParseDue(hint, hint, time.UTC, base); ok {
			return &due
		}
		return nil
	}

	now := s.now()
	drafts, err := s.primaryOrFallbackExtract(ctx, *meeting, now, parseDue)
	if err != nil {
		_ = s.Meetings.UpdateExtractionStatus(ctx, meetingID, domain.ExtractionFailed)
		approval := &domain.ApprovalRequest{
			ID:        uuid.NewString(),
			Type:      domain.ApprovalOther,
			Status:    domain.ApprovalPending,
			Payload:   domain.ApprovalPayload{ErrorText: err.Error()},
			Reason:    "meeting_extraction_failed",
			CreatedAt: now,
		}
		_ = s.Approvals.Create(ctx, approval)
		s.pushRefresh("approvals")
		return
	}

	var createdBlocks []domain.CalendarBlock
	for _, d := range drafts {
		candidate := &domain.ActionItemCandidate{
			ID:           uuid.NewString(),
			MeetingID:    meetingID,
			Title:        d.Title,
			AssigneeName: d.AssigneeName,
			Due:          d.Due,
			EffortMin:    d.EffortMin,
			Confidence:   d.Confidence,
			Rationale:    d.Rationale,
			Status:       domain.CandidatePending,
		}
		if err := s.Candidates.Create(ctx, candidate); err != nil {
			continue
		}
		if candidate.EligibleForAutoApproval() {
			if _, blocks, err := s.Executor.ApproveCandidate(ctx, candidate); err == nil {
				createdBlocks = append(createdBlocks, blocks...)
			}
			continue
		}
		_ = s.Approvals.Create(ctx, &domain.ApprovalRequest{
			ID:        uuid.NewString(),
			Type:      domain.ApprovalActionItem,
			Status:    domain.ApprovalPending,
			Payload:   domain.ApprovalPayload{CandidateID: candidate.ID},
			Reason:    "below_auto_approval_threshold",
			CreatedAt: now,
		})
	}

	if s.Mirror != nil && len(createdBlocks) > 0 {
		_, _ = s.Mirror.Mirror(ctx, createdBlocks)
	}

	_ = s.Meetings.UpdateExtractionStatus(ctx, meetingID, domain.ExtractionCompleted)
	s.pushRefresh("tasks", "calendar", "approvals")
}

// primaryOrFallbackExtract tries the LLM extractor and falls back to the
// deterministic keyword-hint pass for the standalone meeting-upload path.
// Executor.registerMeetingNote's chat path runs only the deterministic pass.
func (s *Server) primaryOrFallbackExtract(ctx context.Context, meeting domain.Meeting, now time.Time, parseDue func(string, time.Time) *time.Time) ([]meetingextract.Draft, error) {
	if s.LLM != nil && s.LLM.Available(ctx) {
		tz := s.Timezone
		if tz == "" {
			tz = "UTC"
		}
		if drafts, err := meetingextract.ExtractPrimary(ctx, s.LLM, meeting, now, tz, parseDue); err == nil {
			return drafts, nil
		}
	}
	return meetingextract.ExtractFallback(meeting, now, parseDue), nil
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	meeting, err := s.Meetings.Get(r.Context(), pathID(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if meeting == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("meeting not found"))
		return
	}
	candidates, err := s.Candidates.ListByMeeting(r.Context(), meeting.ID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meetingToDTO(*meeting, candidates))
}
