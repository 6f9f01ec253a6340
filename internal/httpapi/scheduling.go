package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/scheduler"
	"github.com/hawlion/ai-planner/internal/timealgebra"
)

type generateProposalsRequest struct {
	From         *time.Time `json:"from"`
	To           *time.Time `json:"to"`
	SlotMinutes  int        `json:"slot_minutes"`
	MaxProposals int        `json:"max_proposals"`
}

// handleGenerateProposals runs the default strategies over the requested
// horizon and persists the resulting drafts, one per strategy. As in
// scheduler.GenerateProposals, the strategy list is truncated to
// max_proposals (clamped to 1-5), so an omitted value yields one proposal.
func (s *Server) handleGenerateProposals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req generateProposalsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	now := s.now()
	horizon := timealgebra.Interval{Start: now, End: now.AddDate(0, 0, 14)}
	if req.From != nil {
		horizon.Start = *req.From
	}
	if req.To != nil {
		horizon.End = *req.To
	}
	if !horizon.Start.Before(horizon.End) {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: from must be before to", domain.ErrValidation))
		return
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

	tasks, err := s.Tasks.ListByStatus(ctx, []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress, domain.TaskBlocked})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	existing, err := s.Blocks.BlocksIntersectingHorizon(ctx, horizon.Start, horizon.End)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	proposals := scheduler.GenerateProposals(profile, horizon, tasks, existing, req.SlotMinutes, req.MaxProposals)
	out := make([]proposalDTO, 0, len(proposals))
	for i := range proposals {
		if err := s.Proposals.Create(ctx, &proposals[i]); err != nil {
			writeDomainErr(w, err)
			return
		}
		out = append(out, proposalToDTO(proposals[i]))
	}
	if s.Metrics != nil {
		s.Metrics.ObserveProposalsGenerated(len(proposals))
	}
	writeJSON(w, http.StatusCreated, out)
}

// handleApplyProposal re-checks and commits a draft proposal's changes,
// reusing Executor.ApplyApprovedProposal so the scheduling-direct path and
// the approvals-queue reschedule path share one commit routine.
func (s *Server) handleApplyProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proposal, err := s.Proposals.Get(ctx, pathID(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if proposal == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("proposal not found"))
		return
	}
	if proposal.Status != domain.ProposalDraft {
		writeError(w, http.StatusConflict, fmt.Errorf("%w: proposal is not a draft", domain.ErrConflict))
		return
	}
	created, synced, err := s.Executor.ApplyApprovedProposal(ctx, proposal)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.pushRefresh("calendar")
	writeJSON(w, http.StatusOK, map[string]any{
		"created_blocks": len(created),
		"synced_blocks":  synced,
	})
}
