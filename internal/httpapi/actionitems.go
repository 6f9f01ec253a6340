package httpapi

import (
	"fmt"
	"net/http"

	"github.com/hawlion/ai-planner/internal/domain"
)

// handleApproveActionItem commits a pending candidate straight to a task,
// the same path ApproveCandidate takes when an approval request resolves
// approved — this endpoint exists for candidates a client lists directly
// off GET /meetings/{id} without ever going through the approvals queue.
func (s *Server) handleApproveActionItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidate, err := s.Candidates.Get(ctx, pathID(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if candidate == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("candidate not found"))
		return
	}
	if candidate.Status != domain.CandidatePending {
		writeError(w, http.StatusConflict, fmt.Errorf("%w: candidate is no longer pending", domain.ErrConflict))
		return
	}
	task, blocks, err := s.Executor.ApproveCandidate(ctx, candidate)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.Executor.MirrorBlocks(ctx, blocks)
	s.pushRefresh("tasks", "calendar")
	writeJSON(w, http.StatusOK, taskToDTO(*task))
}

func (s *Server) handleRejectActionItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidate, err := s.Candidates.Get(ctx, pathID(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if candidate == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("candidate not found"))
		return
	}
	if candidate.Status != domain.CandidatePending {
		writeError(w, http.StatusConflict, fmt.Errorf("%w: candidate is no longer pending", domain.ErrConflict))
		return
	}
	if err := s.Candidates.UpdateStatus(ctx, candidate.ID, domain.CandidateRejected); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
