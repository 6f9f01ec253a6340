package httpapi

import (
	"fmt"
	"net/http"

	"github.com/hawlion/ai-planner/internal/approval"
	"github.com/hawlion/ai-planner/internal/domain"
)

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	pending, err := s.Approvals.ListPending(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]approvalDTO, 0, len(pending))
	for _, a := range pending {
		out = append(out, approvalToDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

type resolveApprovalRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// handleResolveApproval mirrors chatService.resolvePendingApprovalByChat's
// approve-path dispatch for action_item and reschedule requests, since both
// surfaces commit the same underlying candidate/proposal on approval; a
// reject just flips the state machine without touching the payload target.
func (s *Server) handleResolveApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	pending, err := s.Approvals.Get(ctx, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if pending == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("approval not found"))
		return
	}
	if !pending.Pending() {
		writeError(w, http.StatusConflict, fmt.Errorf("%w: approval is not pending", domain.ErrConflict))
		return
	}

	var req resolveApprovalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "resolved_via_api"
	}

	if !req.Approve {
		resolved, err := approval.Reject(ctx, s.Approvals, id, reason)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		s.pushRefresh("approvals")
		writeJSON(w, http.StatusOK, approvalToDTO(*resolved))
		return
	}

	switch pending.Type {
	case domain.ApprovalActionItem:
		s.resolveActionItemApproval(w, r, pending, reason)
	case domain.ApprovalReschedule:
		s.resolveRescheduleApproval(w, r, pending, reason)
	default:
		resolved, err := approval.Approve(ctx, s.Approvals, id, reason)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		s.pushRefresh("approvals")
		writeJSON(w, http.StatusOK, approvalToDTO(*resolved))
	}
}

func (s *Server) resolveActionItemApproval(w http.ResponseWriter, r *http.Request, pending *domain.ApprovalRequest, reason string) {
	ctx := r.Context()
	candidate, err := s.Candidates.Get(ctx, pending.Payload.CandidateID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if candidate == nil || candidate.Status != domain.CandidatePending {
		writeError(w, http.StatusConflict, fmt.Errorf("%w: candidate is no longer pending", domain.ErrConflict))
		return
	}
	_, blocks, err := s.Executor.ApproveCandidate(ctx, candidate)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.Executor.MirrorBlocks(ctx, blocks)
	resolved, err := approval.Approve(ctx, s.Approvals, pending.ID, reason)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.pushRefresh("approvals", "tasks", "calendar")
	writeJSON(w, http.StatusOK, approvalToDTO(*resolved))
}

func (s *Server) resolveRescheduleApproval(w http.ResponseWriter, r *http.Request, pending *domain.ApprovalRequest, reason string) {
	ctx := r.Context()
	proposal, err := s.Proposals.Get(ctx, pending.Payload.ProposalID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if proposal == nil || proposal.Status != domain.ProposalDraft {
		writeError(w, http.StatusConflict, fmt.Errorf("%w: proposal is no longer a draft", domain.ErrConflict))
		return
	}
	if _, _, err := s.Executor.ApplyApprovedProposal(ctx, proposal); err != nil {
		writeDomainErr(w, err)
		return
	}
	resolved, err := approval.Approve(ctx, s.Approvals, pending.ID, reason)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.pushRefresh("approvals", "calendar")
	writeJSON(w, http.StatusOK, approvalToDTO(*resolved))
}
