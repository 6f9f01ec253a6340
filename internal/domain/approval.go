package domain

import "time"

// ApprovalPayload is the sum type of the small, typed subset of payloads the
// core actually reads; everything else is opaque passthrough in storage.
type ApprovalPayload struct {
	// action_item
	CandidateID string `json:"candidate_id,omitempty"`

	// reschedule
	ProposalID string `json:"proposal_id,omitempty"`

	// chat_pending_action
	Action        *PlannedActionPayload `json:"action,omitempty"`
	SourceMessage string                `json:"source_message,omitempty"`

	// chat_clarification
	Question        string `json:"question,omitempty"`
	OriginalMessage string `json:"original_message,omitempty"`

	// other
	ErrorText string `json:"error_text,omitempty"`
}

// PlannedActionPayload is a serializable snapshot of a planner Action,
// stored inside a chat_pending_action approval so it can be replayed when
// the user later confirms.
type PlannedActionPayload struct {
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields"`
}

// ApprovalRequest gates a destructive/ambiguous change behind human sign-off.
type ApprovalRequest struct {
	ID         string
	Type       ApprovalType
	Status     ApprovalStatus
	Payload    ApprovalPayload
	Reason     string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// Pending reports status==pending <=> resolved_at is null.
func (a ApprovalRequest) Pending() bool {
	return a.Status == ApprovalPending && a.ResolvedAt == nil
}
