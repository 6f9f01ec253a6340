package domain

import "time"

// TranscriptLine is one utterance in a meeting transcript.
type TranscriptLine struct {
	TsMs    int64
	Speaker string
	Text    string
}

// Meeting owns ActionItemCandidates (cascade delete).
type Meeting struct {
	ID               string
	Title            string
	StartedAt        time.Time
	EndedAt          *time.Time
	Summary          string
	Transcript       []TranscriptLine
	ExtractionStatus MeetingExtractionStatus
}

// ActionItemCandidate is a draft task surfaced by MeetingExtractor.
type ActionItemCandidate struct {
	ID            string
	MeetingID     string
	Title         string
	AssigneeName  *string
	Due           *time.Time
	EffortMin     int
	Confidence    float64
	Rationale     string
	Status        CandidateStatus
	LinkedTaskID  *string
}

// AutoApprovalThreshold: confidence>=0.75 and effort<240 permits the
// Executor to approve a candidate without human confirmation.
const (
	AutoApproveConfidence = 0.75
	AutoApproveMaxEffort  = 240
)

// EligibleForAutoApproval reports whether the candidate meets the threshold.
func (c ActionItemCandidate) EligibleForAutoApproval() bool {
	return c.Confidence >= AutoApproveConfidence && c.EffortMin < AutoApproveMaxEffort
}
