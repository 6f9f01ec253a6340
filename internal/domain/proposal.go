package domain

import "time"

// SchedulingChange is one unit of a proposal: currently only create_block.
type SchedulingChange struct {
	ID         string
	ProposalID string
	Kind       ChangeKind
	BlockType  BlockType
	Title      string
	Start      time.Time
	End        time.Time
	TaskID     *string
}

// SchedulingProposal owns an ordered list of changes produced by one
// Scheduler strategy run over a horizon.
type SchedulingProposal struct {
	ID              string
	Strategy        Strategy
	Status          ProposalStatus
	HorizonStart    time.Time
	HorizonEnd      time.Time
	Changes         []SchedulingChange
	Explanation     string
	LatenessMinutes float64
	DeepWorkMinutes float64
	ChangesCount    int
	ObjectiveValue  float64
	CreatedAt       time.Time
}

// SyncStatus is the single persisted row guarding the mirror's global state.
type SyncStatus struct {
	ID                  string
	Connected           bool
	LastSuccessAt       *time.Time
	LastThrottleAt      *time.Time
	RecentThrottleCount int
}

// AuditEntry is an append-only record of every Executor-dispatched action
// and every ApprovalStateMachine transition.
type AuditEntry struct {
	ID        string
	Action    string
	Actor     string // "user" or "assistant"
	ObjectRef string
	Meta      map[string]any
	CreatedAt time.Time
}
