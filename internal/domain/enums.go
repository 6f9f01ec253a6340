package domain

type AutonomyLevel string

const (
	AutonomyL0 AutonomyLevel = "L0"
	AutonomyL1 AutonomyLevel = "L1"
	AutonomyL2 AutonomyLevel = "L2"
	AutonomyL3 AutonomyLevel = "L3"
	AutonomyL4 AutonomyLevel = "L4"
)

// RequiresApproval reports whether destructive/reschedule actions taken under
// this autonomy level must first pass through the ApprovalStateMachine.
func (a AutonomyLevel) RequiresApproval() bool {
	switch a {
	case AutonomyL0, AutonomyL1, AutonomyL2:
		return true
	default:
		return false
	}
}

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
	TaskCanceled   TaskStatus = "canceled"
)

// Terminal reports whether the status is a DAG sink; no further transitions
// should be applied by planner handlers once reached.
func (s TaskStatus) Terminal() bool {
	return s == TaskDone || s == TaskCanceled
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank orders priorities for tie-breaking; higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 0
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

type TaskOrigin string

const (
	OriginManual   TaskOrigin = "manual"
	OriginMeeting  TaskOrigin = "meeting"
	OriginChat     TaskOrigin = "chat"
	OriginExternal TaskOrigin = "external"
)

type BlockType string

const (
	BlockTaskBlock  BlockType = "task_block"
	BlockFocusBlock BlockType = "focus_block"
	BlockBuffer     BlockType = "buffer"
	BlockPersonal   BlockType = "personal"
	BlockOther      BlockType = "other"
)

type BlockSource string

const (
	BlockSourceAawo     BlockSource = "aawo"
	BlockSourceExternal BlockSource = "external"
)

type MeetingExtractionStatus string

const (
	ExtractionPending   MeetingExtractionStatus = "pending"
	ExtractionCompleted MeetingExtractionStatus = "completed"
	ExtractionFailed    MeetingExtractionStatus = "failed"
)

type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateApproved CandidateStatus = "approved"
	CandidateRejected CandidateStatus = "rejected"
)

type ApprovalType string

const (
	ApprovalActionItem        ApprovalType = "action_item"
	ApprovalReschedule        ApprovalType = "reschedule"
	ApprovalChatPendingAction ApprovalType = "chat_pending_action"
	ApprovalChatClarification ApprovalType = "chat_clarification"
	ApprovalOther             ApprovalType = "other"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type ProposalStatus string

const (
	ProposalDraft    ProposalStatus = "draft"
	ProposalApplied  ProposalStatus = "applied"
	ProposalRejected ProposalStatus = "rejected"
)

type ChangeKind string

const (
	ChangeCreateBlock ChangeKind = "create_block"
)

// Strategy is one of the three named proposal-generation strategies.
type Strategy string

const (
	StrategyStable Strategy = "stable"
	StrategyUrgent Strategy = "urgent"
	StrategyFocus  Strategy = "focus"
)

// DefaultStrategyOrder is the ordered set Scheduler truncates to max_proposals.
var DefaultStrategyOrder = []Strategy{StrategyStable, StrategyUrgent, StrategyFocus}
