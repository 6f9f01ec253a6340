package domain

import "time"

const (
	MinEffortMinutes = 15
	MaxEffortMinutes = 480
)

// Task is a to-do item with an optional deadline and calendar effort.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      TaskStatus
	Priority    Priority
	Due         *time.Time
	EffortMin   int
	ProjectID   *string
	Origin      TaskOrigin
	SourceRef   *string // e.g. meeting id when Origin==meeting
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClampEffort clamps minutes into the [MinEffortMinutes, MaxEffortMinutes] range.
func ClampEffort(minutes int) int {
	if minutes < MinEffortMinutes {
		return MinEffortMinutes
	}
	if minutes > MaxEffortMinutes {
		return MaxEffortMinutes
	}
	return minutes
}

// allowedTaskTransitions encodes the DAG: status transitions terminate at
// {done, canceled} and never resume from there.
var allowedTaskTransitions = map[TaskStatus]map[TaskStatus]bool{
	TaskTodo:       {TaskInProgress: true, TaskBlocked: true, TaskDone: true, TaskCanceled: true},
	TaskInProgress: {TaskTodo: true, TaskBlocked: true, TaskDone: true, TaskCanceled: true},
	TaskBlocked:    {TaskTodo: true, TaskInProgress: true, TaskCanceled: true},
	TaskDone:       {},
	TaskCanceled:   {},
}

// CanTransition reports whether from->to is a legal status transition.
func CanTransition(from, to TaskStatus) bool {
	if from == to {
		return true
	}
	next, ok := allowedTaskTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// StatusRank orders statuses for delete_duplicate_tasks keeper selection;
// higher is "more advanced / worth keeping".
func (s TaskStatus) StatusRank() int {
	switch s {
	case TaskDone:
		return 3
	case TaskInProgress:
		return 2
	case TaskBlocked:
		return 1
	case TaskTodo:
		return 0
	default:
		return -1
	}
}
