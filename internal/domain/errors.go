package domain

import "errors"

// ErrValidation marks a semantic validation failure: bad enum, an inverted
// interval (end<=start), effort outside [MinEffortMinutes, MaxEffortMinutes].
// Callers wrap it with fmt.Errorf("%w: ...") for the specific complaint.
var ErrValidation = errors.New("validation error")

// ErrConflict marks an invariant violation on a write: a calendar overlap,
// applying a non-draft proposal, resolving a non-pending approval.
var ErrConflict = errors.New("conflict")
