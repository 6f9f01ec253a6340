// Package approval implements the ApprovalStateMachine: pending/approved/
// rejected tracking for the four approval kinds, resolved via explicit
// endpoints or chat affirmations.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hawlion/ai-planner/internal/domain"
)

// ErrNotPending is returned when resolving a request that is not pending.
var ErrNotPending = errors.New("approval request is not pending")

// Store is the persistence surface the state machine needs.
type Store interface {
	Get(ctx context.Context, id string) (*domain.ApprovalRequest, error)
	Update(ctx context.Context, req *domain.ApprovalRequest) error
	// LatestPending returns the most recently created pending request of the
	// given type, ordered by creation time descending, or nil if none.
	LatestPending(ctx context.Context, t domain.ApprovalType) (*domain.ApprovalRequest, error)
}

// Approve resolves a pending request with status=approved.
func Approve(ctx context.Context, store Store, id, reason string) (*domain.ApprovalRequest, error) {
	return resolve(ctx, store, id, domain.ApprovalApproved, reason)
}

// Reject resolves a pending request with status=rejected.
func Reject(ctx context.Context, store Store, id, reason string) (*domain.ApprovalRequest, error) {
	return resolve(ctx, store, id, domain.ApprovalRejected, reason)
}

func resolve(ctx context.Context, store Store, id string, status domain.ApprovalStatus, reason string) (*domain.ApprovalRequest, error) {
	req, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve approval %s: %w", id, err)
	}
	if !req.Pending() {
		return nil, fmt.Errorf("resolve approval %s: %w", id, ErrNotPending)
	}
	now := time.Now().UTC()
	req.Status = status
	req.ResolvedAt = &now
	req.Reason = reason
	if err := store.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("resolve approval %s: %w", id, err)
	}
	return req, nil
}

// ResolveLatestByChat finds the latest pending request of the given
// approvable type and resolves it per the user's affirmative/negative
// message. Returns nil, nil if no such pending request exists.
func ResolveLatestByChat(ctx context.Context, store Store, t domain.ApprovalType, affirmative bool, reason string) (*domain.ApprovalRequest, error) {
	req, err := store.LatestPending(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("resolve latest %s by chat: %w", t, err)
	}
	if req == nil {
		return nil, nil
	}
	status := domain.ApprovalRejected
	if affirmative {
		status = domain.ApprovalApproved
	}
	return resolve(ctx, store, req.ID, status, reason)
}

// LatestPendingAmong returns the most recently created pending request
// whose type is in types — the chat layer's one pending "thing to resolve"
// across several approvable kinds (chat_pending_action, reschedule,
// action_item) at once. Ties are broken in favour of the type checked
// first; CreatedAt in practice never ties in SQLite-backed storage.
func LatestPendingAmong(ctx context.Context, store Store, types []domain.ApprovalType) (*domain.ApprovalRequest, error) {
	var latest *domain.ApprovalRequest
	for _, t := range types {
		req, err := store.LatestPending(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("latest pending among %v: %w", types, err)
		}
		if req == nil {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	return latest, nil
}

// SupersedeClarification auto-rejects a pending chat_clarification when a
// new message parses to at least one concrete non-unknown action.
func SupersedeClarification(ctx context.Context, store Store) (*domain.ApprovalRequest, error) {
	req, err := store.LatestPending(ctx, domain.ApprovalChatClarification)
	if err != nil {
		return nil, fmt.Errorf("supersede clarification: %w", err)
	}
	if req == nil {
		return nil, nil
	}
	return resolve(ctx, store, req.ID, domain.ApprovalRejected, "clarification_superseded_by_new_command")
}
