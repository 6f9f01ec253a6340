package service

import "context"

// ChatService turns a free-text chat turn into dispatched actions: quick-
// rule and LLM-backed intent classification, clarification gating,
// confirmation-queued dispatch, and resolution of a pending approval by
// chat affirmation/negation.
type ChatService interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
