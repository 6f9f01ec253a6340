package service

import (
	"github.com/hawlion/ai-planner/internal/executor"
	"github.com/hawlion/ai-planner/internal/planner"
)

// ChatRequest is one turn of the assistant chat: the new message plus
// whatever prior turns the caller is keeping around for context.
type ChatRequest struct {
	Message string
	History []planner.ChatTurn
}

// ChatResponse mirrors Executor.Result for a whole turn, which may fold
// several dispatched actions (or none, if a clarification was queued
// instead) into one reply.
type ChatResponse struct {
	Reply   string
	Actions []executor.Event
	Refresh []string
}
