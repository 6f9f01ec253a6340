package httpapi

import (
	"fmt"
	"net/http"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/planner"
	"github.com/hawlion/ai-planner/internal/service"
)

type chatTurnDTO struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type assistantChatRequest struct {
	Message string        `json:"message"`
	History []chatTurnDTO `json:"history"`
}

type assistantChatResponse struct {
	Reply   string     `json:"reply"`
	Actions []eventDTO `json:"actions,omitempty"`
	Refresh []string   `json:"refresh,omitempty"`
}

// handleAssistantChat is a thin wire adapter over ChatService.Chat — all
// intent classification, clarification, and approval-replay logic lives
// there, shared with the chat_pending_action / action_item flows approvals.go
// also resolves.
func (s *Server) handleAssistantChat(w http.ResponseWriter, r *http.Request) {
	var req assistantChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: message required", domain.ErrValidation))
		return
	}
	history := make([]planner.ChatTurn, 0, len(req.History))
	for _, h := range req.History {
		history = append(history, planner.ChatTurn{Role: h.Role, Text: h.Text})
	}

	resp, err := s.Chat.Chat(r.Context(), service.ChatRequest{Message: req.Message, History: history})
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	out := assistantChatResponse{Reply: resp.Reply, Refresh: resp.Refresh}
	for _, a := range resp.Actions {
		out.Actions = append(out.Actions, eventDTO{Type: a.Type, Detail: a.Detail})
	}
	s.pushRefresh(resp.Refresh...)
	writeJSON(w, http.StatusOK, out)
}
