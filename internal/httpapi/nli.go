package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/planner"
)

type nliRequest struct {
	Text string `json:"text"`
}

type nliResponse struct {
	Intent    string         `json:"intent"`
	Extracted map[string]any `json:"extracted"`
	Note      string         `json:"note"`
}

// handleNLICommand is a simplified rule-based intent parser distinct from
// /assistant/chat's full ChatService: it recognizes create_task and
// reschedule_request hints and otherwise reports unknown, mirroring
// _fallback_nli_parse/command's keyword cascade.
func (s *Server) handleNLICommand(w http.ResponseWriter, r *http.Request) {
	var req nliRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: text required", domain.ErrValidation))
		return
	}

	now := s.now()

	if containsAny(text, "추가", "만들", "등록") || strings.Contains(strings.ToLower(text), "create task") {
		title := text
		for _, token := range []string{"할일", "작업", "task", "추가", "만들어줘", "만들기", "등록", ":"} {
			title = strings.ReplaceAll(title, token, "")
		}
		title = strings.TrimSpace(title)
		if title == "" {
			title = "새 작업"
		}

		var due *time.Time
		if d, ok := planner.ParseDue(text, text, time.UTC, now); ok {
			due = &d
		}

		task := &domain.Task{
			ID:        uuid.NewString(),
			Title:     title,
			Due:       due,
			EffortMin: 60,
			Priority:  domain.PriorityMedium,
			Status:    domain.TaskTodo,
			Origin:    domain.OriginChat,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.Tasks.Create(r.Context(), task); err != nil {
			writeDomainErr(w, err)
			return
		}
		s.pushRefresh("tasks")
		writeJSON(w, http.StatusOK, nliResponse{
			Intent: "create_task",
			Extracted: map[string]any{
				"task_id": task.ID,
				"title":   task.Title,
				"due":     task.Due,
			},
			Note: "자연어 요청을 작업 생성으로 적용했습니다.",
		})
		return
	}

	if containsAny(text, "오늘", "내일", "다음 주", "오후", "오전") {
		writeJSON(w, http.StatusOK, nliResponse{
			Intent: "reschedule_request",
			Extracted: map[string]any{
				"time_hint": text,
				"window": map[string]any{
					"from": now,
					"to":   now.AddDate(0, 0, 2),
				},
			},
			Note: "시간 조정 요청으로 해석했습니다. /scheduling/proposals API를 호출해 제안을 받으세요.",
		})
		return
	}

	writeJSON(w, http.StatusOK, nliResponse{
		Intent:    "unknown",
		Extracted: map[string]any{"raw": text},
		Note:      "명확한 의도를 찾지 못했습니다. 예: '내일 오전에 보고서 작성 작업 추가해줘'",
	})
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
