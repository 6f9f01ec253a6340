package httpapi

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/hawlion/ai-planner/internal/domain"
)

var allTaskStatuses = []domain.TaskStatus{
	domain.TaskTodo, domain.TaskInProgress, domain.TaskDone, domain.TaskBlocked, domain.TaskCanceled,
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	statuses := allTaskStatuses
	if raw := r.URL.Query().Get("status"); raw != "" {
		statuses = []domain.TaskStatus{domain.TaskStatus(raw)}
	}
	tasks, err := s.Tasks.ListByStatus(r.Context(), statuses)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]taskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: title required", domain.ErrValidation))
		return
	}
	priority := domain.Priority(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: invalid priority %q", domain.ErrValidation, req.Priority))
		return
	}
	effort := req.EffortMin
	if effort == 0 {
		effort = 60
	}
	if effort < domain.MinEffortMinutes || effort > domain.MaxEffortMinutes {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: effort_minutes out of [%d,%d]", domain.ErrValidation, domain.MinEffortMinutes, domain.MaxEffortMinutes))
		return
	}

	now := s.now()
	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskTodo,
		Priority:    priority,
		Due:         req.Due,
		EffortMin:   effort,
		ProjectID:   req.ProjectID,
		Origin:      domain.OriginManual,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Tasks.Create(r.Context(), task); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.pushRefresh("tasks")
	writeJSON(w, http.StatusCreated, taskToDTO(*task))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.Tasks.Get(r.Context(), pathID(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("task not found"))
		return
	}
	writeJSON(w, http.StatusOK, taskToDTO(*task))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	task, err := s.Tasks.Get(ctx, pathID(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("task not found"))
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		next := domain.TaskStatus(*req.Status)
		if !domain.CanTransition(task.Status, next) {
			writeError(w, http.StatusConflict, fmt.Errorf("%w: %s -> %s is not a valid task transition", domain.ErrConflict, task.Status, next))
			return
		}
		task.Status = next
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		if !priority.Valid() {
			writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: invalid priority %q", domain.ErrValidation, *req.Priority))
			return
		}
		task.Priority = priority
	}
	if req.ClearDue {
		task.Due = nil
	} else if req.Due != nil {
		task.Due = req.Due
	}
	if req.EffortMin != nil {
		if *req.EffortMin < domain.MinEffortMinutes || *req.EffortMin > domain.MaxEffortMinutes {
			writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: effort_minutes out of [%d,%d]", domain.ErrValidation, domain.MinEffortMinutes, domain.MaxEffortMinutes))
			return
		}
		task.EffortMin = *req.EffortMin
	}
	if req.ProjectID != nil {
		task.ProjectID = req.ProjectID
	}

	task.Version++
	task.UpdatedAt = s.now()
	if err := s.Tasks.Update(ctx, task); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.pushRefresh("tasks")
	writeJSON(w, http.StatusOK, taskToDTO(*task))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)
	task, err := s.Tasks.Get(ctx, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if task == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if _, err := s.Blocks.DetachTask(ctx, id); err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.Tasks.Delete(ctx, id); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.pushRefresh("tasks", "calendar")
	w.WriteHeader(http.StatusNoContent)
}

// handleListProjects derives the distinct project ids tasks currently
// reference. This module's Data Model has no standalone Project entity —
// Task carries only an optional project link — so "projects" is a readonly
// view over that link, not a CRUD resource.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.Tasks.ListByStatus(r.Context(), allTaskStatuses)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	seen := map[string]bool{}
	var out []string
	for _, t := range tasks {
		if t.ProjectID == nil || *t.ProjectID == "" || seen[*t.ProjectID] {
			continue
		}
		seen[*t.ProjectID] = true
		out = append(out, *t.ProjectID)
	}
	writeJSON(w, http.StatusOK, out)
}
