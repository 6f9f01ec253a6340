package httpapi

import (
	"fmt"
	"net/http"

	"github.com/hawlion/ai-planner/internal/domain"
)

var validAutonomyLevels = map[domain.AutonomyLevel]bool{
	domain.AutonomyL0: true, domain.AutonomyL1: true, domain.AutonomyL2: true,
	domain.AutonomyL3: true, domain.AutonomyL4: true,
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.Profiles.Get(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("profile not configured"))
		return
	}
	writeJSON(w, http.StatusOK, profileToDTO(*profile))
}

type putProfileRequest struct {
	Timezone    string                  `json:"timezone"`
	Autonomy    string                  `json:"autonomy"`
	WorkWindows []domain.WorkWindow     `json:"work_windows"`
	Lunch       []domain.LunchWindow    `json:"lunch"`
	DeepWork    []domain.DeepWorkWindow `json:"deep_work"`
}

// handlePutProfile upserts the singleton profile row wholesale; the
// assistant/scheduler both read the stored profile on every request, so a
// partial PATCH semantic would leave callers guessing which fields survive.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req putProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	if req.Timezone == "" {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: timezone required", domain.ErrValidation))
		return
	}
	autonomy := domain.AutonomyLevel(req.Autonomy)
	if autonomy == "" {
		autonomy = domain.AutonomyL2
	}
	if !validAutonomyLevels[autonomy] {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: invalid autonomy %q", domain.ErrValidation, req.Autonomy))
		return
	}
	for _, win := range req.WorkWindows {
		if win.Weekday < 0 || win.Weekday > 6 || win.StartMin < 0 || win.EndMin > 1440 || win.EndMin <= win.StartMin {
			writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: invalid work window for weekday %d", domain.ErrValidation, win.Weekday))
			return
		}
	}

	existing, err := s.Profiles.Get(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	profile := domain.Profile{
		ID:          "default",
		Timezone:    req.Timezone,
		Autonomy:    autonomy,
		WorkWindows: req.WorkWindows,
		Lunch:       req.Lunch,
		DeepWork:    req.DeepWork,
		Version:     1,
	}
	if existing != nil {
		profile.ID = existing.ID
		profile.Version = existing.Version + 1
	}
	if err := s.Profiles.Upsert(ctx, &profile); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.pushRefresh("profile")
	writeJSON(w, http.StatusOK, profileToDTO(profile))
}
