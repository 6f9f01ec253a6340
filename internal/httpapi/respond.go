// Package httpapi exposes the system's operations over HTTP: tasks,
// calendar blocks, meetings, action items, approvals, scheduling proposals,
// the daily briefing, sync status, the NLI/assistant chat endpoints, the
// profile, and a refresh-push websocket. Handlers are thin: validation and
// status-code mapping live here, behavior lives in the packages they call.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hawlion/ai-planner/internal/approval"
	"github.com/hawlion/ai-planner/internal/calendarmirror"
	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/repository"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":"encode response: %s"}`, err)
	}
}

type apiError struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, apiError{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// errStatus maps a domain/repository/approval/mirror error to the HTTP
// status spec.md's External Interfaces section assigns it: 404 for missing
// ids, 409 for invariant/state conflicts, 401/502 for mirror auth/API
// failures. Anything unrecognized is a 500.
func errStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, approval.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case isMirrorAuthError(err):
		return http.StatusUnauthorized
	case isMirrorAPIError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isMirrorAuthError(err error) bool {
	var authErr *calendarmirror.AuthError
	return errors.As(err, &authErr)
}

func isMirrorAPIError(err error) bool {
	var apiErr *calendarmirror.ApiError
	return errors.As(err, &apiErr)
}

func writeDomainErr(w http.ResponseWriter, err error) {
	writeError(w, errStatus(err), err)
}

func pathID(r *http.Request) string {
	return r.PathValue("id")
}
