package httpapi

import "net/http"

type graphStatusDTO struct {
	Configured bool `json:"configured"`
	Connected  bool `json:"connected"`
}

// handleGraphStatus reports whether a calendar-mirror provider is wired and
// currently reachable. OAuth connect/refresh flows are out of scope here —
// this endpoint only asks the wired Mirror whether it is connected.
func (s *Server) handleGraphStatus(w http.ResponseWriter, r *http.Request) {
	dto := graphStatusDTO{Configured: s.Mirror != nil}
	if s.Mirror != nil {
		dto.Connected = s.Mirror.IsConnected(r.Context())
	}
	writeJSON(w, http.StatusOK, dto)
}
