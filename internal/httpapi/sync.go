package httpapi

import "net/http"

// handleSyncStatus reports the stored mirror sync row plus a live connected
// check when a Mirror is wired, since the stored row can lag a credential
// change until the next push attempt refreshes it.
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := s.Sync.Get(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	dto := syncStatusDTO{}
	if status != nil {
		dto = syncStatusToDTO(*status)
	}
	if s.Mirror != nil {
		dto.Connected = s.Mirror.IsConnected(ctx)
	}
	writeJSON(w, http.StatusOK, dto)
}
