package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hawlion/ai-planner/internal/domain"
)

var validBlockTypes = map[domain.BlockType]bool{
	domain.BlockTaskBlock: true, domain.BlockFocusBlock: true, domain.BlockBuffer: true,
	domain.BlockPersonal: true, domain.BlockOther: true,
}

func (s *Server) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseHorizonQuery(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	blocks, err := s.Blocks.BlocksIntersectingHorizon(r.Context(), start, end)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]blockDTO, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, blockToDTO(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func parseHorizonQuery(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start, end := now.AddDate(0, 0, -1), now.AddDate(0, 0, 14)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from: %w", err)
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to: %w", err)
		}
		end = parsed
	}
	return start, end, nil
}

// checkOverlap re-validates the no-two-aawo-blocks-overlap invariant inside
// the same call that would commit the block — the authoritative recheck
// spec.md requires, ProposalApplier's advisory pre-check aside. A block that
// is itself external, or that only overlaps external blocks, never conflicts
// (external blocks are read-only incoming commitments the scheduler avoids
// but cannot itself enforce exclusivity over).
func (s *Server) checkOverlap(r *http.Request, candidate domain.CalendarBlock, excludeID string) error {
	if candidate.IsExternal() {
		return nil
	}
	live, err := s.Blocks.BlocksIntersectingHorizon(r.Context(), candidate.Start, candidate.End)
	if err != nil {
		return err
	}
	for _, other := range live {
		if other.ID == excludeID || other.IsExternal() {
			continue
		}
		if candidate.Overlaps(other) {
			return fmt.Errorf("%w: overlaps existing block %s", domain.ErrConflict, other.ID)
		}
	}
	return nil
}

func (s *Server) handleCreateBlock(w http.ResponseWriter, r *http.Request) {
	var req createBlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	blockType := domain.BlockType(req.Type)
	if !validBlockTypes[blockType] {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: invalid block type %q", domain.ErrValidation, req.Type))
		return
	}
	candidate := domain.CalendarBlock{
		ID:     uuid.NewString(),
		Type:   blockType,
		Title:  req.Title,
		Start:  req.Start,
		End:    req.End,
		TaskID: req.TaskID,
		Locked: req.Locked,
		Source: domain.BlockSourceAawo,
	}
	if !candidate.Valid() {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: end must be after start", domain.ErrValidation))
		return
	}
	if err := s.checkOverlap(r, candidate, ""); err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.Blocks.CreateBlock(r.Context(), candidate); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.pushRefresh("calendar")
	writeJSON(w, http.StatusCreated, blockToDTO(candidate))
}

func (s *Server) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	existing, found, err := s.findBlock(r, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("block not found"))
		return
	}

	var req updateBlockRequest
	if decodeErr := decodeJSON(r, &req); decodeErr != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", domain.ErrValidation, decodeErr))
		return
	}
	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Start != nil {
		existing.Start = *req.Start
	}
	if req.End != nil {
		existing.End = *req.End
	}
	if req.Locked != nil {
		existing.Locked = *req.Locked
	}
	if !existing.Valid() {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: end must be after start", domain.ErrValidation))
		return
	}
	if err := s.checkOverlap(r, existing, existing.ID); err != nil {
		writeDomainErr(w, err)
		return
	}
	existing.Version++
	if err := s.Blocks.UpdateBlock(r.Context(), existing); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.pushRefresh("calendar")
	writeJSON(w, http.StatusOK, blockToDTO(existing))
}

// findBlock looks a block up by id via the horizon-scoped listing, since
// CalendarBlockRepo exposes no direct Get — every block lookup a handler
// needs falls inside some bounded window of "now".
func (s *Server) findBlock(r *http.Request, id string) (domain.CalendarBlock, bool, error) {
	wide := time.Now().UTC()
	blocks, err := s.Blocks.BlocksIntersectingHorizon(r.Context(), wide.AddDate(-1, 0, 0), wide.AddDate(1, 0, 0))
	if err != nil {
		return domain.CalendarBlock{}, false, err
	}
	for _, b := range blocks {
		if b.ID == id {
			return b, true, nil
		}
	}
	return domain.CalendarBlock{}, false, nil
}

func (s *Server) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	if err := s.Blocks.Delete(r.Context(), pathID(r)); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.pushRefresh("calendar")
	w.WriteHeader(http.StatusNoContent)
}
