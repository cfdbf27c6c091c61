package server

import (
	"net/http"

	"github.com/brandloom/agentforge/pkg/apperr"
)

type memoryDeleteRequest struct {
	UserID   string `json:"userId"`
	BrandID  string `json:"brandId"`
	MemoryID string `json:"memoryId"`
	Type     string `json:"type"`
}

// handleMemoryDelete implements POST /memory/delete (spec §6):
// deletes a memory fact by its shared factId/remoteId tail.
func (s *Server) handleMemoryDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req memoryDeleteRequest
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" || req.MemoryID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId and memoryId are required"})
		return
	}
	if s.deps.Memory == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}
	if err := s.deps.Memory.Delete(r.Context(), req.BrandID, req.UserID, req.MemoryID); err != nil {
		// Local deletion is authoritative for user-visible state; a
		// dangling remote (local gone, remote delete failed) still
		// reports success so a delete call is idempotent from the
		// caller's perspective (spec §4.6, §8).
		if apperr.KindOf(err) != apperr.KindDangling {
			writeAppError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
