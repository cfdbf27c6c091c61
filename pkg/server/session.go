package server

import (
	"net/http"
	"strings"

	"github.com/brandloom/agentforge/pkg/tenant"
)

type sessionKeyRequest struct {
	BrandID string `json:"brandId"`
	UserID  string `json:"userId"`
}

// handleSessionDelete implements POST /session/delete (spec §6).
func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req sessionKeyRequest
	if err := decodeJSON(r, &req); err != nil || req.BrandID == "" || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "brandId and userId are required"})
		return
	}
	if err := s.deps.Sessions.Delete(r.Context(), tenant.Key(req.BrandID, req.UserID)); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleSessionDeleteLast implements POST /session/delete-last
// (spec §6): removes the trailing user-initiated turn.
func (s *Server) handleSessionDeleteLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req sessionKeyRequest
	if err := decodeJSON(r, &req); err != nil || req.BrandID == "" || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "brandId and userId are required"})
		return
	}
	if err := s.deps.Sessions.DeleteLast(r.Context(), tenant.Key(req.BrandID, req.UserID)); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleSessionStats implements GET /session/stats/{brandId}/{userId}
// (spec §6).
func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	brandID, userID, ok := pathPair(r.URL.Path, "/session/stats/")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected /session/stats/{brandId}/{userId}"})
		return
	}
	stats, err := s.deps.Sessions.Stats(r.Context(), tenant.Key(brandID, userID), s.deps.Counter)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// pathPair splits the two path segments following prefix, used by
// the {brandId}/{userId} path-parameter routes spec §6 defines (this
// predates Go 1.22's http.ServeMux path variables in the teacher's
// own mux construction, so it's done by hand here too).
func pathPair(path, prefix string) (a, b string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
