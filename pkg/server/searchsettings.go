package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/brandloom/agentforge/pkg/jobtracker"
	"github.com/brandloom/agentforge/pkg/searchindex"
)

// handleSearchSettings dispatches the /search-settings/{brandId}/...
// routes of spec §6 by hand-parsing the path, matching the teacher's
// own handleAgentRoutes path-splitting discipline (pkg/server/http.go)
// rather than reaching for a newer mux pattern syntax.
func (s *Server) handleSearchSettings(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/search-settings/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	brandID, action := parts[0], parts[1]

	switch action {
	case "datastore":
		s.handleDatastore(w, r, brandID)
	case "reindex":
		s.handleReindex(w, r, brandID)
	case "status":
		s.handleIndexStatus(w, r, brandID)
	default:
		http.NotFound(w, r)
	}
}

// handleDatastore implements POST (create/recreate) and DELETE
// (delete) /search-settings/{brandId}/datastore (spec §6, §4.7).
func (s *Server) handleDatastore(w http.ResponseWriter, r *http.Request, brandID string) {
	switch r.Method {
	case http.MethodPost:
		var err error
		if s.deps.SearchIndex.State(brandID) == searchindex.StateError {
			err = s.deps.SearchIndex.ForceRecreate(r.Context(), brandID)
		} else {
			err = s.deps.SearchIndex.CreateForBrand(r.Context(), brandID)
		}
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"state": string(s.deps.SearchIndex.State(brandID))})
	case http.MethodDelete:
		if err := s.deps.SearchIndex.Delete(r.Context(), brandID); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"state": string(s.deps.SearchIndex.State(brandID))})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleReindex implements POST /search-settings/{brandId}/reindex
// (spec §6, §4.7, §4.11): it creates a Job up front, runs the reindex
// on a detached background task keyed by the job id, and returns
// immediately so the caller can poll — the same up-front-Job,
// poll-don't-block shape spec §4 describes for every long-running
// tool operation.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request, brandID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if jobID := r.URL.Query().Get("jobId"); jobID != "" {
		if job, err := s.deps.Jobs.Get(jobID); err == nil {
			writeJSON(w, http.StatusOK, job.Snapshot())
			return
		}
	}

	useFallback := s.deps.SearchIndex.State(brandID) != searchindex.StateActive
	job := s.deps.Jobs.Create(jobtracker.KindReindex)
	job.Start()

	go func() {
		if _, err := s.deps.SearchIndex.Reindex(context.Background(), brandID, job, useFallback); err != nil {
			job.Fail(err)
		}
	}()

	writeJSON(w, http.StatusAccepted, job.Snapshot())
}

// handleIndexStatus implements GET /search-settings/{brandId}/status
// (spec §6), surfacing the full IndexDescriptor (spec §3): state,
// indexId, createdAt, docCount and lastReindexedAt.
func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request, brandID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d := s.deps.SearchIndex.Descriptor(brandID)
	resp := map[string]any{
		"state":     string(d.State),
		"indexId":   d.IndexID,
		"createdAt": d.CreatedAt,
		"docCount":  d.DocCount,
	}
	if !d.LastReindexedAt.IsZero() {
		resp["lastReindexedAt"] = d.LastReindexedAt
	}
	writeJSON(w, http.StatusOK, resp)
}
