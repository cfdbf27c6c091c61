package server

import "net/http"

type mediaSearchRequest struct {
	BrandID      string `json:"brandId"`
	Query        string `json:"query"`
	SearchMethod string `json:"searchMethod"`
	TopK         int    `json:"topK"`
}

type mediaSearchHit struct {
	MediaID string  `json:"mediaId"`
	Kind    string  `json:"kind"`
	URI     string  `json:"storageUri"`
	Title   string  `json:"title"`
	Score   float32 `json:"score"`
}

// handleMediaSearch is the one-shot semantic search endpoint
// (spec §6), layered directly over the Search Index Manager's (C7)
// Search, which itself picks vertexIndex vs. fallback per tenant state.
func (s *Server) handleMediaSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req mediaSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.BrandID == "" || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "brandId and query are required"})
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	hits, err := s.deps.SearchIndex.Search(r.Context(), req.BrandID, req.Query, req.SearchMethod, topK)
	if err != nil {
		writeAppError(w, err)
		return
	}

	out := make([]mediaSearchHit, len(hits))
	for i, h := range hits {
		out[i] = mediaSearchHit{
			MediaID: h.Item.MediaID,
			Kind:    string(h.Item.Kind),
			URI:     h.Item.StorageURI,
			Title:   h.Item.Title,
			Score:   h.Score,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}
