package server

import (
	"context"
	"net/http"

	"github.com/brandloom/agentforge/pkg/media"
	"github.com/brandloom/agentforge/pkg/stream"
	"github.com/brandloom/agentforge/pkg/tenant"
)

type chatRequest struct {
	BrandID     string         `json:"brandId"`
	UserID      string         `json:"userId"`
	Message     string         `json:"message"`
	TeamContext *teamContext   `json:"teamContext"`
	Media       []media.Handle `json:"media"`
	Settings    *settingsBody  `json:"settings"`
}

type teamContext struct {
	VisualGuidelines string   `json:"visualGuidelines"`
	BrandVoice       string   `json:"brandVoice"`
	ColorPalette     []string `json:"colorPalette"`
}

type settingsBody struct {
	TextModel  string `json:"textModel"`
	ImageModel string `json:"imageModel"`
	VideoModel string `json:"videoModel"`
	MusicModel string `json:"musicModel"`
}

// handleChat is the primary streaming endpoint (spec §6): it binds
// the request to a fresh tenant.Context, enforces the Request
// Coordinator's wall-clock timeout, and drives the Agent Loop (C8)
// over an NDJSON encoder (C9).
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.BrandID == "" || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "brandId and userId are required"})
		return
	}

	t := tenant.Context{BrandID: req.BrandID, UserID: req.UserID, Attachments: req.Media}
	if req.TeamContext != nil {
		t.Team = tenant.TeamContext{
			VisualGuidelines: req.TeamContext.VisualGuidelines,
			BrandVoice:       req.TeamContext.BrandVoice,
			ColorPalette:     req.TeamContext.ColorPalette,
		}
	}
	if req.Settings != nil {
		t.Settings = tenant.Settings{
			TextModel:  req.Settings.TextModel,
			ImageModel: req.Settings.ImageModel,
			VideoModel: req.Settings.VideoModel,
			MusicModel: req.Settings.MusicModel,
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	enc := stream.NewEncoder(w)
	err := s.deps.Loop.Run(ctx, t, s.deps.SystemInstruction, req.Message, enc)
	if err != nil && ctx.Err() != nil {
		// Runtime-level cancellation: the loop stopped at its next safe
		// point without emitting a terminal frame (spec §4.8), so the
		// coordinator emits it here (spec §4.10).
		_ = enc.Emit(stream.Frame{Type: stream.FrameError, Message: "request timed out or was cancelled"})
	}
}
