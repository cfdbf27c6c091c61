// Package tenant carries the per-request tenant context (spec §4.2).
//
// A Context is constructed once per inbound request and passed by
// value into every tool invocation; it is never stored in a package
// or process global, so one request's context is never observable
// from another's handler. This generalizes the teacher's
// per-request agent-context composition (pkg/reasoning/agent_context.go)
// from "agent services" to "(brandId, userId) tenant".
package tenant

import "github.com/brandloom/agentforge/pkg/media"

// TeamContext carries brand metadata used by brand-aware tools (e.g.
// createTeamEvent, prompt composition) and by the media resolver's
// library-lookup confidence scoring.
type TeamContext struct {
	VisualGuidelines string   `json:"visualGuidelines,omitempty"`
	BrandVoice       string   `json:"brandVoice,omitempty"`
	ColorPalette     []string `json:"colorPalette,omitempty"`
}

// Settings are per-request overrides a caller may supply in
// POST /agent/chat (spec §6): any model identifier may be overridden
// for the duration of the call.
type Settings struct {
	TextModel  string `json:"textModel,omitempty"`
	ImageModel string `json:"imageModel,omitempty"`
	VideoModel string `json:"videoModel,omitempty"`
	MusicModel string `json:"musicModel,omitempty"`
}

// Context is the immutable per-request tenant bag (spec §4.2).
// Value semantics are deliberate: copying a Context is always safe,
// and no method mutates it in place.
type Context struct {
	BrandID     string
	UserID      string
	Settings    Settings
	Team        TeamContext
	Attachments []media.Handle

	// Resolved is populated by the media resolver (C3) before tool
	// dispatch and is otherwise the zero value.
	Resolved media.ResolvedSet
}

// SessionKey returns the Session Store key for this tenant
// (spec §4.5, §6): brandId + "_" + userId. Keys are never parsed back
// apart, so no escaping is attempted beyond the documented assumption
// that BrandID/UserID don't contain underscores.
func (c Context) SessionKey() string {
	return Key(c.BrandID, c.UserID)
}

// Key builds a Session Store key from raw (brandId, userId)
// components without requiring a full Context.
func Key(brandID, userID string) string {
	return brandID + "_" + userID
}

// WithResolvedMedia returns a copy of c with Resolved set — used by
// the agent loop (C8) after running the media resolver (C3), keeping
// Context immutable from the caller's point of view.
func (c Context) WithResolvedMedia(resolved media.ResolvedSet) Context {
	c.Resolved = resolved
	return c
}
