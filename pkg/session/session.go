// Package session implements the Session Store (C5): an append-only
// event log per (brandId, userId) tenant, with token-budgeted
// trimming that never splits a toolCall/toolResult pair.
package session

import (
	"time"

	"github.com/brandloom/agentforge/pkg/media"
)

// EventKind identifies the role an Event plays in a turn (spec §3).
type EventKind string

const (
	EventUserTurn     EventKind = "userTurn"
	EventModelThought EventKind = "modelThought"
	EventToolCall     EventKind = "toolCall"
	EventToolResult   EventKind = "toolResult"
	EventModelText    EventKind = "modelText"
	EventSystemNotice EventKind = "systemNotice"
)

// ToolCallPayload is the Content of a toolCall Event.
type ToolCallPayload struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResultPayload is the Content of a toolResult Event. ToolCallID
// links it back to the ToolCallPayload that requested it — the pair
// is never separated by trimming.
type ToolResultPayload struct {
	ToolCallID string         `json:"toolCallId"`
	Status     string         `json:"status"`
	Content    map[string]any `json:"content,omitempty"`
	Message    string         `json:"message,omitempty"`
}

// Event is one append-only entry in a Session's history (spec §3).
// Ordinal is monotonically increasing within a Session and is the
// sole ordering key — Timestamp is informational only.
type Event struct {
	Ordinal   int64     `json:"ordinal"`
	Author    string    `json:"author"` // "user", "assistant", "system"
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	Text       string             `json:"text,omitempty"`
	ToolCall   *ToolCallPayload   `json:"toolCall,omitempty"`
	ToolResult *ToolResultPayload `json:"toolResult,omitempty"`
	Media      []media.Handle     `json:"media,omitempty"`
}

// IsToolCall reports whether e opens a toolCall/toolResult pair.
func (e Event) IsToolCall() bool { return e.Kind == EventToolCall }

// IsToolResult reports whether e closes a toolCall/toolResult pair.
func (e Event) IsToolResult() bool { return e.Kind == EventToolResult }

// Session is the full event history for one (brandId, userId) tenant.
type Session struct {
	Key       string    `json:"key"`
	Events    []Event   `json:"events"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LastEvent returns the most recently appended Event, or the zero
// value and false if the Session has no events.
func (s Session) LastEvent() (Event, bool) {
	if len(s.Events) == 0 {
		return Event{}, false
	}
	return s.Events[len(s.Events)-1], true
}

// RecentMediaTurns projects the last n Events carrying media into
// media.HistoryTurn values, newest first, for the resolver (C3). Only
// userTurn and modelText/toolResult events can carry media.
func (s Session) RecentMediaTurns(n int) []media.HistoryTurn {
	var turns []media.HistoryTurn
	for i := len(s.Events) - 1; i >= 0 && len(turns) < n; i-- {
		e := s.Events[i]
		if len(e.Media) == 0 {
			continue
		}
		author := "assistant"
		if e.Author == "user" {
			author = "user"
		}
		turns = append(turns, media.HistoryTurn{Author: author, Items: e.Media})
	}
	return turns
}
