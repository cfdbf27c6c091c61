package session

import (
	"context"
	"sync"
	"time"
)

// TokenCounter estimates the token cost of an Event for trimming
// (spec §4.5). Implemented by TiktokenCounter (tokencounter.go) over
// pkg/utils' tiktoken-go counter; injected so the store has no
// provider dependency.
type TokenCounter interface {
	CountEvent(e Event) int
}

// Store is the Session Store contract (C5, spec §4.5).
type Store interface {
	// Append adds events to the session under key, creating it if
	// absent, and assigns each a monotonically increasing Ordinal.
	Append(ctx context.Context, key string, events ...Event) error

	// Get returns the full session for key, or an empty Session with
	// ok=false if none exists yet.
	Get(ctx context.Context, key string) (Session, bool, error)

	// Trim rebuilds the session's event slice so its estimated token
	// cost fits budget, dropping the oldest whole turns first and
	// never splitting a toolCall/toolResult pair.
	Trim(ctx context.Context, key string, budget int, counter TokenCounter) error

	// Delete removes the entire session for key.
	Delete(ctx context.Context, key string) error

	// DeleteLast removes the most recent user-initiated turn (the
	// trailing run of events back to and including the last
	// EventUserTurn) — used by POST /session/delete-last (spec §6).
	DeleteLast(ctx context.Context, key string) error

	// Stats returns the event count and estimated token usage for key.
	Stats(ctx context.Context, key string, counter TokenCounter) (Stats, error)
}

// Stats summarizes a session for GET /session/stats/{brandId}/{userId}.
type Stats struct {
	EventCount int `json:"eventCount"`
	TokenCount int `json:"tokenCount"`
}

// InMemoryStore is a process-local Store, modeled on the teacher's
// map-plus-RWMutex session service discipline: every read takes
// RLock, every write takes the full Lock, and nothing escapes the
// lock by reference — callers get copies.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

func (s *InMemoryStore) Append(ctx context.Context, key string, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		sess = &Session{Key: key, CreatedAt: time.Now()}
		s.sessions[key] = sess
	}
	next := int64(len(sess.Events))
	for i := range events {
		events[i].Ordinal = next
		next++
		if events[i].Timestamp.IsZero() {
			events[i].Timestamp = time.Now()
		}
	}
	sess.Events = append(sess.Events, events...)
	sess.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, key string) (Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[key]
	if !ok {
		return Session{}, false, nil
	}
	return cloneSession(*sess), true, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

func (s *InMemoryStore) DeleteLast(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok || len(sess.Events) == 0 {
		return nil
	}
	cut := len(sess.Events)
	for i := len(sess.Events) - 1; i >= 0; i-- {
		cut = i
		if sess.Events[i].Kind == EventUserTurn {
			break
		}
	}
	sess.Events = sess.Events[:cut]
	sess.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) Stats(ctx context.Context, key string, counter TokenCounter) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[key]
	if !ok {
		return Stats{}, nil
	}
	total := 0
	if counter != nil {
		for _, e := range sess.Events {
			total += counter.CountEvent(e)
		}
	}
	return Stats{EventCount: len(sess.Events), TokenCount: total}, nil
}

// Trim drops the oldest complete turns until the estimated token
// total fits budget (spec §4.5). A "turn" here is a maximal run of
// events that must move together: a toolCall is never kept without
// its matching toolResult, and vice versa.
func (s *InMemoryStore) Trim(ctx context.Context, key string, budget int, counter TokenCounter) error {
	if counter == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return nil
	}

	total := 0
	for _, e := range sess.Events {
		total += counter.CountEvent(e)
	}
	if total <= budget {
		return nil
	}

	groups := groupAtomicUnits(sess.Events)
	// Drop oldest groups first until under budget, but always keep
	// the most recent group so a session is never emptied entirely.
	start := 0
	for start < len(groups)-1 && total > budget {
		for _, e := range groups[start] {
			total -= counter.CountEvent(e)
		}
		start++
	}

	var kept []Event
	for _, g := range groups[start:] {
		kept = append(kept, g...)
	}
	if start > 0 {
		kept = append(kept, Event{
			Author:    "system",
			Kind:      EventSystemNotice,
			Text:      "session history trimmed to fit the token budget",
			Timestamp: time.Now(),
		})
	}
	for i := range kept {
		kept[i].Ordinal = int64(i)
	}
	sess.Events = kept
	return nil
}

// groupAtomicUnits partitions events into units that trimming must
// move as a whole: a toolCall immediately followed by its toolResult
// forms one unit; everything else is its own unit.
func groupAtomicUnits(events []Event) [][]Event {
	var groups [][]Event
	for i := 0; i < len(events); i++ {
		e := events[i]
		if e.IsToolCall() && i+1 < len(events) && events[i+1].IsToolResult() &&
			events[i+1].ToolResult != nil && events[i+1].ToolResult.ToolCallID == callID(e) {
			groups = append(groups, []Event{e, events[i+1]})
			i++
			continue
		}
		groups = append(groups, []Event{e})
	}
	return groups
}

func callID(e Event) string {
	if e.ToolCall == nil {
		return ""
	}
	return e.ToolCall.ID
}

func cloneSession(s Session) Session {
	out := s
	out.Events = append([]Event(nil), s.Events...)
	return out
}
