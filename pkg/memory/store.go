// Package memory implements the Memory Store (C6): durable,
// cross-session facts about a user, distinct from the Session
// Store's (C5) append-only turn history.
//
// Generalizes the teacher's pkg/memory vector_memory.go embed-then-
// upsert pattern from "recall via vector DB" to "recall via a remote
// long-term-memory provider, fall back to a local substring scan"
// (spec §4.6). The factId/remoteId invariant — factId is always the
// tail segment of remoteId after the last '/' — is enforced here,
// not in the capability.LongTermMemoryPort adapter, because it is a
// property of this domain's memory model, not of any one provider's
// wire format.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Fact is a durable memory fact scoped to one user (spec §3, §4.6).
type Fact struct {
	FactID   string
	RemoteID string
	Content  string
	SavedAt  string
}

// Store is the Memory Store's contract (spec §4.6): recall, save
// (extract-and-save after a completed turn), list, and delete — all
// scoped to (brandId, userId).
type Store interface {
	Recall(ctx context.Context, brandID, userID, query string, limit int) ([]Fact, error)
	ExtractAndSave(ctx context.Context, brandID, userID, completedTurn string) (factID string, err error)
	List(ctx context.Context, brandID, userID string) ([]Fact, error)
	Delete(ctx context.Context, brandID, userID, factID string) error
}

// RemoteStore implements Store over a capability.LongTermMemoryPort,
// with an in-memory local index kept for fallback recall when the
// remote provider errors and as a cache for List/Delete (which the
// port does not expose directly — LongTermMemoryPort has no List,
// so this is the only durable record of which facts belong to which
// user).
type RemoteStore struct {
	remote capability.LongTermMemoryPort

	mu    sync.RWMutex
	facts map[string][]Fact // key: tenant.Key(brandID, userID)
}

// NewRemoteStore builds a Store backed by remote.
func NewRemoteStore(remote capability.LongTermMemoryPort) *RemoteStore {
	return &RemoteStore{remote: remote, facts: make(map[string][]Fact)}
}

func memoryKey(brandID, userID string) string { return brandID + "_" + userID }

// Recall returns facts relevant to query. It asks the remote provider
// first; on transient failure it falls back to a local substring
// scan over facts this process has already saved or listed (spec
// §4.6: "recall via remote long-term-memory provider, fall back to
// local substring scan").
func (s *RemoteStore) Recall(ctx context.Context, brandID, userID, query string, limit int) ([]Fact, error) {
	tracer := observability.GetTracer("agentforge.memory")
	ctx, span := tracer.Start(ctx, observability.SpanMemoryLookup,
		trace.WithAttributes(
			attribute.String("brand_id", brandID),
			attribute.String("user_id", userID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	remoteFacts, err := s.remote.Recall(ctx, brandID, userID, query, limit)
	if err == nil {
		facts := make([]Fact, len(remoteFacts))
		for i, f := range remoteFacts {
			facts[i] = Fact{FactID: f.FactID, RemoteID: f.RemoteID, Content: f.Content, SavedAt: f.SavedAt}
		}
		s.index(brandID, userID, facts)
		span.SetStatus(codes.Ok, "recalled from remote")
		return facts, nil
	}
	if !apperr.IsRetryable(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote recall failed, non-retryable")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("fallback_local_scan", true))
	return s.localScan(brandID, userID, query, limit), nil
}

func (s *RemoteStore) localScan(brandID, userID, query string, limit int) []Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.facts[memoryKey(brandID, userID)]
	if query == "" {
		return capAt(all, limit)
	}

	needle := strings.ToLower(query)
	var matched []Fact
	for _, f := range all {
		if strings.Contains(strings.ToLower(f.Content), needle) {
			matched = append(matched, f)
		}
	}
	return capAt(matched, limit)
}

func capAt(facts []Fact, limit int) []Fact {
	if limit <= 0 || len(facts) <= limit {
		return facts
	}
	return facts[:limit]
}

// ExtractAndSave stores completedTurn's durable content (already
// summarized into a single fact by the agent loop's extraction
// prompt — see pkg/agentloop) as a new memory fact and returns its
// local factId.
func (s *RemoteStore) ExtractAndSave(ctx context.Context, brandID, userID, completedTurn string) (string, error) {
	remoteID, err := s.remote.Save(ctx, brandID, userID, completedTurn)
	if err != nil {
		return "", err
	}

	fact := Fact{
		FactID:   tailOf(remoteID),
		RemoteID: remoteID,
		Content:  completedTurn,
		SavedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	s.index(brandID, userID, []Fact{fact})
	return fact.FactID, nil
}

// List returns every fact this process has observed for (brandID,
// userID), via prior Recall/ExtractAndSave calls. LongTermMemoryPort
// has no bulk-list operation, so this reflects only what has passed
// through this Store instance.
func (s *RemoteStore) List(ctx context.Context, brandID, userID string) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Fact, len(s.facts[memoryKey(brandID, userID)]))
	copy(out, s.facts[memoryKey(brandID, userID)])
	return out, nil
}

// Delete removes factID. Deletion is local-authoritative (spec
// §4.6): the local index entry is removed regardless of whether the
// remote delete succeeds, so a dangling remote record never blocks a
// user from re-saving the same fact.
func (s *RemoteStore) Delete(ctx context.Context, brandID, userID, factID string) error {
	s.mu.Lock()
	key := memoryKey(brandID, userID)
	var remoteID string
	kept := s.facts[key][:0:0]
	for _, f := range s.facts[key] {
		if f.FactID == factID {
			remoteID = f.RemoteID
			continue
		}
		kept = append(kept, f)
	}
	s.facts[key] = kept
	s.mu.Unlock()

	if remoteID == "" {
		return nil
	}
	if err := s.remote.Delete(ctx, remoteID); err != nil {
		return apperr.Wrap(apperr.KindDangling, "memory: remote delete failed after local removal", err)
	}
	return nil
}

func (s *RemoteStore) index(brandID, userID string, facts []Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey(brandID, userID)
	existing := make(map[string]struct{}, len(s.facts[key]))
	for _, f := range s.facts[key] {
		existing[f.FactID] = struct{}{}
	}
	for _, f := range facts {
		if _, ok := existing[f.FactID]; ok {
			continue
		}
		s.facts[key] = append(s.facts[key], f)
		existing[f.FactID] = struct{}{}
	}
}

// tailOf returns the segment of a resource name after its last '/'.
// "memories/abc123" -> "abc123"; a name with no '/' is its own tail.
func tailOf(resourceName string) string {
	if idx := strings.LastIndexByte(resourceName, '/'); idx >= 0 {
		return resourceName[idx+1:]
	}
	return resourceName
}

var _ Store = (*RemoteStore)(nil)
