package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLongTermMemory is an in-process capability.LongTermMemoryPort
// double, grounded on the teacher's pkg/memory mock provider style
// (NewMockDatabaseProvider/NewMockEmbedderProvider in
// vector_memory_test.go): a struct with swappable func fields rather
// than a generated mock.
type mockLongTermMemory struct {
	mu       sync.Mutex
	saved    map[string]string // remoteID -> content
	saveErr  error
	recallFn func(ctx context.Context, brandID, userID, query string, limit int) ([]capability.MemoryFact, error)
	deleteErr error
	deleted  []string
}

func newMockLongTermMemory() *mockLongTermMemory {
	return &mockLongTermMemory{saved: make(map[string]string)}
}

func (m *mockLongTermMemory) Save(ctx context.Context, brandID, userID, content string) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	remoteID := "memories/" + brandID + "-" + userID + "-" + content
	m.saved[remoteID] = content
	return remoteID, nil
}

func (m *mockLongTermMemory) Recall(ctx context.Context, brandID, userID, query string, limit int) ([]capability.MemoryFact, error) {
	if m.recallFn != nil {
		return m.recallFn(ctx, brandID, userID, query, limit)
	}
	return nil, nil
}

func (m *mockLongTermMemory) Delete(ctx context.Context, remoteID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, remoteID)
	delete(m.saved, remoteID)
	return nil
}

var _ capability.LongTermMemoryPort = (*mockLongTermMemory)(nil)

func TestRemoteStore_ExtractAndSave(t *testing.T) {
	t.Run("derives factId from the remoteId's tail segment", func(t *testing.T) {
		remote := newMockLongTermMemory()
		store := NewRemoteStore(remote)

		factID, err := store.ExtractAndSave(context.Background(), "brand1", "user1", "likes dark mode")
		require.NoError(t, err)
		assert.Equal(t, "brand1-user1-likes dark mode", factID)
	})

	t.Run("propagates a save failure", func(t *testing.T) {
		remote := newMockLongTermMemory()
		remote.saveErr = errors.New("boom")
		store := NewRemoteStore(remote)

		_, err := store.ExtractAndSave(context.Background(), "brand1", "user1", "fact")
		assert.Error(t, err)
	})
}

func TestRemoteStore_Recall(t *testing.T) {
	t.Run("returns facts from the remote provider", func(t *testing.T) {
		remote := newMockLongTermMemory()
		remote.recallFn = func(ctx context.Context, brandID, userID, query string, limit int) ([]capability.MemoryFact, error) {
			return []capability.MemoryFact{{FactID: "f1", RemoteID: "memories/f1", Content: "likes tea", SavedAt: "now"}}, nil
		}
		store := NewRemoteStore(remote)

		facts, err := store.Recall(context.Background(), "brand1", "user1", "tea", 10)
		require.NoError(t, err)
		require.Len(t, facts, 1)
		assert.Equal(t, "likes tea", facts[0].Content)
	})

	t.Run("falls back to a local scan on a retryable remote failure", func(t *testing.T) {
		remote := newMockLongTermMemory()
		store := NewRemoteStore(remote)

		_, err := store.ExtractAndSave(context.Background(), "brand1", "user1", "likes dark mode")
		require.NoError(t, err)
		_, err = store.ExtractAndSave(context.Background(), "brand1", "user1", "prefers email contact")
		require.NoError(t, err)

		remote.recallFn = func(ctx context.Context, brandID, userID, query string, limit int) ([]capability.MemoryFact, error) {
			return nil, apperr.Wrap(apperr.KindTransient, "memory: recall", errors.New("unavailable"))
		}

		facts, err := store.Recall(context.Background(), "brand1", "user1", "dark", 10)
		require.NoError(t, err)
		require.Len(t, facts, 1)
		assert.Contains(t, facts[0].Content, "dark mode")
	})

	t.Run("returns a non-retryable remote failure directly, without a local fallback", func(t *testing.T) {
		remote := newMockLongTermMemory()
		remote.recallFn = func(ctx context.Context, brandID, userID, query string, limit int) ([]capability.MemoryFact, error) {
			return nil, apperr.Wrap(apperr.KindValidation, "memory: recall", errors.New("bad query"))
		}
		store := NewRemoteStore(remote)

		_, err := store.Recall(context.Background(), "brand1", "user1", "dark", 10)
		assert.Error(t, err)
	})
}

func TestRemoteStore_List(t *testing.T) {
	remote := newMockLongTermMemory()
	store := NewRemoteStore(remote)

	_, err := store.ExtractAndSave(context.Background(), "brand1", "user1", "fact one")
	require.NoError(t, err)
	_, err = store.ExtractAndSave(context.Background(), "brand1", "user2", "fact for someone else")
	require.NoError(t, err)

	facts, err := store.List(context.Background(), "brand1", "user1")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "fact one", facts[0].Content)
}

func TestRemoteStore_Delete(t *testing.T) {
	t.Run("removes the local entry and the remote record", func(t *testing.T) {
		remote := newMockLongTermMemory()
		store := NewRemoteStore(remote)

		factID, err := store.ExtractAndSave(context.Background(), "brand1", "user1", "fact one")
		require.NoError(t, err)

		err = store.Delete(context.Background(), "brand1", "user1", factID)
		require.NoError(t, err)

		facts, err := store.List(context.Background(), "brand1", "user1")
		require.NoError(t, err)
		assert.Empty(t, facts)
		assert.Equal(t, []string{"memories/brand1-user1-fact one"}, remote.deleted)
	})

	t.Run("is local-authoritative: a remote delete failure does not re-add the fact", func(t *testing.T) {
		remote := newMockLongTermMemory()
		store := NewRemoteStore(remote)
		factID, err := store.ExtractAndSave(context.Background(), "brand1", "user1", "fact one")
		require.NoError(t, err)

		remote.deleteErr = errors.New("remote unreachable")
		err = store.Delete(context.Background(), "brand1", "user1", factID)
		assert.Error(t, err)

		facts, listErr := store.List(context.Background(), "brand1", "user1")
		require.NoError(t, listErr)
		assert.Empty(t, facts)
	})

	t.Run("deleting an unknown factId is a no-op", func(t *testing.T) {
		remote := newMockLongTermMemory()
		store := NewRemoteStore(remote)
		err := store.Delete(context.Background(), "brand1", "user1", "does-not-exist")
		assert.NoError(t, err)
	})
}

func TestNoopStore(t *testing.T) {
	var store Store = NoopStore{}
	ctx := context.Background()

	facts, err := store.Recall(ctx, "brand1", "user1", "q", 10)
	require.NoError(t, err)
	assert.Empty(t, facts)

	factID, err := store.ExtractAndSave(ctx, "brand1", "user1", "turn")
	require.NoError(t, err)
	assert.Empty(t, factID)

	facts, err = store.List(ctx, "brand1", "user1")
	require.NoError(t, err)
	assert.Empty(t, facts)

	assert.NoError(t, store.Delete(ctx, "brand1", "user1", "f1"))
}
