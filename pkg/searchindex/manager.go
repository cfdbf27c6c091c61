package searchindex

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/jobtracker"
	"github.com/brandloom/agentforge/pkg/media"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const reindexBatchSize = 10

// Manager owns the per-tenant index lifecycle and the reindex job
// (spec §4.7), layered over a VectorIndexPort provider the same way
// the teacher layers a reasoning strategy over a DatabaseProvider.
type Manager struct {
	vectors  capability.VectorIndexPort
	embedder capability.EmbedderPort
	library  Library
	tracker  *jobtracker.Tracker

	mu          sync.Mutex
	descriptors map[string]*Descriptor
	names       *nameCache
}

func NewManager(vectors capability.VectorIndexPort, embedder capability.EmbedderPort, library Library, tracker *jobtracker.Tracker) *Manager {
	return &Manager{
		vectors:     vectors,
		embedder:    embedder,
		library:     library,
		tracker:     tracker,
		descriptors: make(map[string]*Descriptor),
		names:       newNameCache(),
	}
}

func (m *Manager) descriptor(brandID string) *Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.descriptors[brandID]
	if !ok {
		d = &Descriptor{BrandID: brandID, State: StateAbsent, IndexID: uuid.New().String(), CreatedAt: time.Now().UTC()}
		m.descriptors[brandID] = d
	}
	return d
}

// Descriptor returns a copy of brandID's current index record (spec
// §3's IndexDescriptor, surfaced by the status endpoint).
func (m *Manager) Descriptor(brandID string) Descriptor {
	d := m.descriptor(brandID)
	m.mu.Lock()
	defer m.mu.Unlock()
	return *d
}

func (m *Manager) setState(brandID string, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.descriptors[brandID]
	if !ok {
		d = &Descriptor{BrandID: brandID, IndexID: uuid.New().String(), CreatedAt: time.Now().UTC()}
		m.descriptors[brandID] = d
	}
	d.State = state
}

// recordReindex stamps the descriptor's doc count and reindex
// timestamp after a successful reindex pass (spec §3's docCount/
// lastReindexedAt fields).
func (m *Manager) recordReindex(brandID string, docCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.descriptors[brandID]
	if !ok {
		d = &Descriptor{BrandID: brandID, IndexID: uuid.New().String(), CreatedAt: time.Now().UTC()}
		m.descriptors[brandID] = d
	}
	d.DocCount = docCount
	d.LastReindexedAt = time.Now().UTC()
}

// backingName resolves the exact collection name for brandID,
// consulting the cache first and falling back to the canonical path
// on a miss (spec §4.7).
func (m *Manager) backingName(brandID string) string {
	if name, ok := m.names.get(brandID); ok {
		return name
	}
	return canonicalCollection(brandID)
}

// CreateForBrand runs the absent->creating->active transition for one
// brand, creating the backing collection and installing the
// name-cache entry on readiness.
func (m *Manager) CreateForBrand(ctx context.Context, brandID string) error {
	m.setState(brandID, StateCreating)
	name := canonicalCollection(brandID)
	if err := m.vectors.CreateCollection(ctx, name, m.embedder.Dimensions()); err != nil {
		m.setState(brandID, StateError)
		return apperr.Wrap(apperr.KindTransient, "searchindex: create collection", err)
	}
	m.names.set(brandID, name)
	m.setState(brandID, StateActive)
	return nil
}

// Delete runs the active->deleting->absent transition. It verifies
// deletion by attempting a get (via CollectionExists): not-found is
// the success condition, including when the provider's delete
// operation itself reports a dangling failure but the collection is
// confirmed gone on verification (spec §4.7).
func (m *Manager) Delete(ctx context.Context, brandID string) error {
	m.setState(brandID, StateDeleting)
	name := m.backingName(brandID)

	deleteErr := m.vectors.DeleteCollection(ctx, name)
	exists, verifyErr := m.vectors.CollectionExists(ctx, name)
	if verifyErr == nil && !exists {
		m.names.clear(brandID)
		m.setState(brandID, StateAbsent)
		return nil
	}
	if deleteErr != nil {
		m.setState(brandID, StateError)
		return apperr.Wrap(apperr.KindDangling, "searchindex: delete collection", deleteErr)
	}
	m.setState(brandID, StateError)
	return apperr.New(apperr.KindInternal, "searchindex: delete verification failed")
}

// ForceRecreate deletes (tolerating absent) then creates, for
// recovery from StateError (spec §4.7).
func (m *Manager) ForceRecreate(ctx context.Context, brandID string) error {
	_ = m.Delete(ctx, brandID)
	return m.CreateForBrand(ctx, brandID)
}

// EnsureActive lazily creates the index on first use when autoIndex
// is enabled for the tenant.
func (m *Manager) EnsureActive(ctx context.Context, brandID string, autoIndex bool) error {
	d := m.descriptor(brandID)
	if d.State == StateActive {
		return nil
	}
	if d.State == StateAbsent && autoIndex {
		return m.CreateForBrand(ctx, brandID)
	}
	return nil
}

// ReindexResult summarizes one reindex job run.
type ReindexResult struct {
	Processed int
	Total     int
	Failed    []string
}

// Reindex loads every MediaLibraryItem for the brand and upserts it
// in fixed-size batches, tracking progress on job (spec §4.7, steps
// 1-4). useFallback skips the vector upsert and merely simulates
// progress, for tenants configured to use the text fallback index
// (step 5).
func (m *Manager) Reindex(ctx context.Context, brandID string, job *jobtracker.Job, useFallback bool) (ReindexResult, error) {
	items, err := m.library.ListItems(ctx, brandID)
	if err != nil {
		job.Fail(err)
		return ReindexResult{}, apperr.Wrap(apperr.KindTransient, "searchindex: list library items", err)
	}
	if len(items) == 0 {
		m.recordReindex(brandID, 0)
		job.Complete(map[string]any{"processed": 0, "total": 0})
		return ReindexResult{}, nil
	}

	collection := m.backingName(brandID)
	total := len(items)
	result := ReindexResult{Total: total}
	anySucceeded := false
	anyAttempted := false

	for start := 0; start < total; start += reindexBatchSize {
		end := start + reindexBatchSize
		if end > total {
			end = total
		}
		batch := items[start:end]
		anyAttempted = true

		if batchErr := m.upsertBatch(ctx, collection, batch, useFallback); batchErr != nil {
			for _, item := range batch {
				result.Failed = append(result.Failed, item.MediaID)
			}
		} else {
			anySucceeded = true
		}

		result.Processed = end
		job.SetProgress(int(math.Floor(float64(end)/float64(total)*100)), "")
	}

	if anyAttempted && !anySucceeded {
		job.Fail(apperr.New(apperr.KindTransient, "searchindex: all reindex batches failed"))
		return result, nil
	}
	m.recordReindex(brandID, total-len(result.Failed))
	job.Complete(map[string]any{"processed": result.Processed, "total": total, "failed": result.Failed})
	return result, nil
}

// upsertBatch embeds and upserts every item in batch concurrently
// (bounded by the fixed batch size of reindexBatchSize), grounded on
// the teacher's workflowagent/parallel.go's errgroup.WithContext
// fan-out: the first failing item cancels the rest of the batch's
// in-flight work rather than letting them run to no purpose.
func (m *Manager) upsertBatch(ctx context.Context, collection string, batch []media.LibraryItem, useFallback bool) error {
	if useFallback {
		return nil
	}
	group, groupCtx := errgroup.WithContext(ctx)
	for _, item := range batch {
		item := item
		group.Go(func() error {
			vector, err := m.embedder.Embed(groupCtx, item.SearchText())
			if err != nil {
				return apperr.Wrap(apperr.KindTransient, "searchindex: embed item", err)
			}
			metadata := map[string]any{
				"title": item.Title,
				"kind":  string(item.Kind),
			}
			if err := m.vectors.Upsert(groupCtx, collection, item.MediaID, vector, metadata); err != nil {
				return apperr.Wrap(apperr.KindTransient, "searchindex: upsert item", err)
			}
			return nil
		})
	}
	return group.Wait()
}

// State returns the brand's current descriptor state.
func (m *Manager) State(brandID string) State {
	return m.descriptor(brandID).State
}

func normalizeSearchMethod(method string) bool {
	return strings.EqualFold(method, "vertexIndex")
}
