package memory

import "context"

// NoopStore disables memory recall/writes entirely, used when the
// composition root's enableMemoryBank option is off (spec §6) so
// call sites never need to branch on whether memory is configured.
type NoopStore struct{}

func (NoopStore) Recall(ctx context.Context, brandID, userID, query string, limit int) ([]Fact, error) {
	return nil, nil
}

func (NoopStore) ExtractAndSave(ctx context.Context, brandID, userID, completedTurn string) (string, error) {
	return "", nil
}

func (NoopStore) List(ctx context.Context, brandID, userID string) ([]Fact, error) { return nil, nil }

func (NoopStore) Delete(ctx context.Context, brandID, userID, factID string) error { return nil }

var _ Store = NoopStore{}
