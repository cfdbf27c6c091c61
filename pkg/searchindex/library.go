package searchindex

import (
	"context"

	"github.com/brandloom/agentforge/pkg/media"
)

// Library is the brand media-library repository the manager indexes
// and falls back to scanning. A concrete implementation is typically
// backed by the same SQL store as capability.DocumentDBPort, scoped
// to a separate table (spec §3's MediaLibraryItem is persisted
// independently of the generic document corpus).
type Library interface {
	ListItems(ctx context.Context, brandID string) ([]media.LibraryItem, error)
	UpsertItem(ctx context.Context, item media.LibraryItem) error
}
