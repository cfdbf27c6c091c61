package catalog

import (
	"github.com/brandloom/agentforge/pkg/media"
	"github.com/brandloom/agentforge/pkg/searchindex"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/functiontool"
)

// SearchMediaLibraryArgs are the parameters for the
// searchMediaLibrary tool.
type SearchMediaLibraryArgs struct {
	Query        string `json:"query" jsonschema:"required,description=What to search for in this brand's media library"`
	SearchMethod string `json:"searchMethod,omitempty" jsonschema:"description=vertexIndex or fallback,default=vertexIndex"`
	Limit        int    `json:"limit,omitempty" jsonschema:"description=Maximum items to return,default=10"`
}

// NewSearchMediaLibrary builds the searchMediaLibrary tool over the
// Search Index Manager (C7), trying the tenant's active vector index
// first and falling back to fuzzy/stem/synonym matching.
func NewSearchMediaLibrary(manager *searchindex.Manager) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "searchMediaLibrary",
			Description: "Search this brand's media library for previously generated or uploaded images and videos.",
		},
		func(ctx tool.Context, args SearchMediaLibraryArgs) (map[string]any, error) {
			limit := args.Limit
			if limit <= 0 {
				limit = 10
			}
			method := args.SearchMethod
			if method == "" {
				method = "vertexIndex"
			}

			hits, err := manager.Search(ctx, ctx.Tenant().BrandID, args.Query, method, limit)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}

			results := make([]map[string]any, 0, len(hits))
			for _, h := range hits {
				results = append(results, map[string]any{
					"mediaId":    h.Item.MediaID,
					"kind":       string(h.Item.Kind),
					"storageUri": h.Item.StorageURI,
					"title":      h.Item.Title,
					"score":      h.Score,
				})
			}
			return tool.Success(results, "", nil), nil
		},
	)
}

// IndexMediaItemArgs are the parameters for the indexMediaItem tool.
type IndexMediaItemArgs struct {
	MediaID     string `json:"mediaId" jsonschema:"required,description=ID of the media item to (re)index"`
	StorageURI  string `json:"storageUri" jsonschema:"required,description=Object store URI of the media asset"`
	Kind        string `json:"kind" jsonschema:"required,description=image or video"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewIndexMediaItem builds the indexMediaItem tool, used after a
// generation or upload to make an asset discoverable by
// searchMediaLibrary going forward. It upserts the library record and
// lazily ensures the brand's index is active; it does not embed the
// item into the vector index (Manager.Reindex does that for every
// library item of the brand).
func NewIndexMediaItem(manager *searchindex.Manager, library searchindex.Library) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "indexMediaItem",
			Description: "Add or update one media item in this brand's searchable library.",
		},
		func(ctx tool.Context, args IndexMediaItemArgs) (map[string]any, error) {
			brandID := ctx.Tenant().BrandID
			item := media.LibraryItem{
				MediaID:     args.MediaID,
				BrandID:     brandID,
				Kind:        media.Kind(args.Kind),
				StorageURI:  args.StorageURI,
				Title:       args.Title,
				Description: args.Description,
			}

			if err := library.UpsertItem(ctx, item); err != nil {
				return tool.Failure(err.Error(), nil), nil
			}
			if err := manager.EnsureActive(ctx, brandID, true); err != nil {
				return tool.Failure(err.Error(), nil), nil
			}

			return tool.Success(nil, "", map[string]any{"mediaId": args.MediaID}), nil
		},
	)
}
