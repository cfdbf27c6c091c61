package catalog

import (
	"fmt"
	"time"

	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/docparse"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/functiontool"
)

// QueryBrandDocumentsArgs are the parameters for the
// queryBrandDocuments tool.
type QueryBrandDocumentsArgs struct {
	Filter map[string]string `json:"filter,omitempty" jsonschema:"description=Exact-match metadata filter (e.g. {\"category\":\"guidelines\"})"`
	Limit  int                `json:"limit,omitempty" jsonschema:"description=Maximum rows to return,default=10"`
}

// NewQueryBrandDocuments builds the queryBrandDocuments tool, scoped
// to the calling tenant's brand — a tool can never read another
// brand's corpus regardless of what arguments the LLM supplies.
func NewQueryBrandDocuments(db capability.DocumentDBPort) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "queryBrandDocuments",
			Description: "Query this brand's indexed document corpus (guidelines, product specs, reference material) by metadata filter.",
		},
		func(ctx tool.Context, args QueryBrandDocumentsArgs) (map[string]any, error) {
			limit := args.Limit
			if limit <= 0 {
				limit = 10
			}
			filter := make(map[string]any, len(args.Filter))
			for k, v := range args.Filter {
				filter[k] = v
			}

			rows, err := db.QueryDocuments(ctx, ctx.Tenant().BrandID, filter, limit)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}
			return tool.Success(rows, "", nil), nil
		},
	)
}

// IngestBrandDocumentArgs are the parameters for the
// ingestBrandDocument tool.
type IngestBrandDocumentArgs struct {
	StorageURI string            `json:"storageUri" jsonschema:"required,description=Object store URI of the uploaded PDF, DOCX, or XLSX file"`
	Filename   string            `json:"filename" jsonschema:"required,description=Original filename, used to select a parser by extension"`
	Metadata   map[string]string `json:"metadata,omitempty" jsonschema:"description=Extra metadata to attach (e.g. category)"`
}

// NewIngestBrandDocument builds the ingestBrandDocument tool: it
// fetches an uploaded file from object storage, extracts plain text
// via pkg/docparse, and stores it in the Document DB so
// queryBrandDocuments can retrieve it. Generalizes the teacher's
// pkg/rag native-parser ingestion path (file-path based) to this
// domain's object-store-addressed attachments.
func NewIngestBrandDocument(objectStore capability.ObjectStorePort, db capability.DocumentDBPort) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "ingestBrandDocument",
			Description: "Extract text from an uploaded PDF, DOCX, or XLSX file and add it to this brand's indexed document corpus.",
		},
		func(ctx tool.Context, args IngestBrandDocumentArgs) (map[string]any, error) {
			content, _, err := objectStore.Get(ctx, args.StorageURI)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}

			parsed, err := docparse.Parse(ctx, args.Filename, content)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}

			metadata := make(map[string]any, len(args.Metadata)+len(parsed.Metadata))
			for k, v := range parsed.Metadata {
				metadata[k] = v
			}
			for k, v := range args.Metadata {
				metadata[k] = v
			}

			docID := fmt.Sprintf("%s-%d", parsed.Title, time.Now().UTC().UnixNano())
			row := capability.DocumentRow{ID: docID, Content: parsed.Content, Metadata: metadata}
			if err := db.InsertDocument(ctx, ctx.Tenant().BrandID, row); err != nil {
				return tool.Failure(err.Error(), nil), nil
			}

			return tool.Success(nil, "", map[string]any{"documentId": docID, "title": parsed.Title}), nil
		},
	)
}
