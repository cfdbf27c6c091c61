package catalog

import (
	"github.com/brandloom/agentforge/pkg/memory"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/functiontool"
)

// RecallMemoryArgs are the parameters for the recallMemory tool.
type RecallMemoryArgs struct {
	Query string `json:"query" jsonschema:"required,description=What to recall about this user"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum facts to return,default=5"`
}

// NewRecallMemory builds the recallMemory tool over the Memory Store
// (C6), scoped to the calling tenant.
func NewRecallMemory(store memory.Store) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "recallMemory",
			Description: "Recall durable facts previously saved about this user (preferences, prior decisions, recurring details).",
		},
		func(ctx tool.Context, args RecallMemoryArgs) (map[string]any, error) {
			limit := args.Limit
			if limit <= 0 {
				limit = 5
			}
			t := ctx.Tenant()
			facts, err := store.Recall(ctx, t.BrandID, t.UserID, args.Query, limit)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}
			return tool.Success(facts, "", nil), nil
		},
	)
}

// SaveMemoryArgs are the parameters for the saveMemory tool.
type SaveMemoryArgs struct {
	Content string `json:"content" jsonschema:"required,description=A durable fact about this user worth remembering across sessions"`
}

// NewSaveMemory builds the saveMemory tool. Unlike the loop's
// automatic post-turn extraction, this lets the model explicitly
// save a fact mid-turn when the user states something worth
// remembering outright.
func NewSaveMemory(store memory.Store) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "saveMemory",
			Description: "Save a durable fact about this user for recall in future sessions.",
		},
		func(ctx tool.Context, args SaveMemoryArgs) (map[string]any, error) {
			t := ctx.Tenant()
			factID, err := store.ExtractAndSave(ctx, t.BrandID, t.UserID, args.Content)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}
			return tool.Success(nil, "", map[string]any{"factId": factID}), nil
		},
	)
}
