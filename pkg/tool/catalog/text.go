// Package catalog registers the canonical agent-callable tools
// (spec §4.4) against the concrete capability port adapters built
// elsewhere in this module, following the teacher's functiontool
// generics pattern: each tool's argument struct carries jsonschema
// tags and functiontool.New derives its wire schema from them.
package catalog

import (
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/functiontool"
)

// GenerateTextArgs are the parameters for the generateText tool.
type GenerateTextArgs struct {
	Prompt string `json:"prompt" jsonschema:"required,description=The instruction or question to answer"`
}

// NewGenerateText builds the generateText tool over an LLMPort. This
// is the loop's own model exposed as a callable tool, for agent
// self-delegation (summarizing a long tool result, drafting copy)
// without a separate reason/act round trip.
func NewGenerateText(llm capability.LLMPort) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "generateText",
			Description: "Generate text from a prompt using the configured language model.",
		},
		func(ctx tool.Context, args GenerateTextArgs) (map[string]any, error) {
			text, _, _, err := llm.Generate(ctx, []capability.Message{
				{Role: "user", Content: args.Prompt},
			}, nil)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}
			return tool.Success(text, "", nil), nil
		},
	)
}
