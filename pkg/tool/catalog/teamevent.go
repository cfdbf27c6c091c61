package catalog

import (
	"strconv"

	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/functiontool"
)

// CreateTeamEventArgs are the parameters for the createTeamEvent
// tool.
type CreateTeamEventArgs struct {
	Theme     string `json:"theme" jsonschema:"required,description=The event or campaign theme to plan content around"`
	PostCount int    `json:"postCount,omitempty" jsonschema:"description=Number of posts in the plan,default=3"`
}

// teamEventPlanSchema constrains the collaborator's structured
// response to a list of titled posts.
var teamEventPlanSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"posts": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":   map[string]any{"type": "string"},
					"caption": map[string]any{"type": "string"},
				},
				"required": []string{"title", "caption"},
			},
		},
	},
	"required": []string{"posts"},
}

// NewCreateTeamEvent builds the createTeamEvent tool. It delegates
// the actual planning to a second, structured-output LLM call (the
// "external collaborator" of spec §4.4) rather than synthesizing the
// plan inline, so the planning prompt and its JSON-schema contract
// can evolve independently of the main reason/act turn.
func NewCreateTeamEvent(collaborator capability.LLMPort) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "createTeamEvent",
			Description: "Plan a multi-post content campaign for a team event or theme, returning a titled, captioned post-by-post outline.",
		},
		func(ctx tool.Context, args CreateTeamEventArgs) (map[string]any, error) {
			count := args.PostCount
			if count <= 0 {
				count = 3
			}

			prompt := "Plan a " + strconv.Itoa(count) + "-post social campaign for the theme: " + args.Theme +
				". Return each post as a short title and a caption."

			text, _, err := collaborator.GenerateStructured(ctx, []capability.Message{
				{Role: "user", Content: prompt},
			}, capability.StructuredOutputConfig{Schema: teamEventPlanSchema})
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}

			return tool.Success(text, "", nil), nil
		},
	)
}
