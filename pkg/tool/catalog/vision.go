package catalog

import (
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/functiontool"
)

// AnalyzeImageArgs are the parameters for the analyzeImage tool.
type AnalyzeImageArgs struct {
	ImageURI string `json:"imageUri" jsonschema:"required,description=Object URI of the image to analyze"`
	Question string `json:"question,omitempty" jsonschema:"description=A specific question to answer about the image; if omitted a general description is returned"`
}

// NewAnalyzeImage builds the analyzeImage tool over a VisionPort.
func NewAnalyzeImage(vision capability.VisionPort) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "analyzeImage",
			Description: "Analyze an image, returning a description, keywords, and categories, optionally answering a specific question.",
		},
		func(ctx tool.Context, args AnalyzeImageArgs) (map[string]any, error) {
			description, keywords, categories, err := vision.Analyze(ctx, args.ImageURI, args.Question)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}
			return tool.Success(description, "", map[string]any{
				"keywords":   keywords,
				"categories": categories,
			}), nil
		},
	)
}
