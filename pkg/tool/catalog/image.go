package catalog

import (
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/functiontool"
)

const defaultSignedURLExpiry = 3600 // seconds

// GenerateImageArgs are the parameters for the generateImage tool.
type GenerateImageArgs struct {
	Prompt         string   `json:"prompt" jsonschema:"required,description=Description of the image to generate"`
	ReferenceUris  []string `json:"referenceUris,omitempty" jsonschema:"description=Object URIs of reference images to condition generation on"`
}

// NewGenerateImage builds the generateImage tool over an
// ImageGenPort, signing the resulting object into a fetchable URL
// (spec §4.4's imageUrl field).
func NewGenerateImage(gen capability.ImageGenPort, store capability.ObjectStorePort) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "generateImage",
			Description: "Generate a new image from a text prompt, optionally conditioned on reference images.",
		},
		func(ctx tool.Context, args GenerateImageArgs) (map[string]any, error) {
			res, err := gen.Generate(ctx, args.Prompt, args.ReferenceUris)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}
			return signedImageEnvelope(ctx, store, res)
		},
	)
}

// EditOrComposeImageArgs are the parameters for the
// editOrComposeImage tool.
type EditOrComposeImageArgs struct {
	Prompt        string   `json:"prompt" jsonschema:"required,description=Instruction describing the edit or composition to perform"`
	SourceURI     string   `json:"sourceUri" jsonschema:"required,description=Object URI of the image to edit"`
	ReferenceUris []string `json:"referenceUris,omitempty" jsonschema:"description=Additional object URIs to compose into the edit"`
}

// NewEditOrComposeImage builds the editOrComposeImage tool.
func NewEditOrComposeImage(gen capability.ImageGenPort, store capability.ObjectStorePort) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "editOrComposeImage",
			Description: "Edit an existing image or compose it with reference images according to an instruction.",
		},
		func(ctx tool.Context, args EditOrComposeImageArgs) (map[string]any, error) {
			res, err := gen.Edit(ctx, args.Prompt, args.SourceURI, args.ReferenceUris)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}
			return signedImageEnvelope(ctx, store, res)
		},
	)
}

func signedImageEnvelope(ctx tool.Context, store capability.ObjectStorePort, res capability.GenResult) (map[string]any, error) {
	url, err := store.SignedURL(ctx, res.ObjectURI, defaultSignedURLExpiry)
	if err != nil {
		return tool.Failure(err.Error(), nil), nil
	}
	return tool.Success(url, "", map[string]any{
		"imageUrl": url,
		"mimeType": res.MimeType,
		"width":    res.Width,
		"height":   res.Height,
	}), nil
}
