package generators

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

// Vision implements capability.VisionPort over Gemini's multimodal
// understanding, used offline to populate LibraryItem vision fields and
// inline by the analyzeImage tool.
type Vision struct {
	client *genai.Client
	model  string
	store  capability.ObjectStorePort
}

func NewVision(cfg Config, store capability.ObjectStorePort) (*Vision, error) {
	if store == nil {
		return nil, apperr.New(apperr.KindValidation, "generators: object store is required")
	}
	client, err := newClient(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	model := cfg.VisionModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Vision{client: client, model: model, store: store}, nil
}

type visionAnswer struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Categories  []string `json:"categories"`
}

// Analyze asks the model a free-form question about an image and parses a
// structured description/keywords/categories answer out of the response.
func (v *Vision) Analyze(ctx context.Context, imageURI string, question string) (string, []string, []string, error) {
	content, mimeType, err := v.store.Get(ctx, imageURI)
	if err != nil {
		return "", nil, nil, apperr.Wrap(apperr.KindInternal, "generators: load image for analysis", err)
	}
	if question == "" {
		question = "Describe this image and list relevant keywords and categories."
	}

	prompt := question + " Respond as JSON: {\"description\": string, \"keywords\": [string], \"categories\": [string]}."
	resp, err := v.client.Models.GenerateContent(ctx, v.model, []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{Data: content, MIMEType: mimeType}},
		},
	}}, &genai.GenerateContentConfig{ResponseMIMEType: "application/json"})
	if err != nil {
		return "", nil, nil, apperr.Wrap(apperr.KindTransient, "generators: vision analyze", err)
	}

	raw := resp.Text()
	var answer visionAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		// Not every model call honors the JSON response format request;
		// fall back to the raw text as the description rather than
		// failing the whole analysis.
		return strings.TrimSpace(raw), nil, nil, nil
	}
	return answer.Description, answer.Keywords, answer.Categories, nil
}

var _ capability.VisionPort = (*Vision)(nil)
