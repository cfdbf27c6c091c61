// Package generators adapts google.golang.org/genai's media endpoints to
// the image/video/music/vision capability ports (spec §4.1, §4.9–§4.11),
// following pkg/llms/gemini.go's client-wrapping shape.
package generators

import (
	"context"

	"google.golang.org/genai"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

// Config configures every generator adapter in this package; one genai
// client is shared across image/video/music/vision since they're all the
// same provider account.
type Config struct {
	APIKey      string
	ImageModel  string
	VideoModel  string
	MusicModel  string
	VisionModel string
}

func newClient(apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, apperr.New(apperr.KindValidation, "generators: api key is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "generators: create genai client", err)
	}
	return client, nil
}

// Image implements capability.ImageGenPort over Gemini's Imagen model.
// Generated bytes are written through store rather than returned inline —
// the rest of the system deals only in object URIs (spec §4.3's Media
// Resolver expects a storable reference, not raw bytes).
type Image struct {
	client *genai.Client
	model  string
	store  capability.ObjectStorePort
}

func NewImage(cfg Config, store capability.ObjectStorePort) (*Image, error) {
	if store == nil {
		return nil, apperr.New(apperr.KindValidation, "generators: object store is required")
	}
	client, err := newClient(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	model := cfg.ImageModel
	if model == "" {
		model = "imagen-3.0-generate-002"
	}
	return &Image{client: client, model: model, store: store}, nil
}

func (i *Image) Generate(ctx context.Context, prompt string, refs []string) (capability.GenResult, error) {
	resp, err := i.client.Models.GenerateImages(ctx, i.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return capability.GenResult{}, apperr.Wrap(apperr.KindTransient, "generators: imagen generate", err)
	}
	return i.storeResult(ctx, resp)
}

// Edit edits the image at sourceURI according to prompt, using Imagen's
// image-editing mode. Only the source image is sent to the model; refs
// is accepted but not used.
func (i *Image) Edit(ctx context.Context, prompt string, sourceURI string, refs []string) (capability.GenResult, error) {
	source, _, err := i.store.Get(ctx, sourceURI)
	if err != nil {
		return capability.GenResult{}, apperr.Wrap(apperr.KindInternal, "generators: load source image", err)
	}
	resp, err := i.client.Models.EditImage(ctx, i.model, prompt, &genai.Image{ImageBytes: source}, &genai.EditImageConfig{})
	if err != nil {
		return capability.GenResult{}, apperr.Wrap(apperr.KindTransient, "generators: imagen edit", err)
	}
	return i.storeResult(ctx, resp)
}

func (i *Image) storeResult(ctx context.Context, resp *genai.GenerateImagesResponse) (capability.GenResult, error) {
	if len(resp.GeneratedImages) == 0 {
		return capability.GenResult{}, apperr.New(apperr.KindTransient, "generators: imagen returned no images")
	}
	img := resp.GeneratedImages[0].Image
	uri, err := i.store.Put(ctx, newObjectKey("image"), img.ImageBytes, img.MIMEType)
	if err != nil {
		return capability.GenResult{}, apperr.Wrap(apperr.KindInternal, "generators: store generated image", err)
	}
	return capability.GenResult{ObjectURI: uri, MimeType: img.MIMEType}, nil
}

var _ capability.ImageGenPort = (*Image)(nil)
