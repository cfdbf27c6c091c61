package generators

import (
	"context"

	"google.golang.org/genai"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

// Video implements capability.VideoGenPort over Gemini's Veo model. Veo
// generation is a long-running operation: Submit starts it and returns the
// operation name, Poll checks it until genai reports it done (spec §4.11's
// submit/poll job shape).
type Video struct {
	client *genai.Client
	model  string
	store  capability.ObjectStorePort
}

func NewVideo(cfg Config, store capability.ObjectStorePort) (*Video, error) {
	if store == nil {
		return nil, apperr.New(apperr.KindValidation, "generators: object store is required")
	}
	client, err := newClient(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	model := cfg.VideoModel
	if model == "" {
		model = "veo-2.0-generate-001"
	}
	return &Video{client: client, model: model, store: store}, nil
}

func (v *Video) Submit(ctx context.Context, prompt string, refImage string) (string, error) {
	var image *genai.Image
	if refImage != "" {
		content, mimeType, err := v.store.Get(ctx, refImage)
		if err != nil {
			return "", apperr.Wrap(apperr.KindInternal, "generators: load reference image", err)
		}
		image = &genai.Image{ImageBytes: content, MIMEType: mimeType}
	}

	op, err := v.client.Models.GenerateVideos(ctx, v.model, prompt, image, &genai.GenerateVideosConfig{})
	if err != nil {
		return "", apperr.Wrap(apperr.KindTransient, "generators: veo submit", err)
	}
	return op.Name, nil
}

func (v *Video) Poll(ctx context.Context, providerJobID string) (capability.GenResult, bool, error) {
	op, err := v.client.Operations.GetVideosOperation(ctx, &genai.GetOperationConfig{Name: providerJobID})
	if err != nil {
		return capability.GenResult{}, false, apperr.Wrap(apperr.KindTransient, "generators: veo poll", err)
	}
	if !op.Done {
		return capability.GenResult{}, false, nil
	}
	if op.Error != nil {
		return capability.GenResult{}, true, apperr.New(apperr.KindPermanent, "generators: veo job failed: "+op.Error.Message)
	}

	videos := op.Response.GeneratedVideos
	if len(videos) == 0 {
		return capability.GenResult{}, true, apperr.New(apperr.KindTransient, "generators: veo returned no videos")
	}
	video := videos[0].Video
	uri, err := v.store.Put(ctx, newObjectKey("video"), video.VideoBytes, video.MIMEType)
	if err != nil {
		return capability.GenResult{}, true, apperr.Wrap(apperr.KindInternal, "generators: store generated video", err)
	}
	return capability.GenResult{ObjectURI: uri, MimeType: video.MIMEType}, true, nil
}

var _ capability.VideoGenPort = (*Video)(nil)
