package generators

import (
	"context"

	"google.golang.org/genai"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

// Music implements capability.MusicGenPort over Gemini's Lyria model,
// following Video's submit/poll shape.
type Music struct {
	client *genai.Client
	model  string
	store  capability.ObjectStorePort
}

func NewMusic(cfg Config, store capability.ObjectStorePort) (*Music, error) {
	if store == nil {
		return nil, apperr.New(apperr.KindValidation, "generators: object store is required")
	}
	client, err := newClient(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	model := cfg.MusicModel
	if model == "" {
		model = "lyria-002"
	}
	return &Music{client: client, model: model, store: store}, nil
}

func (m *Music) Submit(ctx context.Context, prompt string, durationSeconds float64) (string, error) {
	op, err := m.client.Models.GenerateMusic(ctx, m.model, prompt, &genai.GenerateMusicConfig{
		DurationSeconds: durationSeconds,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindTransient, "generators: lyria submit", err)
	}
	return op.Name, nil
}

func (m *Music) Poll(ctx context.Context, providerJobID string) (capability.GenResult, bool, error) {
	op, err := m.client.Operations.GetMusicOperation(ctx, &genai.GetOperationConfig{Name: providerJobID})
	if err != nil {
		return capability.GenResult{}, false, apperr.Wrap(apperr.KindTransient, "generators: lyria poll", err)
	}
	if !op.Done {
		return capability.GenResult{}, false, nil
	}
	if op.Error != nil {
		return capability.GenResult{}, true, apperr.New(apperr.KindPermanent, "generators: lyria job failed: "+op.Error.Message)
	}

	tracks := op.Response.GeneratedAudio
	if len(tracks) == 0 {
		return capability.GenResult{}, true, apperr.New(apperr.KindTransient, "generators: lyria returned no audio")
	}
	audio := tracks[0].Audio
	uri, err := m.store.Put(ctx, newObjectKey("music"), audio.AudioBytes, audio.MIMEType)
	if err != nil {
		return capability.GenResult{}, true, apperr.Wrap(apperr.KindInternal, "generators: store generated audio", err)
	}
	return capability.GenResult{ObjectURI: uri, MimeType: audio.MIMEType}, true, nil
}

var _ capability.MusicGenPort = (*Music)(nil)
