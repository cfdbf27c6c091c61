package catalog

import (
	"context"

	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/jobtracker"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/functiontool"
)

// GenerateMusicArgs are the parameters for the generateMusic tool.
type GenerateMusicArgs struct {
	Prompt          string  `json:"prompt" jsonschema:"required,description=Description of the music to generate"`
	DurationSeconds float64 `json:"durationSeconds,omitempty" jsonschema:"description=Desired track length in seconds,default=30"`
}

// NewGenerateMusic builds the generateMusic tool, following the same
// submit/poll/jobId shape as generateVideo (spec §4.11).
func NewGenerateMusic(gen capability.MusicGenPort, store capability.ObjectStorePort, tracker *jobtracker.Tracker) (tool.CallableTool, error) {
	poller := jobtracker.NewPoller(videoPollInterval)

	return functiontool.New(
		functiontool.Config{
			Name:        "generateMusic",
			Description: "Generate a music track from a text prompt. Returns a jobId to poll for completion.",
		},
		func(ctx tool.Context, args GenerateMusicArgs) (map[string]any, error) {
			duration := args.DurationSeconds
			if duration <= 0 {
				duration = 30
			}

			providerJobID, err := gen.Submit(ctx, args.Prompt, duration)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}

			job := tracker.Create(jobtracker.KindMusicGen)
			job.Start()
			go pollGeneration(job, poller, func(pollCtx context.Context) (capability.GenResult, bool, error) {
				return gen.Poll(pollCtx, providerJobID)
			}, store, "musicUrl")

			return tool.Success(nil, "music generation started", map[string]any{
				"jobId": job.ID,
			}), nil
		},
	)
}
