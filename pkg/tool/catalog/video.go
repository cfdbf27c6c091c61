package catalog

import (
	"context"
	"time"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/jobtracker"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/functiontool"
)

// videoPollInterval bounds how often the background poller asks the
// provider for a video job's status (spec §4.11's "bounded poll
// rate").
const videoPollInterval = 5 * time.Second

// GenerateVideoArgs are the parameters for the generateVideo tool.
// Mode is accepted and listed in the schema but is not passed on:
// VideoGenPort.Submit receives only the prompt and refImage, so every
// mode is submitted to the provider the same way, and refImage is not
// checked for presence in any mode.
type GenerateVideoArgs struct {
	Prompt   string `json:"prompt" jsonschema:"required,description=Description of the video to generate"`
	Mode     string `json:"mode,omitempty" jsonschema:"description=Generation mode,default=textToVideo,enum=textToVideo|imageToVideo|interpolation|extension|characterReference"`
	RefImage string `json:"refImage,omitempty" jsonschema:"description=Object URI of a reference image (required for all modes except textToVideo)"`
}

// NewGenerateVideo builds the generateVideo tool. Video generation is
// long-running (spec §4.11): the tool submits the job, returns a
// jobId immediately, and polls to completion in the background so
// the job survives past this request's lifetime.
func NewGenerateVideo(gen capability.VideoGenPort, store capability.ObjectStorePort, tracker *jobtracker.Tracker) (tool.CallableTool, error) {
	poller := jobtracker.NewPoller(videoPollInterval)

	return functiontool.New(
		functiontool.Config{
			Name:        "generateVideo",
			Description: "Generate a video from a text prompt, optionally conditioned on a reference image. Returns a jobId to poll for completion.",
		},
		func(ctx tool.Context, args GenerateVideoArgs) (map[string]any, error) {
			providerJobID, err := gen.Submit(ctx, args.Prompt, args.RefImage)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}

			job := tracker.Create(jobtracker.KindVideoGen)
			job.Start()
			go pollGeneration(job, poller, func(pollCtx context.Context) (capability.GenResult, bool, error) {
				return gen.Poll(pollCtx, providerJobID)
			}, store, "videoUrl")

			return tool.Success(nil, "video generation started", map[string]any{
				"jobId": job.ID,
			}), nil
		},
	)
}

// pollGeneration drives a VideoGenPort/MusicGenPort job to
// completion against jobtracker.HardCap, independent of the request
// context that started it (spec §4.11: a job must keep progressing
// even after its originating HTTP request has returned). urlField
// names the media-URL key the caller's kind of job reports
// ("videoUrl" or "musicUrl").
func pollGeneration(job *jobtracker.Job, poller *jobtracker.Poller, poll func(context.Context) (capability.GenResult, bool, error), store capability.ObjectStorePort, urlField string) {
	ctx, cancel := context.WithTimeout(context.Background(), jobtracker.HardCap)
	defer cancel()

	for {
		if err := poller.Wait(ctx); err != nil {
			job.Fail(apperr.Wrap(apperr.KindDangling, "catalog: job exceeded poll deadline", err))
			return
		}

		result, done, err := poll(ctx)
		if err != nil {
			job.Fail(err)
			return
		}
		if !done {
			job.SetProgress(job.Snapshot().Progress+5, "generating")
			continue
		}

		url, err := store.SignedURL(ctx, result.ObjectURI, defaultSignedURLExpiry)
		if err != nil {
			job.Fail(err)
			return
		}
		job.Complete(map[string]any{
			urlField:   url,
			"mimeType": result.MimeType,
			"duration": result.Duration,
		})
		return
	}
}
