// Package jobtracker implements the Long-Running Job Tracker (C11):
// bookkeeping for asynchronous operations (reindex, media generation,
// crawl) that outlive a single request/response cycle.
package jobtracker

import (
	"sync"
	"time"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/google/uuid"
)

// Kind identifies the operation a Job tracks (spec §3).
type Kind string

const (
	KindReindex  Kind = "reindex"
	KindVideoGen Kind = "videoGen"
	KindImageGen Kind = "imageGen"
	KindMusicGen Kind = "musicGen"
	KindCrawl    Kind = "crawl"
)

// State is a Job's position in its lifecycle (spec §3).
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// IsTerminal reports whether s admits no further transitions.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job is a unit of long-running work (spec §3). Progress is
// monotonically non-decreasing for the life of the job: SetProgress
// clamps to max(current, new) rather than accepting the raw value, so
// a late-arriving stale update from a worker can never make a job's
// reported progress go backwards.
type Job struct {
	ID          string    `json:"jobId"`
	Kind        Kind      `json:"kind"`
	State       State     `json:"state"`
	Progress    int       `json:"progress"`
	Message     string    `json:"message,omitempty"`
	Result      any       `json:"result,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`

	mu sync.RWMutex
}

// New creates a queued Job of the given kind.
func New(kind Kind) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		State:     StateQueued,
		StartedAt: time.Now(),
	}
}

// Snapshot is a point-in-time, lock-free copy of a Job safe to
// serialize or hand to a caller outside the tracker's lock.
type Snapshot struct {
	ID          string    `json:"jobId"`
	Kind        Kind      `json:"kind"`
	State       State     `json:"state"`
	Progress    int       `json:"progress"`
	Message     string    `json:"message,omitempty"`
	Result      any       `json:"result,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}

func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Snapshot{
		ID:          j.ID,
		Kind:        j.Kind,
		State:       j.State,
		Progress:    j.Progress,
		Message:     j.Message,
		Result:      j.Result,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// Start transitions a queued job into processing.
func (j *Job) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.State == StateQueued {
		j.State = StateProcessing
	}
}

// SetProgress clamps progress to [0,100] and to be non-decreasing,
// and updates the status message. No-op on a job already terminal.
func (j *Job) SetProgress(progress int, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.State.IsTerminal() {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress > j.Progress {
		j.Progress = progress
	}
	j.Message = message
}

// Complete marks the job completed with its final result.
func (j *Job) Complete(result any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.State.IsTerminal() {
		return
	}
	j.State = StateCompleted
	j.Progress = 100
	j.Result = result
	j.CompletedAt = time.Now()
}

// Fail marks the job failed with a terminal error. The error's
// apperr.Kind is not retried by the tracker; retry policy, if any,
// lives in the caller that dispatched the job.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.State.IsTerminal() {
		return
	}
	j.State = StateFailed
	j.Message = err.Error()
	j.CompletedAt = time.Now()
}

// ErrJobNotFound is returned by Tracker.Get for an unknown job ID.
var ErrJobNotFound = apperr.New(apperr.KindNotFound, "job not found")
