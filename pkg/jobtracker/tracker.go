package jobtracker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HardCap is the maximum lifetime of a job before the tracker force-
// fails it (spec §4.11): providers that never resolve a generation
// request must not hold a slot forever.
const HardCap = 30 * time.Minute

// Tracker manages Job lifecycle, modeled on the teacher's in-memory
// task service (map + RWMutex, no background goroutine holding the
// lock across blocking provider calls).
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*Job)}
}

// Create registers a new queued job and returns it.
func (t *Tracker) Create(kind Kind) *Job {
	j := New(kind)
	t.mu.Lock()
	t.jobs[j.ID] = j
	t.mu.Unlock()
	return j
}

// Get returns the job with the given ID.
func (t *Tracker) Get(id string) (*Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j, nil
}

// Sweep force-fails any non-terminal job older than HardCap. Intended
// to run on a periodic timer from the caller (e.g. alongside cron
// reindex scheduling); it never blocks on a provider call itself.
func (t *Tracker) Sweep(now time.Time) {
	t.mu.RLock()
	jobs := make([]*Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		jobs = append(jobs, j)
	}
	t.mu.RUnlock()

	for _, j := range jobs {
		snap := j.Snapshot()
		if snap.State.IsTerminal() {
			continue
		}
		if now.Sub(snap.StartedAt) > HardCap {
			j.Fail(errHardCapExceeded)
		}
	}
}

var errHardCapExceeded = &capError{}

type capError struct{}

func (*capError) Error() string { return "job exceeded hard time cap without resolving" }

// Poller bounds how often a caller may ask a remote provider for the
// status of a job (spec §4.11: "bounded poll rate" on video/music
// generation jobs, which are typically backed by a slow async
// provider API). One Poller instance is shared across jobs of the
// same kind so a burst of callers can't exceed the provider's rate
// limit in aggregate.
type Poller struct {
	limiter *rate.Limiter
}

// NewPoller builds a Poller allowing at most 1 request every interval,
// with a burst of 1 (no queued bursts — callers wait their turn).
func NewPoller(interval time.Duration) *Poller {
	return &Poller{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next poll slot is available or ctx is done.
func (p *Poller) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
