package jobtracker

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs Tracker.Sweep on a fixed cron schedule, grounded on
// the teacher's sibling-pack workflow scheduler
// (teradata-labs-loom/pkg/scheduler's cron.New/AddFunc/Start/Stop
// shape), narrowed from arbitrary per-workflow cron expressions to
// the job tracker's single periodic hard-cap sweep (spec §4.11).
type Scheduler struct {
	engine *cron.Cron
	entry  cron.EntryID
}

// NewScheduler builds a Scheduler that sweeps tracker every interval.
// A zero or negative interval defaults to one minute.
func NewScheduler(tracker *Tracker, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		interval = time.Minute
	}
	engine := cron.New()
	spec := "@every " + interval.String()
	entry, err := engine.AddFunc(spec, func() {
		tracker.Sweep(time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{engine: engine, entry: entry}, nil
}

// Start begins running the sweep on its schedule. Non-blocking: cron
// runs its own goroutine internally.
func (s *Scheduler) Start() {
	s.engine.Start()
}

// Stop halts the schedule and waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	<-s.engine.Stop().Done()
}
