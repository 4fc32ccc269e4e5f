package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"todo-backend/internal/jobs"

	"github.com/robfig/cron/v3"
)

// DefaultTimeout bounds a single scheduled run
const DefaultTimeout = 5 * time.Minute

// Scheduler runs registered jobs on cron schedules. A run that is still in
// progress when its next tick arrives causes that tick to be skipped.
type Scheduler struct {
	cron     *cron.Cron
	registry *jobs.Registry
	timeout  time.Duration
}

// New creates a scheduler evaluating specs in loc
func New(loc *time.Location, registry *jobs.Registry) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		registry: registry,
		timeout:  DefaultTimeout,
	}
}

// Schedule registers the named job. An empty spec leaves the job unscheduled.
func (s *Scheduler) Schedule(name, spec string) error {
	if spec == "" {
		log.Printf("[Cron] No schedule for %s, skipping", name)
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.run(name) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	log.Printf("[Cron] Scheduled %s: %s", name, spec)
	return nil
}

// Start begins the scheduler loop
func (s *Scheduler) Start() {
	log.Printf("[Cron] Starting with %d entries", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[Cron] Scheduler stopped")
}

func (s *Scheduler) run(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	if _, err := s.registry.Run(ctx, name); err != nil {
		log.Printf("[Cron] Job %s failed after %s: %v", name, time.Since(started).Round(time.Millisecond), err)
		return
	}
	log.Printf("[Cron] Job %s finished in %s", name, time.Since(started).Round(time.Millisecond))
}
