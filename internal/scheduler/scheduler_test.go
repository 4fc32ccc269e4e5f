package scheduler

import (
	"context"
	"testing"
	"time"

	"todo-backend/internal/jobs"

	"github.com/matryer/is"
)

func TestSchedule(t *testing.T) {
	is := is.New(t)
	registry := jobs.NewRegistry()
	ran := make(chan string, 4)
	registry.Register(jobs.Dispatch, func(ctx context.Context) (any, error) {
		ran <- jobs.Dispatch
		return nil, nil
	})

	s := New(time.UTC, registry)
	is.NoErr(s.Schedule(jobs.Dispatch, "@every 1s"))
	is.NoErr(s.Schedule(jobs.Water, ""))
	is.True(s.Schedule(jobs.Overdue, "not a cron spec") != nil)
	is.Equal(len(s.cron.Entries()), 1)

	s.Start()
	defer s.Stop()

	select {
	case name := <-ran:
		is.Equal(name, jobs.Dispatch)
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
