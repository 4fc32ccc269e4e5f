// Package localsched fires local notifications at task deadlines from inside a
// running process. It is the in-process counterpart of the server dispatch job:
// it keeps one timer per task and is re-synchronised whenever the task list
// changes.
package localsched

import (
	"context"
	"log"
	"sync"
	"time"

	taskdomain "todo-backend/internal/task/domain"
)

// MaxTimerDelay is the longest delay that is scheduled. Tasks further out are
// picked up by a later Sync.
const MaxTimerDelay = 2147483647 * time.Millisecond

// Notification is what gets shown when a deadline fires
type Notification struct {
	TaskID string
	Title  string
	Body   string
	Tag    string
}

// Notifier displays a notification
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Timer is a cancellable pending call
type Timer interface {
	Stop() bool
}

// Clock abstracts time so tests can drive the scheduler
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock uses the system clock and runtime timers
var RealClock Clock = realClock{}

type entry struct {
	timer Timer
	at    time.Time
}

// Scheduler keeps a timer per task with a future deadline
type Scheduler struct {
	mu       sync.Mutex
	clock    Clock
	primary  Notifier
	fallback Notifier
	onOpen   func(taskID string)
	entries  map[string]entry
	notified map[string]bool
	closed   bool
}

// New creates a scheduler. primary may be nil when no background delivery
// surface exists; fallback is used whenever primary is missing or fails.
func New(clock Clock, primary, fallback Notifier, onOpen func(taskID string)) *Scheduler {
	if clock == nil {
		clock = RealClock
	}
	return &Scheduler{
		clock:    clock,
		primary:  primary,
		fallback: fallback,
		onOpen:   onOpen,
		entries:  make(map[string]entry),
		notified: make(map[string]bool),
	}
}

// Sync reconciles timers with the current task list
func (s *Scheduler) Sync(tasks []*taskdomain.Task) {
	now := s.clock.Now()
	var fire []Notification

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	keep := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		at, ok := t.DueAt()
		if !ok {
			continue
		}

		if !at.After(now) {
			k := key(t.ID, at)
			if !s.notified[k] {
				s.notified[k] = true
				fire = append(fire, notificationFor(t))
			}
			continue
		}

		delay := at.Sub(now)
		if delay > MaxTimerDelay {
			continue
		}
		keep[t.ID] = true

		if cur, ok := s.entries[t.ID]; ok {
			if cur.at.Equal(at) {
				continue
			}
			cur.timer.Stop()
		}
		n := notificationFor(t)
		s.entries[t.ID] = entry{
			at:    at,
			timer: s.clock.AfterFunc(delay, func() { s.fire(n, at) }),
		}
	}

	for id, e := range s.entries {
		if !keep[id] {
			e.timer.Stop()
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, n := range fire {
		s.show(n)
	}
}

// Pending returns the number of scheduled timers
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Open handles a click on a notification
func (s *Scheduler) Open(taskID string) {
	if s.onOpen != nil {
		s.onOpen(taskID)
	}
}

// Close cancels every pending timer. Later Syncs are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
	s.closed = true
}

func (s *Scheduler) fire(n Notification, at time.Time) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if cur, ok := s.entries[n.TaskID]; ok && cur.at.Equal(at) {
		delete(s.entries, n.TaskID)
	}
	k := key(n.TaskID, at)
	if s.notified[k] {
		s.mu.Unlock()
		return
	}
	s.notified[k] = true
	s.mu.Unlock()

	s.show(n)
}

func (s *Scheduler) show(n Notification) {
	ctx := context.Background()
	if s.primary != nil {
		err := s.primary.Notify(ctx, n)
		if err == nil {
			return
		}
		log.Printf("[LocalScheduler] Primary notifier failed for task %s, falling back: %v", n.TaskID, err)
	}
	if s.fallback == nil {
		return
	}
	if err := s.fallback.Notify(ctx, n); err != nil {
		log.Printf("[LocalScheduler] Fallback notifier failed for task %s: %v", n.TaskID, err)
	}
}

func notificationFor(t *taskdomain.Task) Notification {
	body := "Deadline reached"
	if t.Description != nil && *t.Description != "" {
		body = *t.Description
	}
	return Notification{
		TaskID: t.ID,
		Title:  t.Text,
		Body:   body,
		Tag:    "todo-" + t.ID,
	}
}

func key(taskID string, at time.Time) string {
	return taskID + "@" + at.UTC().Format(time.RFC3339)
}
