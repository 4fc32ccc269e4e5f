package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"todo-backend/internal/push"
	pushdomain "todo-backend/internal/push/domain"
	pushrepo "todo-backend/internal/push/repository"
	taskrepo "todo-backend/internal/task/repository"
	"todo-backend/pkg/quiethours"
	"todo-backend/pkg/throttle"
)

const (
	// OverdueCategory is the throttle category for overdue summaries
	OverdueCategory = "overdue-summary"
	// OverdueInterval is the minimum gap between two summaries for one user
	OverdueInterval = 4 * time.Hour
)

// OverdueSummary reports one overdue summary run
type OverdueSummary struct {
	Quiet     bool `json:"quiet"`
	Users     int  `json:"users"`
	Throttled int  `json:"throttled"`
	Notified  int  `json:"notified"`
	Delivery
}

// OverdueJob sends each user a single "N tasks overdue" notification, at most
// once per OverdueInterval
type OverdueJob struct {
	taskRepo taskrepo.TaskRepository
	subRepo  pushrepo.SubscriptionRepository
	sender   push.Sender
	gate     throttle.Gate
	quiet    *quiethours.Policy
	now      func() time.Time
}

// NewOverdueJob creates an overdue summary job
func NewOverdueJob(
	taskRepo taskrepo.TaskRepository,
	subRepo pushrepo.SubscriptionRepository,
	sender push.Sender,
	gate throttle.Gate,
	quiet *quiethours.Policy,
	now func() time.Time,
) *OverdueJob {
	if now == nil {
		now = time.Now
	}
	return &OverdueJob{
		taskRepo: taskRepo,
		subRepo:  subRepo,
		sender:   sender,
		gate:     gate,
		quiet:    quiet,
		now:      now,
	}
}

func (j *OverdueJob) Run(ctx context.Context) (*OverdueSummary, error) {
	now := j.now()
	summary := &OverdueSummary{}

	if j.quiet != nil && j.quiet.IsQuiet(now) {
		log.Printf("[Overdue] Quiet hours, skipping")
		summary.Quiet = true
		return summary, nil
	}

	tasks, err := j.taskRepo.FindIncompleteWithDeadline(ctx)
	if err != nil {
		return nil, fmt.Errorf("find tasks with deadline: %w", err)
	}

	counts := make(map[string]int)
	for _, t := range tasks {
		if t.IsOverdue(now) {
			counts[t.UserID]++
		}
	}
	users := make([]string, 0, len(counts))
	for id := range counts {
		users = append(users, id)
	}
	sort.Strings(users)
	summary.Users = len(users)

	for _, userID := range users {
		ok, err := j.gate.ShouldSend(ctx, userID, OverdueCategory, now, OverdueInterval)
		if err != nil {
			return nil, fmt.Errorf("throttle check for user %s: %w", userID, err)
		}
		if !ok {
			summary.Throttled++
			continue
		}
		// Recorded before sending: a failed send waits for the next interval
		if err := j.gate.RecordSent(ctx, userID, OverdueCategory, now); err != nil {
			return nil, fmt.Errorf("record throttle for user %s: %w", userID, err)
		}
		summary.Notified++

		d, err := deliver(ctx, j.subRepo, j.sender, userID, overdueNotification(userID, counts[userID]))
		if err != nil {
			return nil, err
		}
		summary.add(d)
	}

	log.Printf("[Overdue] users=%d throttled=%d notified=%d sent=%d failed=%d",
		summary.Users, summary.Throttled, summary.Notified, summary.Sent, summary.Failed)
	return summary, nil
}

func overdueNotification(userID string, n int) pushdomain.Notification {
	body := "You have 1 overdue task"
	if n != 1 {
		body = fmt.Sprintf("You have %d overdue tasks", n)
	}
	return pushdomain.Notification{
		Title: "Overdue tasks",
		Body:  body,
		Tag:   "overdue-summary-" + userID,
		Data:  pushdomain.NotificationData{URL: "/tasks?filter=overdue"},
	}
}
