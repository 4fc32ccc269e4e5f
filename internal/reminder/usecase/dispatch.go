package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"todo-backend/internal/push"
	pushdomain "todo-backend/internal/push/domain"
	pushrepo "todo-backend/internal/push/repository"
	"todo-backend/internal/task/domain"
	taskrepo "todo-backend/internal/task/repository"
	"todo-backend/pkg/quiethours"
)

// DispatchSummary reports one reminder dispatch run
type DispatchSummary struct {
	Quiet   bool `json:"quiet"`
	Due     int  `json:"due"`
	Claimed int  `json:"claimed"`
	Delivery
}

// DispatchJob pushes a notification for every task whose deadline has passed.
// Each deadline instant is claimed before sending, so overlapping runs notify
// at most once.
type DispatchJob struct {
	taskRepo taskrepo.TaskRepository
	subRepo  pushrepo.SubscriptionRepository
	sender   push.Sender
	quiet    *quiethours.Policy
	now      func() time.Time
}

// NewDispatchJob creates a dispatch job. A nil quiet policy never suppresses.
func NewDispatchJob(
	taskRepo taskrepo.TaskRepository,
	subRepo pushrepo.SubscriptionRepository,
	sender push.Sender,
	quiet *quiethours.Policy,
	now func() time.Time,
) *DispatchJob {
	if now == nil {
		now = time.Now
	}
	return &DispatchJob{
		taskRepo: taskRepo,
		subRepo:  subRepo,
		sender:   sender,
		quiet:    quiet,
		now:      now,
	}
}

// Run performs one dispatch pass. Store failures abort the run; delivery
// failures are counted in the summary.
func (j *DispatchJob) Run(ctx context.Context) (*DispatchSummary, error) {
	now := j.now()
	summary := &DispatchSummary{}

	if j.quiet != nil && j.quiet.IsQuiet(now) {
		log.Printf("[Dispatch] Quiet hours, skipping")
		summary.Quiet = true
		return summary, nil
	}

	tasks, err := j.taskRepo.FindPendingReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("find pending reminders: %w", err)
	}

	for _, task := range tasks {
		if !task.IsDue(now) {
			continue
		}
		summary.Due++

		instant, _ := task.DueAt()
		won, err := j.taskRepo.ClaimNotification(ctx, task.ID, instant)
		if err != nil {
			return nil, fmt.Errorf("claim task %s: %w", task.ID, err)
		}
		if !won {
			log.Printf("[Dispatch] Task %s already claimed, skipping", task.ID)
			continue
		}
		summary.Claimed++

		d, err := deliver(ctx, j.subRepo, j.sender, task.UserID, reminderFor(task, instant))
		if err != nil {
			return nil, err
		}
		summary.add(d)
	}

	if summary.Due > 0 {
		log.Printf("[Dispatch] due=%d claimed=%d sent=%d failed=%d removed=%d",
			summary.Due, summary.Claimed, summary.Sent, summary.Failed, summary.Removed)
	}
	return summary, nil
}

func reminderFor(task *domain.Task, instant time.Time) pushdomain.Notification {
	body := fmt.Sprintf("Due %s UTC", instant.Format("Jan 2, 15:04"))
	if task.Description != nil && *task.Description != "" {
		body = *task.Description + "\n" + body
	}
	return pushdomain.Notification{
		Title: "⏰ " + task.Text,
		Body:  body,
		Tag:   "todo-" + task.ID,
		Data: pushdomain.NotificationData{
			TaskID: task.ID,
			URL:    "/tasks/" + task.ID,
		},
	}
}
