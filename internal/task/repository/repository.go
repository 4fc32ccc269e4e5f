package repository

import (
	"context"
	"time"

	"todo-backend/internal/task/domain"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *domain.Task) error

	// CreateMany inserts generated instances, silently skipping any whose
	// (template_id, occurrence_date) already exists. Returns the number inserted.
	CreateMany(ctx context.Context, tasks []*domain.Task) (int, error)

	// FindByID finds a task by its ID
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// FindByUserID finds all tasks for a user, optionally filtered by completion
	FindByUserID(ctx context.Context, userID string, completed *bool) ([]*domain.Task, error)

	// FindByTemplate returns every instance spawned from the template, completed or not
	FindByTemplate(ctx context.Context, templateID string) ([]*domain.Task, error)

	// FindPendingReminders returns incomplete tasks that have a deadline date and
	// have not been notified yet
	FindPendingReminders(ctx context.Context) ([]*domain.Task, error)

	// FindIncompleteWithDeadline returns incomplete tasks that have a deadline date
	FindIncompleteWithDeadline(ctx context.Context) ([]*domain.Task, error)

	// UpdateFields writes only the given columns of a user's task and reports
	// whether the task was found. notified_at is never written here.
	UpdateFields(ctx context.Context, userID, id string, fields map[string]interface{}) (bool, error)

	// Delete deletes a task by ID
	Delete(ctx context.Context, id string) error

	// ClaimNotification sets notified_at to the deadline instant only if it is
	// currently unset, in a single conditional write. Returns true iff this call
	// performed the write.
	ClaimNotification(ctx context.Context, id string, deadline time.Time) (bool, error)

	// ResetNotification clears a claim unless it already belongs to deadline.
	// A nil deadline clears any claim.
	ResetNotification(ctx context.Context, id string, deadline *time.Time) error
}

// TemplateRepository gives the generator access to task templates
type TemplateRepository interface {
	CreateCommon(ctx context.Context, tpl *domain.CommonTask) error
	ListCommon(ctx context.Context) ([]*domain.CommonTask, error)
	ListCommonByUser(ctx context.Context, userID string) ([]*domain.CommonTask, error)
	DeleteCommon(ctx context.Context, userID, id string) (bool, error)

	CreateDaily(ctx context.Context, tpl *domain.DailyTask) error
	ListDaily(ctx context.Context) ([]*domain.DailyTask, error)
	ListDailyByUser(ctx context.Context, userID string) ([]*domain.DailyTask, error)
	DeleteDaily(ctx context.Context, userID, id string) (bool, error)
}
