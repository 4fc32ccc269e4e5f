package usecase

import (
	"context"
	"errors"

	"todo-backend/internal/task/domain"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidDeadline  = errors.New("invalid deadline")
)

// TaskUsecase defines the interface for task business logic
type TaskUsecase interface {
	// CreateTask creates a new task manually
	CreateTask(ctx context.Context, userID string, req TaskInput) (*domain.Task, error)

	// GetTaskByID retrieves a task by ID (with ownership check)
	GetTaskByID(ctx context.Context, userID, taskID string) (*domain.Task, error)

	// GetUserTasks retrieves all tasks for a user with optional completion filter
	GetUserTasks(ctx context.Context, userID string, completed *bool) ([]*domain.Task, error)

	// GetOverdueTasks returns the user's incomplete tasks whose deadline has passed
	GetOverdueTasks(ctx context.Context, userID string) ([]*domain.Task, error)

	// UpdateTask updates an existing task
	UpdateTask(ctx context.Context, userID, taskID string, updates TaskUpdateRequest) (*domain.Task, error)

	// SetCompleted toggles completion
	SetCompleted(ctx context.Context, userID, taskID string, completed bool) (*domain.Task, error)

	// DeleteTask deletes a task
	DeleteTask(ctx context.Context, userID, taskID string) error

	// CreateCommonTemplate stores a template and materialises its first instances
	CreateCommonTemplate(ctx context.Context, userID string, req TemplateInput) (*domain.CommonTask, []*domain.Task, error)

	// CreateDailyTemplate stores a daily template and materialises tomorrow's instance
	CreateDailyTemplate(ctx context.Context, userID string, req DailyTemplateInput) (*domain.DailyTask, *domain.Task, error)

	// ListTemplates returns the user's common and daily templates
	ListTemplates(ctx context.Context, userID string) ([]*domain.CommonTask, []*domain.DailyTask, error)

	// DeleteCommonTemplate removes a template; spawned instances stay
	DeleteCommonTemplate(ctx context.Context, userID, id string) error

	// DeleteDailyTemplate removes a daily template; spawned instances stay
	DeleteDailyTemplate(ctx context.Context, userID, id string) error
}

// TaskInput represents a new task
type TaskInput struct {
	Text          string  `json:"text" binding:"required"`
	Description   *string `json:"description"`
	ListID        *string `json:"list_id"`
	DeadlineDate  *string `json:"deadline_date"`
	DeadlineTime  *string `json:"deadline_time"`
	RecurringRule *string `json:"recurring_rule"`
}

// TaskUpdateRequest represents the fields that can be updated.
// An empty string clears an optional field.
type TaskUpdateRequest struct {
	Text          *string `json:"text,omitempty"`
	Description   *string `json:"description,omitempty"`
	ListID        *string `json:"list_id,omitempty"`
	DeadlineDate  *string `json:"deadline_date,omitempty"`
	DeadlineTime  *string `json:"deadline_time,omitempty"`
	RecurringRule *string `json:"recurring_rule,omitempty"`
}

// TemplateInput represents a new common template
type TemplateInput struct {
	Text          string  `json:"text" binding:"required"`
	Description   *string `json:"description"`
	ListID        *string `json:"list_id"`
	DeadlineDate  string  `json:"deadline_date" binding:"required"`
	DeadlineTime  *string `json:"deadline_time"`
	RecurringRule *string `json:"recurring_rule"`
}

// DailyTemplateInput represents a new daily template
type DailyTemplateInput struct {
	Text        string  `json:"text" binding:"required"`
	Description *string `json:"description"`
	ListID      *string `json:"list_id"`
	Time        *string `json:"time"`
	Timezone    string  `json:"timezone"`
}
