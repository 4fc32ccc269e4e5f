package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"todo-backend/internal/task/domain"
	"todo-backend/internal/task/repository"
	"todo-backend/pkg/due"

	"cloud.google.com/go/civil"
)

// taskUsecase implements TaskUsecase interface
type taskUsecase struct {
	taskRepo     repository.TaskRepository
	templateRepo repository.TemplateRepository
	now          func() time.Time
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(taskRepo repository.TaskRepository, templateRepo repository.TemplateRepository, now func() time.Time) TaskUsecase {
	if now == nil {
		now = time.Now
	}
	return &taskUsecase{
		taskRepo:     taskRepo,
		templateRepo: templateRepo,
		now:          now,
	}
}

func (u *taskUsecase) CreateTask(ctx context.Context, userID string, req TaskInput) (*domain.Task, error) {
	task := &domain.Task{
		UserID:        userID,
		Text:          strings.TrimSpace(req.Text),
		Description:   emptyToNil(req.Description),
		ListID:        emptyToNil(req.ListID),
		DeadlineDate:  emptyToNil(req.DeadlineDate),
		DeadlineTime:  emptyToNil(req.DeadlineTime),
		RecurringRule: emptyToNil(req.RecurringRule),
	}
	if err := validateDeadline(task.DeadlineDate, task.DeadlineTime); err != nil {
		return nil, err
	}

	if err := u.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (u *taskUsecase) GetTaskByID(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if task.UserID != userID {
		return nil, ErrUnauthorized
	}
	return task, nil
}

func (u *taskUsecase) GetUserTasks(ctx context.Context, userID string, completed *bool) ([]*domain.Task, error) {
	return u.taskRepo.FindByUserID(ctx, userID, completed)
}

func (u *taskUsecase) GetOverdueTasks(ctx context.Context, userID string) ([]*domain.Task, error) {
	open := false
	tasks, err := u.taskRepo.FindByUserID(ctx, userID, &open)
	if err != nil {
		return nil, err
	}
	now := u.now()
	overdue := make([]*domain.Task, 0)
	for _, t := range tasks {
		if t.IsOverdue(now) {
			overdue = append(overdue, t)
		}
	}
	return overdue, nil
}

func (u *taskUsecase) UpdateTask(ctx context.Context, userID, taskID string, updates TaskUpdateRequest) (*domain.Task, error) {
	task, err := u.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if updates.Text != nil {
		task.Text = strings.TrimSpace(*updates.Text)
		fields["text"] = task.Text
	}
	if updates.Description != nil {
		task.Description = emptyToNil(updates.Description)
		fields["description"] = nullable(task.Description)
	}
	if updates.ListID != nil {
		task.ListID = emptyToNil(updates.ListID)
		fields["list_id"] = nullable(task.ListID)
	}

	before, _ := task.DueAt()
	beforeDate := strVal(task.DeadlineDate)
	if updates.DeadlineDate != nil {
		task.DeadlineDate = emptyToNil(updates.DeadlineDate)
		fields["deadline_date"] = nullable(task.DeadlineDate)
	}
	if updates.DeadlineTime != nil {
		task.DeadlineTime = emptyToNil(updates.DeadlineTime)
		fields["deadline_time"] = nullable(task.DeadlineTime)
	}
	if updates.RecurringRule != nil {
		task.RecurringRule = emptyToNil(updates.RecurringRule)
		fields["recurring_rule"] = nullable(task.RecurringRule)
	}
	if err := validateDeadline(task.DeadlineDate, task.DeadlineTime); err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		found, err := u.taskRepo.UpdateFields(ctx, userID, taskID, fields)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrTaskNotFound
		}
	}

	// A new deadline instant is a new notification
	after, timed := task.DueAt()
	if !before.Equal(after) || beforeDate != strVal(task.DeadlineDate) {
		var keep *time.Time
		if timed {
			keep = &after
		}
		if err := u.taskRepo.ResetNotification(ctx, taskID, keep); err != nil {
			return nil, err
		}
	}

	return u.GetTaskByID(ctx, userID, taskID)
}

func (u *taskUsecase) SetCompleted(ctx context.Context, userID, taskID string, completed bool) (*domain.Task, error) {
	found, err := u.taskRepo.UpdateFields(ctx, userID, taskID, map[string]interface{}{"completed": completed})
	if err != nil {
		return nil, err
	}
	if !found {
		// distinguishes a missing task from someone else's
		if _, err := u.GetTaskByID(ctx, userID, taskID); err != nil {
			return nil, err
		}
		return nil, ErrTaskNotFound
	}
	return u.GetTaskByID(ctx, userID, taskID)
}

func (u *taskUsecase) DeleteTask(ctx context.Context, userID, taskID string) error {
	task, err := u.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return err
	}
	return u.taskRepo.Delete(ctx, task.ID)
}

func (u *taskUsecase) CreateCommonTemplate(ctx context.Context, userID string, req TemplateInput) (*domain.CommonTask, []*domain.Task, error) {
	tpl := &domain.CommonTask{
		UserID:        userID,
		Text:          strings.TrimSpace(req.Text),
		Description:   emptyToNil(req.Description),
		ListID:        emptyToNil(req.ListID),
		DeadlineDate:  req.DeadlineDate,
		DeadlineTime:  emptyToNil(req.DeadlineTime),
		RecurringRule: emptyToNil(req.RecurringRule),
	}
	if err := validateDeadline(&tpl.DeadlineDate, tpl.DeadlineTime); err != nil {
		return nil, nil, err
	}
	if err := u.templateRepo.CreateCommon(ctx, tpl); err != nil {
		return nil, nil, err
	}

	instances := Generate(tpl, nil, due.Today(u.now()))
	if _, err := u.taskRepo.CreateMany(ctx, instances); err != nil {
		// the periodic generator will fill the window later
		log.Printf("[TaskUsecase] Failed to create instances for template %s: %v", tpl.ID, err)
		return tpl, nil, nil
	}
	return tpl, instances, nil
}

func (u *taskUsecase) CreateDailyTemplate(ctx context.Context, userID string, req DailyTemplateInput) (*domain.DailyTask, *domain.Task, error) {
	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidDeadline, tz)
	}
	if req.Time != nil && *req.Time != "" {
		if _, err := due.ParseTime(*req.Time); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDeadline, err)
		}
	}

	tpl := &domain.DailyTask{
		UserID:      userID,
		Text:        strings.TrimSpace(req.Text),
		Description: emptyToNil(req.Description),
		ListID:      emptyToNil(req.ListID),
		Time:        emptyToNil(req.Time),
		Timezone:    tz,
	}
	if err := u.templateRepo.CreateDaily(ctx, tpl); err != nil {
		return nil, nil, err
	}

	task, err := GenerateDaily(tpl, nil, u.now())
	if err != nil || task == nil {
		return tpl, nil, err
	}
	if _, err := u.taskRepo.CreateMany(ctx, []*domain.Task{task}); err != nil {
		log.Printf("[TaskUsecase] Failed to create instance for daily template %s: %v", tpl.ID, err)
		return tpl, nil, nil
	}
	return tpl, task, nil
}

func (u *taskUsecase) ListTemplates(ctx context.Context, userID string) ([]*domain.CommonTask, []*domain.DailyTask, error) {
	commons, err := u.templateRepo.ListCommonByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	dailies, err := u.templateRepo.ListDailyByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return commons, dailies, nil
}

func (u *taskUsecase) DeleteCommonTemplate(ctx context.Context, userID, id string) error {
	deleted, err := u.templateRepo.DeleteCommon(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTemplateNotFound
	}
	return nil
}

func (u *taskUsecase) DeleteDailyTemplate(ctx context.Context, userID, id string) error {
	deleted, err := u.templateRepo.DeleteDaily(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTemplateNotFound
	}
	return nil
}

// validateDeadline rejects malformed input at the API boundary. Rows already in
// the store are never rejected; the due detector treats them as not due.
func validateDeadline(date, timeOfDay *string) error {
	if date != nil {
		if _, err := civil.ParseDate(*date); err != nil {
			return fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidDeadline, *date)
		}
	}
	if timeOfDay != nil {
		if date == nil {
			return fmt.Errorf("%w: time requires a date", ErrInvalidDeadline)
		}
		if _, err := due.ParseTime(*timeOfDay); err != nil {
			return fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidDeadline, *timeOfDay)
		}
	}
	return nil
}

// nullable maps a nil pointer to SQL NULL for column updates
func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
