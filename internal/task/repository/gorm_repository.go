package repository

import (
	"context"
	"errors"
	"time"

	"todo-backend/internal/task/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *gormTaskRepository) CreateMany(ctx context.Context, tasks []*domain.Task) (int, error) {
	inserted := 0
	for _, task := range tasks {
		if task.ID == "" {
			task.ID = uuid.New().String()
		}
		task.CreatedAt = time.Now()
		task.UpdatedAt = time.Now()

		// INSERT ... ON CONFLICT DO NOTHING against idx_task_template_occurrence
		res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(task)
		if res.Error != nil {
			return inserted, res.Error
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}

func (r *gormTaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) FindByUserID(ctx context.Context, userID string, completed *bool) ([]*domain.Task, error) {
	var tasks []*domain.Task

	query := r.db.WithContext(ctx).Model(&domain.Task{}).Where("user_id = ?", userID)
	if completed != nil {
		query = query.Where("completed = ?", *completed)
	}

	// Tasks without a deadline go last
	err := query.Order("CASE WHEN deadline_date IS NULL THEN 1 ELSE 0 END, deadline_date ASC, deadline_time ASC, created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) FindByTemplate(ctx context.Context, templateID string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.WithContext(ctx).Where("template_id = ?", templateID).
		Order("occurrence_date ASC").Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) FindPendingReminders(ctx context.Context) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.WithContext(ctx).
		Where("completed = ? AND deadline_date IS NOT NULL AND notified_at IS NULL", false).
		Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) FindIncompleteWithDeadline(ctx context.Context) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.WithContext(ctx).
		Where("completed = ? AND deadline_date IS NOT NULL", false).
		Order("user_id").Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) UpdateFields(ctx context.Context, userID, id string, fields map[string]interface{}) (bool, error) {
	values := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		if k == "notified_at" {
			continue
		}
		values[k] = v
	}
	values["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormTaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id).Error
}

func (r *gormTaskRepository) ClaimNotification(ctx context.Context, id string, deadline time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND notified_at IS NULL", id).
		Updates(map[string]interface{}{
			"notified_at": deadline.UTC(),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormTaskRepository) ResetNotification(ctx context.Context, id string, deadline *time.Time) error {
	q := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND notified_at IS NOT NULL", id)
	if deadline != nil {
		q = q.Where("notified_at <> ?", deadline.UTC())
	}
	return q.Updates(map[string]interface{}{
		"notified_at": nil,
		"updated_at":  time.Now(),
	}).Error
}

// gormTemplateRepository implements TemplateRepository using GORM
type gormTemplateRepository struct {
	db *gorm.DB
}

// NewGormTemplateRepository creates a new GORM-based TemplateRepository
func NewGormTemplateRepository(db *gorm.DB) TemplateRepository {
	return &gormTemplateRepository{db: db}
}

func (r *gormTemplateRepository) CreateCommon(ctx context.Context, tpl *domain.CommonTask) error {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	tpl.CreatedAt = time.Now()
	tpl.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *gormTemplateRepository) ListCommon(ctx context.Context) ([]*domain.CommonTask, error) {
	var tpls []*domain.CommonTask
	err := r.db.WithContext(ctx).Order("created_at").Find(&tpls).Error
	return tpls, err
}

func (r *gormTemplateRepository) ListCommonByUser(ctx context.Context, userID string) ([]*domain.CommonTask, error) {
	var tpls []*domain.CommonTask
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&tpls).Error
	return tpls, err
}

// DeleteCommon removes the template only; spawned instances are kept
func (r *gormTemplateRepository) DeleteCommon(ctx context.Context, userID, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.CommonTask{})
	return res.RowsAffected > 0, res.Error
}

func (r *gormTemplateRepository) CreateDaily(ctx context.Context, tpl *domain.DailyTask) error {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	tpl.CreatedAt = time.Now()
	tpl.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *gormTemplateRepository) ListDaily(ctx context.Context) ([]*domain.DailyTask, error) {
	var tpls []*domain.DailyTask
	err := r.db.WithContext(ctx).Order("created_at").Find(&tpls).Error
	return tpls, err
}

func (r *gormTemplateRepository) ListDailyByUser(ctx context.Context, userID string) ([]*domain.DailyTask, error) {
	var tpls []*domain.DailyTask
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&tpls).Error
	return tpls, err
}

func (r *gormTemplateRepository) DeleteDaily(ctx context.Context, userID, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.DailyTask{})
	return res.RowsAffected > 0, res.Error
}
