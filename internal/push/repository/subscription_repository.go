package repository

import (
	"context"
	"errors"
	"time"

	pushdomain "todo-backend/internal/push/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository defines the interface for push subscription operations
type SubscriptionRepository interface {
	SaveToken(ctx context.Context, userID, token, deviceInfo string) error
	GetByUserID(ctx context.Context, userID string) ([]pushdomain.Subscription, error)
	DeleteToken(ctx context.Context, token string) error
	DeleteUserToken(ctx context.Context, userID, token string) error
}

// subscriptionRepository implements SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new instance of subscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{
		db: db,
	}
}

// SaveToken saves or updates a device token for a user (atomic upsert)
func (r *subscriptionRepository) SaveToken(ctx context.Context, userID, token, deviceInfo string) error {
	sub := &pushdomain.Subscription{
		ID:         uuid.New().String(),
		UserID:     userID,
		Token:      token,
		DeviceInfo: deviceInfo,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	// Atomic upsert: INSERT ... ON CONFLICT (token) DO UPDATE
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "device_info", "updated_at"}),
	}).Create(sub).Error
}

// GetByUserID returns all subscriptions for a user
func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) ([]pushdomain.Subscription, error) {
	var subs []pushdomain.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// DeleteToken removes a token, used when the transport reports it gone
func (r *subscriptionRepository) DeleteToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&pushdomain.Subscription{}).Error
}

// DeleteUserToken removes a token owned by the user
func (r *subscriptionRepository) DeleteUserToken(ctx context.Context, userID, token string) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND token = ?", userID, token).Delete(&pushdomain.Subscription{}).Error
}

// PreferenceRepository stores notification opt-ins
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*pushdomain.Preference, error)
	Save(ctx context.Context, pref *pushdomain.Preference) error
	ListWaterReminderUsers(ctx context.Context) ([]string, error)
}

type preferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new GORM-based PreferenceRepository
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) Get(ctx context.Context, userID string) (*pushdomain.Preference, error) {
	var pref pushdomain.Preference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

func (r *preferenceRepository) Save(ctx context.Context, pref *pushdomain.Preference) error {
	pref.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"water_reminders", "updated_at"}),
	}).Create(pref).Error
}

func (r *preferenceRepository) ListWaterReminderUsers(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&pushdomain.Preference{}).
		Where("water_reminders = ?", true).Pluck("user_id", &ids).Error
	return ids, err
}
