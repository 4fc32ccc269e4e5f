package repository

import (
	"context"
	"errors"
	"time"

	"todo-backend/internal/calendar/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CredentialRepository stores OAuth credentials
type CredentialRepository interface {
	Find(ctx context.Context, userID, provider string) (*domain.Credential, error)
	Save(ctx context.Context, cred *domain.Credential) error
	Disable(ctx context.Context, userID, provider string) error
	FindExpiring(ctx context.Context, before time.Time) ([]*domain.Credential, error)
}

type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new GORM-based CredentialRepository
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Find(ctx context.Context, userID, provider string) (*domain.Credential, error) {
	var cred domain.Credential
	err := r.db.WithContext(ctx).Where("user_id = ? AND provider = ?", userID, provider).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

// Save upserts the credential by (user_id, provider)
func (r *credentialRepository) Save(ctx context.Context, cred *domain.Credential) error {
	now := time.Now()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	cred.ExpiresAt = cred.ExpiresAt.UTC()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "enabled", "updated_at"}),
	}).Create(cred).Error
}

func (r *credentialRepository) Disable(ctx context.Context, userID, provider string) error {
	return r.db.WithContext(ctx).Model(&domain.Credential{}).
		Where("user_id = ? AND provider = ?", userID, provider).
		Updates(map[string]interface{}{
			"enabled":    false,
			"updated_at": time.Now(),
		}).Error
}

// FindExpiring returns enabled credentials whose access token expires before the cutoff
func (r *credentialRepository) FindExpiring(ctx context.Context, before time.Time) ([]*domain.Credential, error) {
	var creds []*domain.Credential
	err := r.db.WithContext(ctx).Where("enabled = ? AND expires_at <= ?", true, before.UTC()).Find(&creds).Error
	return creds, err
}
