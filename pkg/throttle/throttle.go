// Package throttle rate-limits aggregate notifications per (user, category).
//
// Callers ask ShouldSend and, when it answers true, call RecordSent. The pair is
// not atomic; two overlapping invocations may both pass ShouldSend. That is
// accepted for aggregate notifications, which are coalesced on the device by tag.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Log is one dispatched aggregate notification
type Log struct {
	ID       string    `json:"id" gorm:"primaryKey"`
	UserID   string    `json:"user_id" gorm:"index:idx_throttle_user_category;not null"`
	Category string    `json:"category" gorm:"index:idx_throttle_user_category;not null"`
	SentAt   time.Time `json:"sent_at" gorm:"index;not null"`
}

// TableName overrides the default "logs"
func (Log) TableName() string {
	return "throttle_logs"
}

// Gate decides whether enough time has passed since the last dispatch
type Gate interface {
	ShouldSend(ctx context.Context, userID, category string, now time.Time, interval time.Duration) (bool, error)
	RecordSent(ctx context.Context, userID, category string, now time.Time) error
}

// StoreGate keeps the throttle log in the database
type StoreGate struct {
	db *gorm.DB
}

// NewStoreGate creates a database-backed gate
func NewStoreGate(db *gorm.DB) *StoreGate {
	return &StoreGate{db: db}
}

func (g *StoreGate) ShouldSend(ctx context.Context, userID, category string, now time.Time, interval time.Duration) (bool, error) {
	last, err := g.LastSent(ctx, userID, category)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	return now.Sub(*last) >= interval, nil
}

func (g *StoreGate) RecordSent(ctx context.Context, userID, category string, now time.Time) error {
	return g.db.WithContext(ctx).Create(&Log{
		ID:       uuid.New().String(),
		UserID:   userID,
		Category: category,
		SentAt:   now.UTC(),
	}).Error
}

// LastSent returns the most recent dispatch time, or nil if none was logged
func (g *StoreGate) LastSent(ctx context.Context, userID, category string) (*time.Time, error) {
	var entry Log
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, category).
		Order("sent_at DESC").First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry.SentAt, nil
}

// Prune deletes log entries older than the cutoff
func (g *StoreGate) Prune(ctx context.Context, before time.Time) (int64, error) {
	res := g.db.WithContext(ctx).Where("sent_at < ?", before.UTC()).Delete(&Log{})
	return res.RowsAffected, res.Error
}

// Retention is how long log entries are kept. It exceeds every throttle interval.
const Retention = 7 * 24 * time.Hour

// PruneSummary reports one prune run
type PruneSummary struct {
	Deleted int64 `json:"deleted"`
}

// PruneJob removes log entries older than the retention
type PruneJob struct {
	gate      *StoreGate
	retention time.Duration
	now       func() time.Time
}

func NewPruneJob(gate *StoreGate, retention time.Duration, now func() time.Time) *PruneJob {
	if now == nil {
		now = time.Now
	}
	if retention <= 0 {
		retention = Retention
	}
	return &PruneJob{gate: gate, retention: retention, now: now}
}

func (j *PruneJob) Run(ctx context.Context) (*PruneSummary, error) {
	deleted, err := j.gate.Prune(ctx, j.now().Add(-j.retention))
	if err != nil {
		return nil, fmt.Errorf("prune throttle log: %w", err)
	}
	if deleted > 0 {
		log.Printf("[Throttle] Pruned %d log entries", deleted)
	}
	return &PruneSummary{Deleted: deleted}, nil
}
