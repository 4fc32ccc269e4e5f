package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"todo-backend/internal/calendar/repository"
)

// RefreshSummary reports one credential refresh run
type RefreshSummary struct {
	Checked   int `json:"checked"`
	Refreshed int `json:"refreshed"`
	Revoked   int `json:"revoked"`
	Transient int `json:"transient"`
}

// RefreshJob refreshes every enabled credential that expires within RefreshBuffer
type RefreshJob struct {
	repo      repository.CredentialRepository
	refresher *Refresher
}

func NewRefreshJob(repo repository.CredentialRepository, refresher *Refresher) *RefreshJob {
	return &RefreshJob{repo: repo, refresher: refresher}
}

func (j *RefreshJob) Run(ctx context.Context) (*RefreshSummary, error) {
	creds, err := j.repo.FindExpiring(ctx, j.refresher.now().Add(RefreshBuffer))
	if err != nil {
		return nil, fmt.Errorf("find expiring credentials: %w", err)
	}

	summary := &RefreshSummary{Checked: len(creds)}
	for _, cred := range creds {
		_, err := j.refresher.Refresh(ctx, cred)
		switch {
		case err == nil:
			summary.Refreshed++
		case errors.Is(err, ErrReauthorize):
			summary.Revoked++
		case errors.Is(err, ErrTransient):
			summary.Transient++
		default:
			return nil, err
		}
	}

	if summary.Checked > 0 {
		log.Printf("[Refresher] checked=%d refreshed=%d revoked=%d transient=%d",
			summary.Checked, summary.Refreshed, summary.Revoked, summary.Transient)
	}
	return summary, nil
}
