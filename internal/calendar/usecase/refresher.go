package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"todo-backend/internal/calendar/domain"
	"todo-backend/internal/calendar/repository"

	"golang.org/x/oauth2"
)

const (
	// RefreshBuffer is how long before expiry a token is refreshed
	RefreshBuffer = 5 * time.Minute
	// MaxRefreshAttempts bounds provider calls per refresh
	MaxRefreshAttempts = 3
	// BaseBackoff is the delay after the first failed attempt; it doubles each retry
	BaseBackoff = time.Second
)

var (
	// ErrNotConnected means the user never granted calendar access
	ErrNotConnected = errors.New("calendar not connected")
	// ErrReauthorize means the grant was revoked and the user must reconnect
	ErrReauthorize = errors.New("calendar access revoked, reauthorization required")
	// ErrTransient means the refresh failed for now and may succeed later
	ErrTransient = errors.New("calendar token refresh temporarily failed")
)

// TokenRefresher calls the OAuth provider's refresh endpoint
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*domain.Token, error)
}

// Refresher keeps calendar credentials usable. A revoked grant disables the
// credential; any other failure leaves it enabled for the next attempt.
type Refresher struct {
	repo     repository.CredentialRepository
	provider TokenRefresher
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRefresher creates a refresher
func NewRefresher(repo repository.CredentialRepository, provider TokenRefresher, now func() time.Time) *Refresher {
	if now == nil {
		now = time.Now
	}
	return &Refresher{
		repo:     repo,
		provider: provider,
		now:      now,
		sleep:    sleepCtx,
	}
}

// EnsureFresh returns the user's credential, refreshing it first if it is about
// to expire
func (r *Refresher) EnsureFresh(ctx context.Context, userID string) (*domain.Credential, error) {
	cred, err := r.repo.Find(ctx, userID, domain.ProviderGoogle)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return nil, ErrNotConnected
	}
	if !cred.Enabled {
		return nil, ErrReauthorize
	}
	if !cred.NeedsRefresh(r.now(), RefreshBuffer) {
		return cred, nil
	}
	return r.Refresh(ctx, cred)
}

// Refresh obtains a new access token and persists it. The returned credential
// is the updated one.
func (r *Refresher) Refresh(ctx context.Context, cred *domain.Credential) (*domain.Credential, error) {
	if cred.RefreshToken == "" {
		if err := r.repo.Disable(ctx, cred.UserID, cred.Provider); err != nil {
			return nil, fmt.Errorf("disable credential: %w", err)
		}
		return nil, ErrReauthorize
	}

	var lastErr error
	backoff := BaseBackoff
	for attempt := 1; attempt <= MaxRefreshAttempts; attempt++ {
		tok, err := r.provider.Refresh(ctx, cred.RefreshToken)
		if err == nil {
			return r.store(ctx, cred, tok)
		}
		lastErr = err

		if IsRevoked(err) {
			log.Printf("[Refresher] Grant revoked for user %s: %v", cred.UserID, err)
			if err := r.repo.Disable(ctx, cred.UserID, cred.Provider); err != nil {
				return nil, fmt.Errorf("disable credential: %w", err)
			}
			return nil, fmt.Errorf("%w: %v", ErrReauthorize, err)
		}

		log.Printf("[Refresher] Attempt %d/%d failed for user %s: %v", attempt, MaxRefreshAttempts, cred.UserID, err)
		if attempt == MaxRefreshAttempts {
			break
		}
		if err := r.sleep(ctx, backoff); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransient, err)
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("%w: %v", ErrTransient, lastErr)
}

func (r *Refresher) store(ctx context.Context, cred *domain.Credential, tok *domain.Token) (*domain.Credential, error) {
	updated := *cred
	updated.AccessToken = tok.AccessToken
	updated.ExpiresAt = tok.Expiry
	if tok.RefreshToken != "" {
		updated.RefreshToken = tok.RefreshToken
	}
	updated.Enabled = true
	if err := r.repo.Save(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save credential: %w", err)
	}
	return &updated, nil
}

// IsRevoked reports whether a refresh error means the grant itself is no longer
// valid, as opposed to a network or provider hiccup
func IsRevoked(err error) bool {
	if err == nil {
		return false
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch re.ErrorCode {
		case "invalid_grant", "unauthorized_client", "invalid_client":
			return true
		}
		if re.Response != nil && re.Response.StatusCode == http.StatusUnauthorized {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	revokedIndicators := []string{
		"invalid_grant",
		"token has been expired or revoked",
		"revoked",
		"unauthorized_client",
	}
	for _, indicator := range revokedIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
