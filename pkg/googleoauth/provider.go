// Package googleoauth wraps the Google OAuth2 endpoints used for calendar access.
package googleoauth

import (
	"context"
	"fmt"
	"time"

	calendardomain "todo-backend/internal/calendar/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// Provider exchanges authorization codes and refreshes access tokens
type Provider struct {
	config *oauth2.Config
}

// NewProvider creates a provider for the calendar events scope
func NewProvider(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendar.CalendarEventsScope},
		},
	}
}

// WithEndpoint overrides the token endpoint
func (p *Provider) WithEndpoint(ep oauth2.Endpoint) *Provider {
	cfg := *p.config
	cfg.Endpoint = ep
	return &Provider{config: &cfg}
}

// AuthCodeURL returns the consent page URL. Offline access is requested so the
// grant carries a refresh token.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token
func (p *Provider) Exchange(ctx context.Context, code string) (*calendardomain.Token, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	return toToken(tok), nil
}

// Refresh obtains a new access token. The returned RefreshToken is set only when
// Google rotated it.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*calendardomain.Token, error) {
	stale := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}
	tok, err := p.config.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, fmt.Errorf("oauth refresh: %w", err)
	}
	out := toToken(tok)
	if out.RefreshToken == refreshToken {
		out.RefreshToken = ""
	}
	return out, nil
}

func toToken(tok *oauth2.Token) *calendardomain.Token {
	return &calendardomain.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}
