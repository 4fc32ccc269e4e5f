// Package gcal creates Google Calendar events on behalf of a user.
package gcal

import (
	"context"
	"fmt"

	calendardomain "todo-backend/internal/calendar/domain"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const primaryCalendar = "primary"

type Service struct {
	endpoint string
}

func NewService() *Service {
	return &Service{}
}

// WithEndpoint points the client at a different API base URL
func (s *Service) WithEndpoint(endpoint string) *Service {
	return &Service{endpoint: endpoint}
}

// GetCalendarService creates a Calendar client authorised with an access token.
// Token refresh is handled by the caller before this point.
func (s *Service) GetCalendarService(ctx context.Context, accessToken string) (*calendar.Service, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}

	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}
	return srv, nil
}

// InsertEvent adds the event to the user's primary calendar and returns its id
func (s *Service) InsertEvent(ctx context.Context, accessToken string, ev calendardomain.Event) (string, error) {
	srv, err := s.GetCalendarService(ctx, accessToken)
	if err != nil {
		return "", err
	}

	created, err := srv.Events.Insert(primaryCalendar, toEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to insert event: %w", err)
	}
	return created.Id, nil
}

func toEvent(ev calendardomain.Event) *calendar.Event {
	out := &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
	}
	if ev.AllDay {
		out.Start = &calendar.EventDateTime{Date: ev.Start.Format("2006-01-02")}
		out.End = &calendar.EventDateTime{Date: ev.End.Format("2006-01-02")}
		return out
	}
	out.Start = &calendar.EventDateTime{DateTime: ev.Start.UTC().Format("2006-01-02T15:04:05Z07:00"), TimeZone: "UTC"}
	out.End = &calendar.EventDateTime{DateTime: ev.End.UTC().Format("2006-01-02T15:04:05Z07:00"), TimeZone: "UTC"}
	return out
}
