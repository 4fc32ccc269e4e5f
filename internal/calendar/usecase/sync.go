package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-backend/internal/calendar/domain"
	"todo-backend/internal/calendar/repository"
	taskrepo "todo-backend/internal/task/repository"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrNoDeadline   = errors.New("task has no deadline")
)

// CodeExchanger trades an OAuth authorization code for a token
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (*domain.Token, error)
}

// EventInserter creates an event in the user's calendar
type EventInserter interface {
	InsertEvent(ctx context.Context, accessToken string, ev domain.Event) (string, error)
}

// EventDuration is the length of an event created from a timed deadline
const EventDuration = 30 * time.Minute

// CalendarSync connects calendars and mirrors task deadlines into them
type CalendarSync struct {
	creds     repository.CredentialRepository
	tasks     taskrepo.TaskRepository
	refresher *Refresher
	exchanger CodeExchanger
	events    EventInserter
}

func NewCalendarSync(
	creds repository.CredentialRepository,
	tasks taskrepo.TaskRepository,
	refresher *Refresher,
	exchanger CodeExchanger,
	events EventInserter,
) *CalendarSync {
	return &CalendarSync{
		creds:     creds,
		tasks:     tasks,
		refresher: refresher,
		exchanger: exchanger,
		events:    events,
	}
}

// Connect stores a new grant, re-enabling a previously revoked credential
func (s *CalendarSync) Connect(ctx context.Context, userID, code string) (*domain.Credential, error) {
	tok, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	cred := &domain.Credential{
		UserID:       userID,
		Provider:     domain.ProviderGoogle,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		Enabled:      true,
	}
	// Google omits the refresh token when consent was already granted
	if cred.RefreshToken == "" {
		existing, err := s.creds.Find(ctx, userID, domain.ProviderGoogle)
		if err != nil {
			return nil, fmt.Errorf("load credential: %w", err)
		}
		if existing != nil {
			cred.RefreshToken = existing.RefreshToken
			cred.CreatedAt = existing.CreatedAt
		}
	}

	if err := s.creds.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("save credential: %w", err)
	}
	return cred, nil
}

// PushTask creates a calendar event for the task's deadline and remembers its id
func (s *CalendarSync) PushTask(ctx context.Context, userID, taskID string) (string, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return "", fmt.Errorf("load task: %w", err)
	}
	if task == nil || task.UserID != userID {
		return "", ErrTaskNotFound
	}
	dl, ok := task.Deadline()
	if !ok {
		return "", ErrNoDeadline
	}

	cred, err := s.refresher.EnsureFresh(ctx, userID)
	if err != nil {
		return "", err
	}

	ev := domain.Event{Summary: task.Text}
	if task.Description != nil {
		ev.Description = *task.Description
	}
	if start, ok := task.DueAt(); ok {
		ev.Start = start
		ev.End = start.Add(EventDuration)
	} else {
		ev.AllDay = true
		ev.Start = dl.Date.In(time.UTC)
		ev.End = dl.Date.AddDays(1).In(time.UTC)
	}

	id, err := s.events.InsertEvent(ctx, cred.AccessToken, ev)
	if err != nil {
		return "", err
	}

	task.CalendarEventID = &id
	if _, err := s.tasks.UpdateFields(ctx, task.UserID, task.ID, map[string]interface{}{"calendar_event_id": id}); err != nil {
		return "", fmt.Errorf("save event id: %w", err)
	}
	return id, nil
}
