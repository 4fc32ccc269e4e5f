package push

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	pushdomain "todo-backend/internal/push/domain"
)

// Sender delivers a notification to one subscription
type Sender interface {
	Send(ctx context.Context, sub pushdomain.Subscription, n pushdomain.Notification) error
}

// SendError is a delivery failure carrying the transport status code
type SendError struct {
	StatusCode int
	Err        error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("push send failed (status %d): %v", e.StatusCode, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsGone reports whether the subscription no longer exists on the transport side
// and should be removed
func IsGone(err error) bool {
	var se *SendError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusGone
}

// LogSender only logs notifications. It stands in when no push transport is
// configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, sub pushdomain.Subscription, n pushdomain.Notification) error {
	log.Printf("[Push] (not configured) user=%s device=%s title=%q", sub.UserID, sub.DeviceInfo, n.Title)
	return nil
}
