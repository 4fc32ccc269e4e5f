// Package due decides whether a stored, timezone-naive deadline has been reached.
//
// Deadline dates are calendar dates without a zone and deadline times are "HH:MM"
// interpreted as UTC. Push notifications need both a date and a valid time; the
// overdue display only needs a date.
package due

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrInvalidTime is returned for time-of-day strings that are not HH:MM
var ErrInvalidTime = errors.New("invalid time of day")

// ParseTime parses "HH:MM" (seconds are tolerated and ignored).
func ParseTime(s string) (civil.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.Time{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return civil.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// Today returns the UTC calendar date of now
func Today(now time.Time) civil.Date {
	return civil.DateOf(now.UTC())
}

// Instant combines a date and an optional time into a UTC instant.
// ok is false when the time is missing or malformed.
func Instant(date civil.Date, timeOfDay *string) (time.Time, bool) {
	if timeOfDay == nil || strings.TrimSpace(*timeOfDay) == "" {
		return time.Time{}, false
	}
	t, err := ParseTime(*timeOfDay)
	if err != nil {
		return time.Time{}, false
	}
	return civil.DateTime{Date: date, Time: t}.In(time.UTC), true
}

// IsDue reports whether a push notification should fire for the deadline.
func IsDue(now time.Time, date civil.Date, timeOfDay *string) bool {
	if Today(now).Before(date) {
		return false
	}
	at, ok := Instant(date, timeOfDay)
	if !ok {
		return false
	}
	return !now.Before(at)
}

// IsOverdue reports whether the deadline has passed for display and summaries.
// Without a usable time the whole date counts as passed once it is today or earlier.
func IsOverdue(now time.Time, date civil.Date, timeOfDay *string) bool {
	if Today(now).Before(date) {
		return false
	}
	at, ok := Instant(date, timeOfDay)
	if !ok {
		return true
	}
	return !now.Before(at)
}
