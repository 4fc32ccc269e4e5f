package quiethours

import (
	"fmt"
	"time"
)

const (
	DefaultStartHour = 22
	DefaultEndHour   = 9
)

// Policy suppresses dispatch while the local hour is within [StartHour, EndHour).
// The window may wrap midnight.
type Policy struct {
	Location  *time.Location
	StartHour int
	EndHour   int
}

// New returns the default 22:00-09:00 policy for the given IANA timezone
func New(timezone string) (*Policy, error) {
	return NewWithHours(timezone, DefaultStartHour, DefaultEndHour)
}

// NewWithHours returns a policy with a custom window
func NewWithHours(timezone string, start, end int) (*Policy, error) {
	if start < 0 || start > 23 || end < 0 || end > 23 {
		return nil, fmt.Errorf("quiet hours out of range: %d-%d", start, end)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Policy{Location: loc, StartHour: start, EndHour: end}, nil
}

// IsQuiet reports whether now falls inside the quiet window
func (p *Policy) IsQuiet(now time.Time) bool {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	hour := now.In(loc).Hour()
	if p.StartHour == p.EndHour {
		return false
	}
	if p.StartHour > p.EndHour {
		return hour >= p.StartHour || hour < p.EndHour
	}
	return hour >= p.StartHour && hour < p.EndHour
}
