package recurrence

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Kind identifies how a rule advances a date
type Kind int

const (
	None Kind = iota
	Daily
	Weekly
	Weekday
	Monthly
	Custom
	// Unknown is a rule that was present but could not be understood.
	// It advances by a week.
	Unknown
)

// Rule is a parsed recurrence rule
type Rule struct {
	Kind Kind
	Days map[time.Weekday]bool // only for Custom
	raw  string
}

var dayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseRule parses a stored rule string.
// A rule containing a comma is always a custom weekday set.
func ParseRule(s string) Rule {
	raw := strings.TrimSpace(s)
	lower := strings.ToLower(raw)

	if strings.Contains(lower, ",") {
		return Rule{Kind: Custom, Days: parseDays(lower), raw: raw}
	}

	switch lower {
	case "", "none":
		return Rule{Kind: None, raw: raw}
	case "daily":
		return Rule{Kind: Daily, raw: raw}
	case "weekly":
		return Rule{Kind: Weekly, raw: raw}
	case "weekday", "weekdays":
		return Rule{Kind: Weekday, raw: raw}
	case "monthly":
		return Rule{Kind: Monthly, raw: raw}
	}

	// a single day name is a one-element custom set
	if wd, ok := dayNames[lower]; ok {
		return Rule{Kind: Custom, Days: map[time.Weekday]bool{wd: true}, raw: raw}
	}
	return Rule{Kind: Unknown, raw: raw}
}

// FromPtr parses an optional rule column
func FromPtr(s *string) Rule {
	if s == nil {
		return Rule{Kind: None}
	}
	return ParseRule(*s)
}

func parseDays(s string) map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		if wd, ok := dayNames[strings.TrimSpace(part)]; ok {
			days[wd] = true
		}
	}
	return days
}

// IsRecurring reports whether the rule produces more than one occurrence
func (r Rule) IsRecurring() bool {
	return r.Kind != None
}

// String returns the rule as it was stored
func (r Rule) String() string {
	return r.raw
}

// Next returns the occurrence following current.
func Next(current civil.Date, r Rule) civil.Date {
	switch r.Kind {
	case Daily:
		return current.AddDays(1)
	case Weekly:
		return current.AddDays(7)
	case Weekday:
		next := current.AddDays(1)
		if next.Weekday() == time.Saturday {
			next = next.AddDays(2)
		}
		if next.Weekday() == time.Sunday {
			next = next.AddDays(1)
		}
		return next
	case Monthly:
		// AddDate normalises overflow: Jan 31 + 1 month is Mar 2 or 3.
		return civil.DateOf(current.In(time.UTC).AddDate(0, 1, 0))
	case Custom:
		if len(r.Days) == 0 {
			return current.AddDays(7)
		}
		for i := 1; i <= 7; i++ {
			d := current.AddDays(i)
			if r.Days[d.Weekday()] {
				return d
			}
		}
		return current.AddDays(7)
	default:
		return current.AddDays(7)
	}
}

// matches reports whether d is itself an occurrence date. Weekday rules reject
// weekends and custom sets reject unselected days; other kinds accept any date.
func (r Rule) matches(d civil.Date) bool {
	switch r.Kind {
	case Weekday:
		wd := d.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	case Custom:
		if len(r.Days) == 0 {
			return true
		}
		return r.Days[d.Weekday()]
	default:
		return true
	}
}

// ExpandWindow produces up to need occurrence dates between max(anchor, today) and
// windowEnd inclusive, skipping dates present in used.
func ExpandWindow(anchor, today civil.Date, r Rule, windowEnd civil.Date, used map[civil.Date]bool, need int) []civil.Date {
	if need <= 0 {
		return nil
	}

	cur := anchor
	if cur.Before(today) {
		if r.Kind == Custom {
			cur = today
		} else {
			for cur.Before(today) {
				cur = Next(cur, r)
			}
		}
	}
	if !r.matches(cur) {
		cur = Next(cur, r)
	}

	var out []civil.Date
	for len(out) < need && !cur.After(windowEnd) {
		if !used[cur] {
			out = append(out, cur)
		}
		if !r.IsRecurring() {
			break
		}
		cur = Next(cur, r)
	}
	return out
}
