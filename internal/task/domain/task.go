package domain

import (
	"time"

	"todo-backend/pkg/due"
	"todo-backend/pkg/recurrence"

	"cloud.google.com/go/civil"
)

// TodayList is the sentinel list id for the "today" view
const TodayList = "today"

// Task is a concrete actionable item, created by the user or spawned from a template
type Task struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	UserID        string     `json:"user_id" gorm:"index;not null"`
	Text          string     `json:"text" gorm:"not null"`
	Description   *string    `json:"description,omitempty"`
	Completed     bool       `json:"completed" gorm:"default:false;index"`
	ListID        *string    `json:"list_id,omitempty" gorm:"index"`
	DeadlineDate  *string    `json:"deadline_date,omitempty" gorm:"size:10;index"` // YYYY-MM-DD, no timezone
	DeadlineTime  *string    `json:"deadline_time,omitempty" gorm:"size:8"`        // HH:MM, UTC
	RecurringRule *string    `json:"recurring_rule,omitempty"`
	NotifiedAt    *time.Time `json:"notified_at,omitempty"` // deadline instant already notified

	// Set when spawned from a template; unique together so concurrent generators
	// cannot insert the same occurrence twice.
	TemplateID     *string `json:"template_id,omitempty" gorm:"uniqueIndex:idx_task_template_occurrence"`
	OccurrenceDate *string `json:"occurrence_date,omitempty" gorm:"size:10;uniqueIndex:idx_task_template_occurrence"`

	CalendarEventID *string   `json:"calendar_event_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Deadline is the parsed form of a task's deadline columns
type Deadline struct {
	Date civil.Date
	Time *string
	Rule recurrence.Rule
}

// Deadline parses the deadline columns. ok is false when the task has no date or
// the stored date is malformed.
func (t *Task) Deadline() (Deadline, bool) {
	if t.DeadlineDate == nil {
		return Deadline{}, false
	}
	d, err := civil.ParseDate(*t.DeadlineDate)
	if err != nil {
		return Deadline{}, false
	}
	return Deadline{Date: d, Time: t.DeadlineTime, Rule: recurrence.FromPtr(t.RecurringRule)}, true
}

// DueAt returns the UTC instant at which a notification may fire
func (t *Task) DueAt() (time.Time, bool) {
	dl, ok := t.Deadline()
	if !ok {
		return time.Time{}, false
	}
	return due.Instant(dl.Date, dl.Time)
}

// IsDue reports whether a reminder push is due for this task
func (t *Task) IsDue(now time.Time) bool {
	if t.Completed || t.NotifiedAt != nil {
		return false
	}
	dl, ok := t.Deadline()
	if !ok {
		return false
	}
	return due.IsDue(now, dl.Date, dl.Time)
}

// IsOverdue reports whether the task shows as overdue
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Completed {
		return false
	}
	dl, ok := t.Deadline()
	if !ok {
		return false
	}
	return due.IsOverdue(now, dl.Date, dl.Time)
}

// CommonTask is a recurring (or one-time) template that keeps a rolling window of
// future task instances
type CommonTask struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"index;not null"`
	Text          string    `json:"text" gorm:"not null"`
	Description   *string   `json:"description,omitempty"`
	DeadlineDate  string    `json:"deadline_date" gorm:"size:10;not null"`
	DeadlineTime  *string   `json:"deadline_time,omitempty" gorm:"size:8"`
	RecurringRule *string   `json:"recurring_rule,omitempty"`
	ListID        *string   `json:"list_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DailyTask is a template that spawns one instance for tomorrow at a local time
type DailyTask struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"index;not null"`
	Text        string    `json:"text" gorm:"not null"`
	Description *string   `json:"description,omitempty"`
	Time        *string   `json:"time,omitempty" gorm:"size:8"` // local wall clock HH:MM
	Timezone    string    `json:"timezone" gorm:"default:UTC"`
	ListID      *string   `json:"list_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
