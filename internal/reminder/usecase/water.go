package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"todo-backend/internal/push"
	pushdomain "todo-backend/internal/push/domain"
	pushrepo "todo-backend/internal/push/repository"
	"todo-backend/pkg/due"
	"todo-backend/pkg/quiethours"
	"todo-backend/pkg/throttle"

	"cloud.google.com/go/civil"
)

const (
	// WaterLookback suppresses a second reminder for the same slot
	WaterLookback = 2 * time.Hour
	// DefaultWaterSlots are the local times at which water reminders go out
	DefaultWaterSlots = "09:00,11:00,13:00,15:00,17:00,19:00,21:00"
)

// ParseSlots parses a comma-separated list of HH:MM slot labels
func ParseSlots(s string) ([]civil.Time, error) {
	var slots []civil.Time
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := due.ParseTime(part)
		if err != nil {
			return nil, fmt.Errorf("water slot %q: %w", part, err)
		}
		slots = append(slots, t)
	}
	return slots, nil
}

// WaterSummary reports one water reminder run
type WaterSummary struct {
	Quiet     bool   `json:"quiet"`
	Slot      string `json:"slot,omitempty"`
	Users     int    `json:"users"`
	Throttled int    `json:"throttled"`
	Notified  int    `json:"notified"`
	Delivery
}

// WaterJob reminds opted-in users to drink water at fixed local slots. The
// scheduler may fire several times around a slot; the throttle log keyed to the
// slot label lets only the first one through.
type WaterJob struct {
	prefRepo  pushrepo.PreferenceRepository
	subRepo   pushrepo.SubscriptionRepository
	sender    push.Sender
	gate      throttle.Gate
	quiet     *quiethours.Policy
	location  *time.Location
	slots     []civil.Time
	tolerance time.Duration
	now       func() time.Time
}

// NewWaterJob creates a water reminder job. Slots are evaluated in loc and a
// slot stays active for tolerance after its label.
func NewWaterJob(
	prefRepo pushrepo.PreferenceRepository,
	subRepo pushrepo.SubscriptionRepository,
	sender push.Sender,
	gate throttle.Gate,
	quiet *quiethours.Policy,
	loc *time.Location,
	slots []civil.Time,
	tolerance time.Duration,
	now func() time.Time,
) *WaterJob {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &WaterJob{
		prefRepo:  prefRepo,
		subRepo:   subRepo,
		sender:    sender,
		gate:      gate,
		quiet:     quiet,
		location:  loc,
		slots:     slots,
		tolerance: tolerance,
		now:       now,
	}
}

// activeSlot returns the slot whose window contains now
func (j *WaterJob) activeSlot(now time.Time) (civil.Time, bool) {
	today := civil.DateOf(now.In(j.location))
	for _, slot := range j.slots {
		at := civil.DateTime{Date: today, Time: slot}.In(j.location)
		if !now.Before(at) && now.Sub(at) < j.tolerance {
			return slot, true
		}
	}
	return civil.Time{}, false
}

func (j *WaterJob) Run(ctx context.Context) (*WaterSummary, error) {
	now := j.now()
	summary := &WaterSummary{}

	if j.quiet != nil && j.quiet.IsQuiet(now) {
		summary.Quiet = true
		return summary, nil
	}

	slot, ok := j.activeSlot(now)
	if !ok {
		return summary, nil
	}
	label := fmt.Sprintf("%02d:%02d", slot.Hour, slot.Minute)
	summary.Slot = label
	category := "water-reminder:" + label

	users, err := j.prefRepo.ListWaterReminderUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list water reminder users: %w", err)
	}
	summary.Users = len(users)

	for _, userID := range users {
		ok, err := j.gate.ShouldSend(ctx, userID, category, now, WaterLookback)
		if err != nil {
			return nil, fmt.Errorf("throttle check for user %s: %w", userID, err)
		}
		if !ok {
			summary.Throttled++
			continue
		}
		if err := j.gate.RecordSent(ctx, userID, category, now); err != nil {
			return nil, fmt.Errorf("record throttle for user %s: %w", userID, err)
		}
		summary.Notified++

		d, err := deliver(ctx, j.subRepo, j.sender, userID, pushdomain.Notification{
			Title: "💧 Time to drink water",
			Body:  "Stay hydrated: have a glass of water.",
			Tag:   "water-reminder-" + label,
			Data:  pushdomain.NotificationData{URL: "/"},
		})
		if err != nil {
			return nil, err
		}
		summary.add(d)
	}

	log.Printf("[Water] slot=%s users=%d throttled=%d notified=%d sent=%d",
		label, summary.Users, summary.Throttled, summary.Notified, summary.Sent)
	return summary, nil
}
