package domain

import "time"

// Subscription is a device token registered for push notifications
type Subscription struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"index;not null"`
	Token      string    `json:"-" gorm:"uniqueIndex;not null"` // Don't expose token in JSON
	DeviceInfo string    `json:"device_info"`                   // Browser/device metadata
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides the default "subscriptions"
func (Subscription) TableName() string {
	return "push_subscriptions"
}

// Preference holds per-user notification opt-ins
type Preference struct {
	UserID         string    `json:"user_id" gorm:"primaryKey"`
	WaterReminders bool      `json:"water_reminders" gorm:"default:false"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Notification is the payload delivered to a device.
// Tag must be unique per logical notification so the device coalesces repeats.
type Notification struct {
	Title string
	Body  string
	Icon  string
	Badge string
	Tag   string
	Data  NotificationData
}

// NotificationData is the click-through data attached to a notification
type NotificationData struct {
	TaskID string `json:"taskId,omitempty"`
	URL    string `json:"url"`
}
