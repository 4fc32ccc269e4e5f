package domain

import "time"

// ProviderGoogle is the only calendar provider currently wired
const ProviderGoogle = "google"

// Credential is a stored OAuth grant for a user's calendar.
// Enabled=false is terminal until the user reconnects.
type Credential struct {
	UserID       string    `json:"user_id" gorm:"primaryKey"`
	Provider     string    `json:"provider" gorm:"primaryKey;default:google"`
	AccessToken  string    `json:"-" gorm:"not null"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"index"`
	Enabled      bool      `json:"enabled" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName overrides the default "credentials"
func (Credential) TableName() string {
	return "calendar_credentials"
}

// NeedsRefresh reports whether the access token expires within buffer of now
func (c *Credential) NeedsRefresh(now time.Time, buffer time.Duration) bool {
	return !now.Add(buffer).Before(c.ExpiresAt)
}

// Event is a calendar entry created from a task
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// Token is the result of an OAuth exchange or refresh. RefreshToken is empty
// when the provider did not rotate it.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}
