package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	DatabaseURL string `env:"DATABASE_URL" env-default:"data/todo.db"`
	RedisURL    string `env:"REDIS_URL"`
	AppURL      string `env:"APP_URL"`
	CORSOrigins string `env:"CORS_ORIGINS" env-default:"http://localhost:5173"`

	// JWTSecret verifies access tokens issued by the auth provider
	JWTSecret  string `env:"JWT_SECRET" env-default:"your-secret-key-change-in-production"`
	CronSecret string `env:"CRON_SECRET"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `env:"GOOGLE_REDIRECT_URI" env-default:"http://localhost:8080/api/calendar/callback"`

	GoogleProjectID       string `env:"GOOGLE_PROJECT_ID"`
	GooglePubSubTopic     string `env:"GOOGLE_PUBSUB_TOPIC"`
	GoogleCredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseCredentials   string `env:"FIREBASE_CREDENTIALS"`

	ReminderTimezone string        `env:"REMINDER_TIMEZONE" env-default:"UTC"`
	QuietHoursStart  int           `env:"QUIET_HOURS_START" env-default:"22"`
	QuietHoursEnd    int           `env:"QUIET_HOURS_END" env-default:"9"`
	WaterSlots       string        `env:"WATER_REMINDER_SLOTS" env-default:"09:00,11:00,13:00,15:00,17:00,19:00,21:00"`
	WaterTolerance   time.Duration `env:"WATER_SLOT_TOLERANCE" env-default:"30m"`

	// Cron specs; an empty value disables the schedule
	DispatchSchedule string `env:"DISPATCH_SCHEDULE" env-default:"@every 1m"`
	OverdueSchedule  string `env:"OVERDUE_SCHEDULE" env-default:"0 * * * *"`
	WaterSchedule    string `env:"WATER_SCHEDULE" env-default:"*/5 * * * *"`
	GenerateSchedule string `env:"GENERATE_SCHEDULE" env-default:"0 * * * *"`
	RefreshSchedule  string `env:"REFRESH_SCHEDULE" env-default:"*/10 * * * *"`
	PruneSchedule    string `env:"PRUNE_SCHEDULE" env-default:"30 3 * * *"`
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.QuietHoursStart < 0 || c.QuietHoursStart > 23 || c.QuietHoursEnd < 0 || c.QuietHoursEnd > 23 {
		return fmt.Errorf("QUIET_HOURS_START/END must be between 0 and 23")
	}
	if _, err := time.LoadLocation(c.ReminderTimezone); err != nil {
		return fmt.Errorf("REMINDER_TIMEZONE: %w", err)
	}
	if c.WaterTolerance <= 0 {
		return fmt.Errorf("WATER_SLOT_TOLERANCE must be positive")
	}
	return nil
}

// Location returns the timezone used for quiet hours, water slots and cron
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AllowedOrigins splits CORS_ORIGINS
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// CalendarEnabled reports whether Google OAuth credentials are configured
func (c *Config) CalendarEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
