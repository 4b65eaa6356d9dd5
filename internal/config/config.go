package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// HourRange is a half-open slot of the day: Open <= t < Close, both in
// minutes since midnight.
type HourRange struct {
	Open  int
	Close int
}

// Contains reports whether the clock time of t falls inside the range.
func (r HourRange) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= r.Open && m < r.Close
}

func (r HourRange) String() string {
	return fmt.Sprintf("%02d:%02d–%02d:%02d", r.Open/60, r.Open%60, r.Close/60, r.Close%60)
}

// Config holds everything the process reads from the environment.
type Config struct {
	Port           string
	UseMemoryStore bool

	RestaurantName string

	// Opening slots for reservations and pickups.
	BusinessHours []HourRange

	// Reminder sweep settings.
	ReminderLead      time.Duration
	ReminderTolerance time.Duration
	SweepInterval     time.Duration

	// Conversation sessions.
	SessionTTL     time.Duration
	SessionBackend string // "memory" or "redis"
	RedisAddr      string

	MaxPartySize int

	// Whether a takeaway order older than its creation day stays cancellable.
	CancelStaleTakeaway bool

	// Upper bound for a single store or notifier call.
	CallTimeout time.Duration
}

// Load builds the configuration from environment variables, falling back to
// the defaults the restaurant runs with.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		UseMemoryStore:      os.Getenv("USE_MEMORY_STORE") == "true",
		RestaurantName:      getEnv("RESTAURANT_NAME", "Trattoria Luna"),
		ReminderLead:        getMinutes("REMINDER_LEAD_MINUTES", 20),
		ReminderTolerance:   getMinutes("REMINDER_TOLERANCE_MINUTES", 1),
		SweepInterval:       getSeconds("SWEEP_INTERVAL_SECONDS", 60),
		SessionTTL:          getMinutes("SESSION_TTL_MINUTES", 30),
		SessionBackend:      getEnv("SESSION_BACKEND", "memory"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		MaxPartySize:        getInt("MAX_PARTY_SIZE", 40),
		CancelStaleTakeaway: os.Getenv("CANCEL_STALE_TAKEAWAY") == "true",
		CallTimeout:         getSeconds("CALL_TIMEOUT_SECONDS", 5),
	}

	hours, err := ParseHours(getEnv("BUSINESS_HOURS", "13:00-16:00,20:00-23:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_HOURS: %w", err)
	}
	cfg.BusinessHours = hours

	if cfg.SessionBackend != "memory" && cfg.SessionBackend != "redis" {
		return nil, fmt.Errorf("invalid SESSION_BACKEND %q", cfg.SessionBackend)
	}

	return cfg, nil
}

// ParseHours parses "13:00-16:00,20:00-23:00" into hour ranges.
func ParseHours(s string) ([]HourRange, error) {
	var ranges []HourRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.Split(part, "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("bad range %q", part)
		}
		open, err := parseClock(bounds[0])
		if err != nil {
			return nil, err
		}
		closeAt, err := parseClock(bounds[1])
		if err != nil {
			return nil, err
		}
		if closeAt <= open {
			return nil, fmt.Errorf("range %q closes before it opens", part)
		}
		ranges = append(ranges, HourRange{Open: open, Close: closeAt})
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("no ranges in %q", s)
	}
	return ranges, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("bad clock time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getMinutes(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Minute
}

func getSeconds(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Second
}
