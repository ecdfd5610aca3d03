package masking

import (
	"strconv"
	"strings"
	"time"

	"github.com/parkping/ParkPing/internal/pkg/env"
)

// Config carries every knob the session manager needs. It is built once at
// startup and passed in at construction; nothing in this package reads
// ambient global state.
type Config struct {
	// SessionDuration is how long a session stays usable after creation or
	// bridge refresh.
	SessionDuration time.Duration
	// NumberPrefix is prepended to generated masked numbers.
	NumberPrefix string
	// PublicBaseURL is where the call provider reaches us for callbacks.
	// Must be publicly routable; a loopback address fails fast.
	PublicBaseURL string
}

// ConfigFromEnv reads the masking configuration from the environment.
func ConfigFromEnv() Config {
	minutes, err := strconv.Atoi(env.GetEnv("MASKING_DURATION_MINUTES", "30"))
	if err != nil || minutes <= 0 {
		minutes = 30
	}
	return Config{
		SessionDuration: time.Duration(minutes) * time.Minute,
		NumberPrefix:    env.GetEnv("MASKING_PREFIX", "+1555"),
		PublicBaseURL:   strings.TrimRight(env.GetEnv("PUBLIC_BASE_URL", ""), "/"),
	}
}

// HasPublicBaseURL reports whether the base URL is set and publicly routable.
func (c Config) HasPublicBaseURL() bool {
	if c.PublicBaseURL == "" {
		return false
	}
	lower := strings.ToLower(c.PublicBaseURL)
	if strings.Contains(lower, "localhost") || strings.Contains(lower, "127.0.0.1") {
		return false
	}
	return true
}
