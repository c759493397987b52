package scheduler

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the periodic pipeline trigger.
type Config struct {
	Enabled     bool
	RunInterval time.Duration
	RunTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		RunInterval: time.Hour,
		RunTimeout:  10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	return c
}

// ProvideConfig reads the scheduler settings from the environment. The
// scheduler is opt-in: runs are normally triggered over the API.
func ProvideConfig() Config {
	cfg := DefaultConfig()
	if v := strings.TrimSpace(os.Getenv("SCHEDULER_ENABLED")); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv("SCHEDULER_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RunInterval = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("SCHEDULER_RUN_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RunTimeout = d
		}
	}
	return cfg.withDefaults()
}
