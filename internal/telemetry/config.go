package telemetry

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultDir holds events.jsonl unless Configure names another directory.
const DefaultDir = ".olier"

// Config controls JSONL event emission. The zero value disables it.
type Config struct {
	Enabled bool
	Dir     string
}

var (
	mu  sync.RWMutex
	cfg Config

	// errs reports emission failures; telemetry never fails the caller.
	errs = zerolog.New(os.Stderr).With().Timestamp().Str("component", "telemetry").Logger()
)

// Configure replaces the process-wide telemetry settings and returns the previous ones.
func Configure(c Config) Config {
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	mu.Lock()
	defer mu.Unlock()
	prev := cfg
	cfg = c
	return prev
}

// Enabled reports whether events are written.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return cfg.Enabled
}

func current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}
