// internal/app/system/timeouts/timeouts.go

// Package timeouts holds the process-wide I/O deadlines used with
// context.WithTimeout by handlers, stores, and the clarity clients.
//
//   - Ping: health checks
//   - Short: single-document reads (user by email, channel membership)
//   - Medium: list queries and single writes (messages, glossary edits)
//   - Long: multi-step writes (registration)
//   - External: calls to the detection and generative services
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing     = 2 * time.Second
	DefaultShort    = 5 * time.Second
	DefaultMedium   = 10 * time.Second
	DefaultLong     = 30 * time.Second
	DefaultExternal = 20 * time.Second
)

// Config holds timeout values. Zero fields are ignored by Configure.
type Config struct {
	Ping     time.Duration
	Short    time.Duration
	Medium   time.Duration
	Long     time.Duration
	External time.Duration
}

func defaults() Config {
	return Config{
		Ping:     DefaultPing,
		Short:    DefaultShort,
		Medium:   DefaultMedium,
		Long:     DefaultLong,
		External: DefaultExternal,
	}
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func get(f func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return f(cur)
}

func Ping() time.Duration     { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration    { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration   { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration     { return get(func(c Config) time.Duration { return c.Long }) }
func External() time.Duration { return get(func(c Config) time.Duration { return c.External }) }

// Configure overrides the non-zero fields of cfg. Call it at startup,
// before handlers are built.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&cur.Ping, cfg.Ping)
	set(&cur.Short, cfg.Short)
	set(&cur.Medium, cfg.Medium)
	set(&cur.Long, cfg.Long)
	set(&cur.External, cfg.External)
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// ConfigureFromEnv reads TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM,
// TIMEOUT_LONG and TIMEOUT_EXTERNAL (Go duration strings such as "5s").
// Unset, unparsable, or non-positive values are skipped. It returns how many
// values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for name, dst := range map[string]*time.Duration{
		"TIMEOUT_PING":     &cfg.Ping,
		"TIMEOUT_SHORT":    &cfg.Short,
		"TIMEOUT_MEDIUM":   &cfg.Medium,
		"TIMEOUT_LONG":     &cfg.Long,
		"TIMEOUT_EXTERNAL": &cfg.External,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// Current returns a copy of the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout wraps context.WithTimeout; the returned cancel logs a warning
// when the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.External(), h.Log, "rewrite")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && ctx.Err() == context.DeadlineExceeded {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
