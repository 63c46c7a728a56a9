// Package retry implements the bounded exponential backoff spec §7
// prescribes for transient I/O (shard fetch, vector-index search)
// failures, on an injectable clock so tests never sleep for real.
// Grounded on the teacher's coder/quartz usage in
// internal/testing/test_infrastructure.go (mockClock.Advance(...).MustWait
// to drive time-dependent code deterministically under test).
package retry

import (
	"context"
	"time"

	"github.com/coder/quartz"
)

// Config bounds one retry loop (spec §7 "retry with exponential backoff up
// to a small bound").
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultConfig is the small bound spec §7 calls for: three attempts,
// starting at 25ms and doubling.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: 25 * time.Millisecond, Multiplier: 2.0}
}

// Do runs fn until it succeeds, cfg.MaxAttempts is exhausted, or ctx is
// cancelled, sleeping an exponentially growing delay between attempts on
// clock. The final attempt's error is returned on exhaustion.
func Do(ctx context.Context, clock quartz.Clock, cfg Config, fn func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	delay := cfg.BaseDelay

	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(delay):
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
	}
	return err
}
