package upstream

import (
	"time"

	"github.com/okian/matchgate/pkg/logger"
)

// Option applies a configuration option to the Caller.
type Option func(*Caller)

// WithModel sets the model name. Empty keeps the transport default.
func WithModel(model string) Option {
	return func(c *Caller) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature sent with every request.
func WithTemperature(t float64) Option {
	return func(c *Caller) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithMaxRetries sets the number of attempts made while upstream answers 429.
func WithMaxRetries(n int) Option {
	return func(c *Caller) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the exponential base and the jitter ceiling.
func WithBackoff(base, jitter time.Duration) Option {
	return func(c *Caller) {
		if base >= 0 {
			c.base = base
		}
		if jitter >= 0 {
			c.jitter = jitter
		}
	}
}

// WithAttemptTimeout bounds each attempt. Zero disables the per-attempt deadline.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Caller) {
		if d >= 0 {
			c.attemptTimeout = d
		}
	}
}

// WithSleeper replaces the backoff sleep. Tests use it to skip wall-clock waits.
func WithSleeper(s Sleeper) Option {
	return func(c *Caller) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithJitterSource replaces the random jitter source. It receives the jitter
// ceiling and returns a value in [0, ceiling).
func WithJitterSource(f func(ceiling time.Duration) time.Duration) Option {
	return func(c *Caller) {
		if f != nil {
			c.jitterSource = f
		}
	}
}

// WithLogger sets a custom logger for the caller.
func WithLogger(l logger.Logger) Option {
	return func(c *Caller) {
		if l != nil {
			c.logger = l
		}
	}
}
