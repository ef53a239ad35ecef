package upstream

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/okian/matchgate/pkg/logger"
	"github.com/okian/matchgate/pkg/metrics"
)

// Default retry configuration constants.
const (
	defaultMaxRetries     = 3
	defaultBackoffBase    = time.Second
	defaultBackoffJitter  = 500 * time.Millisecond
	defaultTemperature    = 0.2
	defaultAttemptTimeout = 30 * time.Second
)

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MaxBackoffDelay caps the exponential part of BackoffDelay.
const MaxBackoffDelay = 5 * time.Minute

// BackoffDelay is the wait after the given zero-based attempt:
// min(2^attempt * base, MaxBackoffDelay) + jitter.
func BackoffDelay(attempt int, base, jitter time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	var d time.Duration
	switch {
	case base <= 0:
	case attempt >= 63 || base > MaxBackoffDelay>>uint(attempt):
		d = MaxBackoffDelay
	default:
		d = base << uint(attempt)
	}
	return d + jitter
}

func randomJitter(ceiling time.Duration) time.Duration {
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(ceiling))) //nolint:gosec // jitter does not need a CSPRNG
}

// Caller sends completions through a Transport and retries while the
// provider answers 429. Every other answer returns at once.
type Caller struct {
	transport      Transport
	model          string
	temperature    float64
	maxRetries     int
	base           time.Duration
	jitter         time.Duration
	attemptTimeout time.Duration
	sleep          Sleeper
	jitterSource   func(time.Duration) time.Duration
	logger         logger.Logger
}

// NewCaller creates a retrying caller over t.
func NewCaller(t Transport, opts ...Option) *Caller {
	c := &Caller{
		transport:      t,
		model:          t.DefaultModel(),
		temperature:    defaultTemperature,
		maxRetries:     defaultMaxRetries,
		base:           defaultBackoffBase,
		jitter:         defaultBackoffJitter,
		attemptTimeout: defaultAttemptTimeout,
		sleep:          SleepContext,
		jitterSource:   randomJitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("upstream")
	}
	return c
}

// Provider names the underlying transport.
func (c *Caller) Provider() string { return c.transport.Name() }

// Model returns the model sent with every request.
func (c *Caller) Model() string { return c.model }

// MaxRetries returns the attempt budget.
func (c *Caller) MaxRetries() int { return c.maxRetries }

// Call sends the prompt pair. It returns the first non-429 reply, or
// ErrRetriesExhausted after maxRetries rate-limited attempts. There is no
// wait after the final attempt. Cancelling ctx aborts the current attempt
// and any pending backoff.
func (c *Caller) Call(ctx context.Context, system, user string) (*Reply, error) {
	provider := c.transport.Name()
	completion := Completion{
		Model:       c.model,
		Temperature: c.temperature,
		System:      system,
		User:        user,
	}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		reply, err := c.attempt(ctx, completion)
		if err != nil {
			metrics.RecordUpstreamTransportError(provider)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", ErrTransport, ctxErr)
			}
			return nil, err
		}
		if !reply.RateLimited() {
			return reply, nil
		}
		if attempt == c.maxRetries-1 {
			break
		}

		wait := BackoffDelay(attempt, c.base, c.jitterSource(c.jitter))
		c.logger.Warn(ctx, "upstream rate limited, retrying",
			logger.String("provider", provider),
			logger.Int("attempt", attempt+1),
			logger.Int("max_retries", c.maxRetries),
			logger.Duration("wait", wait),
		)
		metrics.RecordUpstreamRetry(provider, float64(wait.Milliseconds()))

		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%w: backoff interrupted: %w", ErrTransport, err)
		}
	}

	metrics.RecordRetriesExhausted(provider)
	c.logger.Error(ctx, "upstream rate limit persisted",
		logger.String("provider", provider),
		logger.Int("attempts", c.maxRetries),
	)
	return nil, fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, c.maxRetries)
}

func (c *Caller) attempt(ctx context.Context, completion Completion) (*Reply, error) {
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := c.transport.Complete(ctx, completion)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		if !errors.Is(err, ErrTransport) {
			err = fmt.Errorf("%w: %w", ErrTransport, err)
		}
		return nil, err
	}
	if reply == nil {
		return nil, fmt.Errorf("%w: empty reply", ErrTransport)
	}
	metrics.RecordUpstreamAttempt(c.transport.Name(), strconv.Itoa(reply.StatusCode), latency)
	return reply, nil
}
