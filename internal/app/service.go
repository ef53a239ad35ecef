// Package service provides the scoring gateway: it validates requests,
// builds prompts, calls the completion API and classifies the outcome for
// the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/matchgate/internal/adapters/upstream"
	"github.com/okian/matchgate/internal/config"
	"github.com/okian/matchgate/internal/domain/scoring"
	"github.com/okian/matchgate/pkg/logger"
	"github.com/okian/matchgate/pkg/metrics"
)

const (
	defaultRequestTimeout = 2 * time.Minute
	maxLoggedBodyChars    = 512
)

// Caller sends a prompt pair upstream.
type Caller interface {
	Call(ctx context.Context, system, user string) (*upstream.Reply, error)
	Provider() string
}

// PromptBuilder turns a request into a prompt pair.
type PromptBuilder interface {
	Build(req scoring.Request) (scoring.Prompt, error)
}

type counters struct {
	requests        atomic.Int64
	succeeded       atomic.Int64
	rateLimited     atomic.Int64
	paymentRequired atomic.Int64
	upstreamErrors  atomic.Int64
	configErrors    atomic.Int64
	malformed       atomic.Int64
	unknown         atomic.Int64
	upstreamCalls   atomic.Int64
}

// Service implements the scoring dependency of the HTTP API.
type Service struct {
	mu sync.RWMutex

	caller         Caller
	builder        PromptBuilder
	requestTimeout time.Duration

	// configErr is set when the service was built without a usable API key.
	configErr error

	started   bool
	startedAt time.Time
	stats     counters

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCaller sets the upstream caller.
func WithCaller(c Caller) Option {
	return func(s *Service) {
		if c != nil {
			s.caller = c
		}
	}
}

// WithBuilder replaces the prompt builder.
func WithBuilder(b PromptBuilder) Option {
	return func(s *Service) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithRequestTimeout bounds a whole scoring request including retries.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithConfigError marks the service as misconfigured. Every scoring
// request then fails with KindConfig without reaching upstream.
func WithConfigError(err error) Option {
	return func(s *Service) {
		s.configErr = err
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Without a caller or config error the service
// reports ErrNotConfigured on every request.
func New(opts ...Option) *Service {
	s := &Service{
		builder:        scoring.NewBuilder(),
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.caller == nil && s.configErr == nil {
		s.configErr = ErrNotConfigured
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// NewFromConfig resolves the API key of the selected provider once and
// wires the matching transport. A missing key does not fail construction:
// the returned service answers every request with a config error.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	key, err := cfg.ResolveAPIKey()
	if err != nil {
		if !errors.Is(err, config.ErrMissingSecret) {
			return nil, err
		}
		return New(append(opts,
			WithConfigError(err),
			WithRequestTimeout(cfg.RequestTimeout()),
		)...), nil
	}

	var transport upstream.Transport
	switch cfg.Provider {
	case config.ProviderGemini:
		transport, err = upstream.NewGemini(ctx, key)
	default:
		transport, err = upstream.NewOpenAI(key, cfg.BaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s transport: %w", cfg.Provider, err)
	}

	callerOpts := []upstream.Option{
		upstream.WithModel(cfg.Model),
		upstream.WithTemperature(cfg.Temperature),
		upstream.WithMaxRetries(cfg.MaxRetries),
		upstream.WithBackoff(cfg.BackoffBase(), cfg.BackoffJitter()),
		upstream.WithAttemptTimeout(cfg.AttemptTimeout()),
	}
	caller := upstream.NewCaller(transport, callerOpts...)
	return New(append(opts,
		WithCaller(caller),
		WithRequestTimeout(cfg.RequestTimeout()),
	)...), nil
}

// Start marks the service as running and reports configuration problems.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.configErr != nil {
		s.logger.Error(ctx, "scoring gateway misconfigured; scoring requests will fail",
			logger.Error(s.configErr),
		)
	} else {
		s.logger.Info(ctx, "scoring gateway started",
			logger.String("provider", s.caller.Provider()),
			logger.Duration("requestTimeout", s.requestTimeout),
		)
	}

	s.started = true
	s.startedAt = time.Now()
	return nil
}

// Stop marks the service as stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "scoring gateway stopped")
}

// Ready returns the configuration error, if any.
func (s *Service) Ready() error {
	return s.configErr
}

// Score runs one request through the gateway and returns the raw text of the
// first completion. Failures are *GatewayError values.
func (s *Service) Score(ctx context.Context, req scoring.Request) (string, error) {
	s.stats.requests.Add(1)
	matchType := "invalid"
	if req != nil {
		matchType = req.Kind().String()
	}

	text, err := s.score(ctx, req)
	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	s.count(KindOf(err), err == nil)
	metrics.RecordScoreRequest(matchType, outcome)
	return text, err
}

func (s *Service) score(ctx context.Context, req scoring.Request) (string, error) {
	if s.configErr != nil {
		return "", &GatewayError{Kind: KindConfig, Err: s.configErr}
	}

	prompt, err := s.builder.Build(req)
	if err != nil {
		return "", &GatewayError{Kind: KindMalformedRequest, Err: err}
	}
	metrics.RecordPromptSize(req.Kind().String(), len(prompt.System)+len(prompt.User))

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	s.stats.upstreamCalls.Add(1)
	reply, err := s.caller.Call(ctx, prompt.System, prompt.User)
	if err != nil {
		if errors.Is(err, upstream.ErrRetriesExhausted) {
			return "", &GatewayError{Kind: KindRateLimited, Code: http.StatusTooManyRequests, Err: err}
		}
		s.logger.Error(ctx, "upstream call failed",
			logger.String("provider", s.caller.Provider()),
			logger.Error(err),
		)
		return "", &GatewayError{Kind: KindUnknown, Err: err}
	}

	switch {
	case reply.OK():
		return reply.Text, nil
	case reply.RateLimited():
		return "", &GatewayError{Kind: KindRateLimited, Code: reply.StatusCode}
	case reply.StatusCode == http.StatusPaymentRequired:
		return "", &GatewayError{Kind: KindPaymentRequired, Code: reply.StatusCode}
	default:
		s.logger.Error(ctx, "upstream returned an error",
			logger.String("provider", s.caller.Provider()),
			logger.Int("status", reply.StatusCode),
			logger.String("body", logger.Truncate(string(reply.Body), maxLoggedBodyChars)),
		)
		return "", &GatewayError{Kind: KindUpstream, Code: reply.StatusCode}
	}
}

func (s *Service) count(kind Kind, ok bool) {
	if ok {
		s.stats.succeeded.Add(1)
		return
	}
	switch kind {
	case KindRateLimited:
		s.stats.rateLimited.Add(1)
	case KindPaymentRequired:
		s.stats.paymentRequired.Add(1)
	case KindUpstream:
		s.stats.upstreamErrors.Add(1)
	case KindConfig:
		s.stats.configErrors.Add(1)
	case KindMalformedRequest:
		s.stats.malformed.Add(1)
	default:
		s.stats.unknown.Add(1)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"configured":      s.configErr == nil,
		"requests":        s.stats.requests.Load(),
		"succeeded":       s.stats.succeeded.Load(),
		"rateLimited":     s.stats.rateLimited.Load(),
		"paymentRequired": s.stats.paymentRequired.Load(),
		"upstreamErrors":  s.stats.upstreamErrors.Load(),
		"configErrors":    s.stats.configErrors.Load(),
		"malformed":       s.stats.malformed.Load(),
		"unknownErrors":   s.stats.unknown.Load(),
		"upstreamCalls":   s.stats.upstreamCalls.Load(),
	}
	if s.caller != nil {
		stats["provider"] = s.caller.Provider()
	}
	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return stats
}
