// Package upstream talks to the external completion API: a Transport per
// provider and a Caller that retries rate-limited attempts with backoff.
package upstream

import (
	"context"
	"net/http"
)

// Completion is one low-temperature request to the completion API.
type Completion struct {
	Model       string
	Temperature float64
	System      string
	User        string
}

// Reply is what the provider answered. Text is only set for 2xx replies.
// Body holds the raw payload of non-2xx replies for server-side logging.
type Reply struct {
	StatusCode int
	Text       string
	Body       []byte
}

// OK reports a 2xx status.
func (r *Reply) OK() bool {
	return r != nil && r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// RateLimited reports HTTP 429.
func (r *Reply) RateLimited() bool {
	return r != nil && r.StatusCode == http.StatusTooManyRequests
}

// Transport sends a single completion request. Implementations return a
// Reply for every answer the provider gave, errors only when no answer
// was received.
type Transport interface {
	Name() string
	DefaultModel() string
	Complete(ctx context.Context, c Completion) (*Reply, error)
}
