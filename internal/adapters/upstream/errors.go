package upstream

import "errors"

// Sentinel errors for this package.
var (
	// ErrRetriesExhausted is returned when every attempt was rate limited.
	ErrRetriesExhausted = errors.New("upstream rate limited: retries exhausted")

	// ErrTransport wraps network, timeout and decoding failures.
	ErrTransport = errors.New("upstream transport failure")

	// ErrMissingAPIKey is returned by transport constructors without a key.
	ErrMissingAPIKey = errors.New("api key is required")
)
