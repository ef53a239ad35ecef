package service

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is reported when no upstream caller was wired.
var ErrNotConfigured = errors.New("scoring gateway is not configured")

// Kind classifies gateway failures for the HTTP layer.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindRateLimited
	KindPaymentRequired
	KindUpstream
	KindConfig
	KindMalformedRequest
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindPaymentRequired:
		return "payment_required"
	case KindUpstream:
		return "upstream_error"
	case KindConfig:
		return "config_error"
	case KindMalformedRequest:
		return "malformed_request"
	default:
		return "unknown"
	}
}

// GatewayError is the tagged failure returned by Service.Score.
// Code holds the upstream HTTP status for KindUpstream.
type GatewayError struct {
	Kind Kind
	Code int
	Err  error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Kind == KindUpstream && e.Err != nil:
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.Code, e.Err)
	case e.Kind == KindUpstream:
		return fmt.Sprintf("%s (status %d)", e.Kind, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind of err. Errors that are not a
// GatewayError are KindUnknown.
func KindOf(err error) Kind {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUnknown
}
