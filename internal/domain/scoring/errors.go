package scoring

import "errors"

// Sentinel errors for this package. Wrap with fmt.Errorf and match with errors.Is.
var (
	// ErrMalformedRequest marks a request whose type or payload shape is not
	// acceptable for any prompt.
	ErrMalformedRequest = errors.New("malformed scoring request")

	// ErrInvalidResults marks a completion that does not honor the result contract.
	ErrInvalidResults = errors.New("invalid scoring results")
)
