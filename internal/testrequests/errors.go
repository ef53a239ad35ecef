package testrequests

import "errors"

var (
	errUnhealthy   = errors.New("service is not healthy")
	errUnknownType = errors.New("unknown request type")
)
