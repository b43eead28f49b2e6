package api

import "github.com/cockroachdb/errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrStream        = errors.New("stream failed")
)
