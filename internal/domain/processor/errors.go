package processor

import "github.com/cockroachdb/errors"

// Sentinel errors for the processor.
var (
	ErrInvalidLimit = errors.New("max events must be positive")
)
