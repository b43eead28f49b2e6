package source

import "github.com/cockroachdb/errors"

// Sentinel error kinds for this package.
var (
	// ErrSourceUnavailable marks a dataset that cannot be opened or is corrupt.
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrNotTable          = errors.New("object is not a table")
	ErrStop              = errors.New("stop scan")
)
