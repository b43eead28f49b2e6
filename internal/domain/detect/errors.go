package detect

import "github.com/cockroachdb/errors"

// Sentinel error kinds for this package.
var (
	// ErrNoContainer means the dataset holds no readable table.
	ErrNoContainer = errors.New("no usable container found")
)
