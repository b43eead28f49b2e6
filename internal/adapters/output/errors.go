package output

import "github.com/cockroachdb/errors"

// Sentinel errors for the output adapter.
var (
	ErrWrite  = errors.New("write output document")
	ErrDecode = errors.New("decode output document")
)
