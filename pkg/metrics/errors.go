package metrics

import (
	"github.com/cockroachdb/errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrExportFailed = errors.New("metrics export failed")
)
