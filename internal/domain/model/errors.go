package model

import "github.com/cockroachdb/errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownExperiment = errors.New("unknown experiment")
)
