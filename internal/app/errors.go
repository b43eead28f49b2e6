package service

import "github.com/cockroachdb/errors"

// Sentinel errors for the application layer.
var (
	ErrInvalidMaxEvents = errors.New("max events must be a positive integer")
	ErrBatchFailed      = errors.New("batch did not complete")
)
