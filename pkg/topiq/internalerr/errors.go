package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound       = errors.New("not found")
	ErrNotFitted      = errors.New("model has not been fitted")
	ErrLengthMismatch = errors.New("input length mismatch")
	ErrNoClusterer    = errors.New("no clusterer configured")
	ErrTooFewSamples  = errors.New("too few valid samples")
	ErrInvalidConfig  = errors.New("invalid configuration")
)
