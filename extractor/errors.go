package extractor

import "errors"

// Sentinel errors for extractor operations.
// These errors enable reliable error classification using errors.Is().

// Call boundary errors.
var (
	// ErrDisposed indicates the pipeline has been disposed.
	ErrDisposed = errors.New("pipeline disposed")

	// ErrBusy indicates a call overlapped an in-flight ProcessBatch.
	ErrBusy = errors.New("pipeline busy: call overlaps an in-flight batch")
)

// Frame processing errors.
var (
	// ErrEncodeFailure indicates a keyframe candidate could not be encoded.
	ErrEncodeFailure = errors.New("keyframe encode failed")

	// ErrInvalidTransition indicates a state machine call that is not
	// allowed in the current state.
	ErrInvalidTransition = errors.New("invalid state transition")
)
