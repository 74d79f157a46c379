package frame

import "errors"

// Sentinel errors for frame intake.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrMalformedFrame indicates the frame dimensions, timestamp or luma
	// buffer length are inconsistent.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrOutOfOrderFrame indicates a frame number or timestamp regression.
	ErrOutOfOrderFrame = errors.New("out-of-order frame")
)
