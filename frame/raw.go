package frame

import (
	"fmt"

	"github.com/opd-ai/keyframe/limits"
)

// RawFrame is a single luma-only video frame as produced by the decoder.
//
// The pipeline borrows Luma for the duration of one batch call and never
// keeps a reference to it afterwards.
type RawFrame struct {
	Width       int
	Height      int
	Luma        []byte // Row-major, one byte per pixel
	TimestampMs int64  // Monotonic per stream
	FrameNumber uint64 // Monotonic decoder counter
}

// Validate checks that the frame is structurally usable.
// All failures wrap ErrMalformedFrame.
func (f *RawFrame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: frame cannot be nil", ErrMalformedFrame)
	}
	if err := limits.ValidateDimensions(f.Width, f.Height); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.TimestampMs < 0 {
		return fmt.Errorf("%w: negative timestamp %d", ErrMalformedFrame, f.TimestampMs)
	}
	if want := f.Pixels(); len(f.Luma) != want {
		return fmt.Errorf("%w: luma length %d, expected %d (%dx%d)",
			ErrMalformedFrame, len(f.Luma), want, f.Width, f.Height)
	}
	return nil
}

// Pixels returns Width*Height.
func (f *RawFrame) Pixels() int {
	return f.Width * f.Height
}
