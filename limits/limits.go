// Package limits provides centralized frame dimension limits for the keyframe extractor.
// This ensures consistent validation across different components of the system.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxFrameSide is the longest side accepted by detection (640 px).
	// Larger frames are downscaled at intake.
	MaxFrameSide = 640

	// MinFrameSide is the smallest width or height a frame may have.
	MinFrameSide = 1

	// MaxFramePixels is the absolute maximum pixel count of an incoming frame
	// before scaling (8K UHD). Anything larger is treated as corrupt.
	MaxFramePixels = 7680 * 4320
)

var (
	// ErrInvalidDimensions indicates a non-positive width or height.
	ErrInvalidDimensions = errors.New("invalid frame dimensions")

	// ErrFrameTooLarge indicates the frame exceeds MaxFramePixels.
	ErrFrameTooLarge = errors.New("frame too large")
)

// ValidateDimensions checks width and height against MinFrameSide and MaxFramePixels.
// Returns an error with context including the offending dimensions.
func ValidateDimensions(width, height int) error {
	if width < MinFrameSide || height < MinFrameSide {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width > MaxFramePixels/height {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrFrameTooLarge, width, height, MaxFramePixels)
	}
	return nil
}

// ExceedsSide reports whether the longest side of a width x height frame is
// larger than maxSide. A non-positive maxSide disables the check.
func ExceedsSide(width, height, maxSide int) bool {
	if maxSide <= 0 {
		return false
	}
	return max(width, height) > maxSide
}

// FitWithin returns the dimensions of a width x height frame scaled down so
// that its longest side equals maxSide, preserving aspect ratio. Frames that
// already fit are returned unchanged. Neither side is ever rounded below 1.
func FitWithin(width, height, maxSide int) (int, int) {
	if !ExceedsSide(width, height, maxSide) {
		return width, height
	}
	if width >= height {
		h := height * maxSide / width
		return maxSide, max(h, 1)
	}
	w := width * maxSide / height
	return max(w, 1), maxSide
}
