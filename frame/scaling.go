package frame

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/keyframe/limits"
)

// Scaler resizes luma planes.
//
// Implements bilinear interpolation. It is stateless; the zero value and
// NewScaler are equivalent.
type Scaler struct{}

// NewScaler creates a new luma scaler.
func NewScaler() *Scaler {
	return &Scaler{}
}

// Scale resizes a frame to the specified dimensions.
//
// Parameters:
//   - f: Source frame, must pass Validate
//   - targetWidth, targetHeight: Target dimensions (both >= 1)
//
// Returns:
//   - *RawFrame: New frame with its own luma buffer and the source's
//     timestamp and frame number
//   - error: Any error that occurred during scaling
func (s *Scaler) Scale(f *RawFrame, targetWidth, targetHeight int) (*RawFrame, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("source frame: %w", err)
	}
	if err := limits.ValidateDimensions(targetWidth, targetHeight); err != nil {
		return nil, fmt.Errorf("invalid target dimensions: %w", err)
	}

	result := &RawFrame{
		Width:       targetWidth,
		Height:      targetHeight,
		TimestampMs: f.TimestampMs,
		FrameNumber: f.FrameNumber,
	}

	// Same dimensions: copy so the caller's buffer is never shared
	if !s.IsScalingRequired(f.Width, f.Height, targetWidth, targetHeight) {
		result.Luma = append([]byte(nil), f.Luma...)
		return result, nil
	}

	result.Luma = make([]byte, result.Pixels())
	scalePlane(f.Luma, f.Width, f.Height, result.Luma, targetWidth, targetHeight)
	return result, nil
}

// FitWithin scales f down so its longest side is at most maxSide.
// Frames that already fit are returned as-is without copying.
func (s *Scaler) FitWithin(f *RawFrame, maxSide int) (*RawFrame, error) {
	if !limits.ExceedsSide(f.Width, f.Height, maxSide) {
		return f, nil
	}
	w, h := limits.FitWithin(f.Width, f.Height, maxSide)

	logrus.WithFields(logrus.Fields{
		"function":     "Scaler.FitWithin",
		"frame_number": f.FrameNumber,
		"src_width":    f.Width,
		"src_height":   f.Height,
		"dst_width":    w,
		"dst_height":   h,
	}).Debug("Downscaling oversized frame")

	return s.Scale(f, w, h)
}

// IsScalingRequired checks if scaling is needed for given dimensions.
func (s *Scaler) IsScalingRequired(srcWidth, srcHeight, dstWidth, dstHeight int) bool {
	return srcWidth != dstWidth || srcHeight != dstHeight
}

// scalePlane scales a tightly packed plane using bilinear interpolation.
func scalePlane(src []byte, srcWidth, srcHeight int, dst []byte, dstWidth, dstHeight int) {
	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := 0; y < dstHeight; y++ {
		srcY := float64(y) * yRatio
		y1 := int(srcY)
		y2 := min(y1+1, srcHeight-1)
		fy := srcY - float64(y1)

		for x := 0; x < dstWidth; x++ {
			srcX := float64(x) * xRatio
			x1 := int(srcX)
			x2 := min(x1+1, srcWidth-1)
			fx := srcX - float64(x1)

			p11 := float64(src[y1*srcWidth+x1])
			p12 := float64(src[y1*srcWidth+x2])
			p21 := float64(src[y2*srcWidth+x1])
			p22 := float64(src[y2*srcWidth+x2])

			top := p11*(1-fx) + p12*fx
			bottom := p21*(1-fx) + p22*fx
			pixel := top*(1-fy) + bottom*fy

			dst[y*dstWidth+x] = byte(pixel + 0.5) // Round to nearest
		}
	}
}
