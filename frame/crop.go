package frame

import (
	"fmt"
)

// CropRows drops the top and bottom fractions of a frame's rows, keeping the
// band in between. Row counts are truncated toward zero, so a fraction of 0.11
// on a 100-row frame drops 11 rows.
//
// The result shares the source's luma buffer; no pixels are copied and the
// source is never modified. A frame with nothing to crop is returned as-is.
func CropRows(f *RawFrame, top, bottom float64) (*RawFrame, error) {
	if top < 0 || bottom < 0 || top+bottom >= 1 {
		return nil, fmt.Errorf("crop fractions must be >= 0 and sum below 1, got %.3f/%.3f", top, bottom)
	}

	dropTop := int(float64(f.Height) * top)
	dropBottom := int(float64(f.Height) * bottom)
	if dropTop == 0 && dropBottom == 0 {
		return f, nil
	}

	keep := f.Height - dropTop - dropBottom
	if keep < 1 {
		return nil, fmt.Errorf("%w: crop leaves no rows of %d", ErrMalformedFrame, f.Height)
	}

	start := dropTop * f.Width
	return &RawFrame{
		Width:       f.Width,
		Height:      keep,
		Luma:        f.Luma[start : start+keep*f.Width : start+keep*f.Width],
		TimestampMs: f.TimestampMs,
		FrameNumber: f.FrameNumber,
	}, nil
}
