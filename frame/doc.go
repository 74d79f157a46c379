// Package frame provides the intake side of the keyframe extractor.
//
// Frames arrive from an external decoder as single-channel luma planes:
//
//	f := frame.RawFrame{
//	    Width:       360,
//	    Height:      640,
//	    Luma:        yPlane, // one byte per pixel, row-major
//	    TimestampMs: 1500,
//	    FrameNumber: 45,
//	}
//
// Intake is split into four independent pieces:
//
//   - RawFrame.Validate rejects structurally broken frames (ErrMalformedFrame).
//   - Sequencer rejects frames that regress in frame number or timestamp
//     (ErrOutOfOrderFrame).
//   - CropRows cuts a top and bottom band of rows, such as app chrome.
//   - Scaler shrinks frames whose longest side exceeds limits.MaxFrameSide
//     using bilinear interpolation.
//
// None of these retain the luma buffer past the call that received it.
package frame
