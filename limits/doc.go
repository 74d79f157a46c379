// Package limits provides centralized frame dimension limits for the keyframe
// extractor. This package ensures consistent size enforcement across the intake,
// scaling and detection stages.
//
// # Dimension Hierarchy
//
//   - MaxFrameSide (640 px): the longest side a frame may have once it reaches
//     detection. Upstream decoders downscale to this by convention; frames that
//     arrive larger are scaled down at intake.
//
//   - MinFrameSide (1 px): every frame must have at least one row and column.
//
//   - MaxFramePixels: the absolute maximum pixel count accepted before any
//     scaling. This prevents memory exhaustion from corrupt dimension headers.
//
// # Validation Functions
//
//	err := limits.ValidateDimensions(width, height)
//	if errors.Is(err, limits.ErrInvalidDimensions) {
//	    // drop the frame
//	}
//
//	if limits.ExceedsSide(width, height, limits.MaxFrameSide) {
//	    // scale before detection
//	}
package limits
