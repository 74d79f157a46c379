package diff

import "fmt"

// Change classifies a diff score.
type Change int

const (
	// ChangeNone means the content is considered unchanged.
	ChangeNone Change = iota
	// ChangeDrift means the content moved but not enough to be a cut.
	ChangeDrift
	// ChangeCut means a scene cut.
	ChangeCut
)

// String returns the change name for logging.
func (c Change) String() string {
	switch c {
	case ChangeNone:
		return "none"
	case ChangeDrift:
		return "drift"
	case ChangeCut:
		return "cut"
	default:
		return fmt.Sprintf("Change(%d)", int(c))
	}
}

// Filter scores frames against a reference signature.
type Filter struct {
	gridSize int
	sameMax  float64
	cutMin   float64
}

// NewFilter creates a filter with the given grid size and thresholds.
// Scores below sameMax are unchanged content, scores above cutMin are cuts.
func NewFilter(gridSize int, sameMax, cutMin float64) (*Filter, error) {
	if gridSize <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %d", gridSize)
	}
	if sameMax < 0 || cutMin > 1 || sameMax >= cutMin {
		return nil, fmt.Errorf("thresholds must satisfy 0 <= sameMax < cutMin <= 1, got %.3f/%.3f", sameMax, cutMin)
	}
	return &Filter{gridSize: gridSize, sameMax: sameMax, cutMin: cutMin}, nil
}

// Signature computes the filter's signature for a luma plane.
func (f *Filter) Signature(luma []byte, width, height int) Signature {
	return Compute(luma, width, height, f.gridSize)
}

// Score returns the diff score between a frame signature and the reference.
func (f *Filter) Score(current, reference Signature) float64 {
	return current.Distance(reference)
}

// Classify maps a score onto a Change.
func (f *Filter) Classify(score float64) Change {
	switch {
	case score < f.sameMax:
		return ChangeNone
	case score > f.cutMin:
		return ChangeCut
	default:
		return ChangeDrift
	}
}

// SameMax returns the unchanged-content threshold.
func (f *Filter) SameMax() float64 {
	return f.sameMax
}

// CutMin returns the scene cut threshold.
func (f *Filter) CutMin() float64 {
	return f.cutMin
}

// GridSize returns the signature grid side.
func (f *Filter) GridSize() int {
	return f.gridSize
}
