// Package textdetect estimates how much legible text a luma frame shows.
//
// Text is made of dense, short, high-contrast strokes. The detector measures
// finite-difference gradient magnitude at every interior pixel, buckets edge
// pixels into a coarse grid, and reports the fraction of cells whose edge
// density looks like text. No smoothing is applied; at the <=640px working
// resolution encoder noise stays well below the edge threshold.
package textdetect

import (
	"fmt"
)

// Result is the outcome of a detection pass.
type Result struct {
	Confidence float64 // Fraction of text-like cells, in [0,1]
	TextCells  int
	TotalCells int
}

// Options tunes the detector.
type Options struct {
	Cols          int     // Grid columns
	Rows          int     // Grid rows
	EdgeThreshold int     // Minimum |dx|+|dy| for an edge pixel (0-510)
	CellDensity   float64 // Minimum edge-pixel fraction for a text-like cell
}

// DefaultOptions returns the detector defaults.
func DefaultOptions() Options {
	return Options{
		Cols:          8,
		Rows:          8,
		EdgeThreshold: 48,
		CellDensity:   0.08,
	}
}

// Detector is a gradient-density text detector. It keeps per-cell counters
// between calls to avoid allocating on the hot path and is therefore not safe
// for concurrent use.
type Detector struct {
	opts   Options
	edges  []int
	pixels []int
}

// New creates a detector.
func New(opts Options) (*Detector, error) {
	if opts.Cols <= 0 || opts.Rows <= 0 {
		return nil, fmt.Errorf("grid must be positive, got %dx%d", opts.Cols, opts.Rows)
	}
	if opts.EdgeThreshold <= 0 || opts.EdgeThreshold > 510 {
		return nil, fmt.Errorf("edge threshold must be in 1..510, got %d", opts.EdgeThreshold)
	}
	if opts.CellDensity <= 0 || opts.CellDensity > 1 {
		return nil, fmt.Errorf("cell density must be in (0,1], got %.3f", opts.CellDensity)
	}

	cells := opts.Cols * opts.Rows
	return &Detector{
		opts:   opts,
		edges:  make([]int, cells),
		pixels: make([]int, cells),
	}, nil
}

// Options returns the detector configuration.
func (d *Detector) Options() Options {
	return d.opts
}

// Detect scores a width x height luma plane.
func (d *Detector) Detect(luma []byte, width, height int) Result {
	total := d.opts.Cols * d.opts.Rows
	if width < 3 || height < 3 || len(luma) < width*height {
		return Result{TotalCells: total}
	}

	if len(d.edges) != total {
		d.edges = make([]int, total)
		d.pixels = make([]int, total)
	}
	clear(d.edges)
	clear(d.pixels)

	// Interior pixels only; cell boundaries partition the interior
	innerW, innerH := width-2, height-2
	threshold := d.opts.EdgeThreshold

	for y := 1; y < height-1; y++ {
		cy := (y - 1) * d.opts.Rows / innerH
		rowBase := cy * d.opts.Cols
		up := luma[(y-1)*width:]
		mid := luma[y*width:]
		down := luma[(y+1)*width:]

		for x := 1; x < width-1; x++ {
			cell := rowBase + (x-1)*d.opts.Cols/innerW
			d.pixels[cell]++

			dx := int(mid[x+1]) - int(mid[x-1])
			dy := int(down[x]) - int(up[x])
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			if dx+dy >= threshold {
				d.edges[cell]++
			}
		}
	}

	text := 0
	for i, n := range d.pixels {
		if n == 0 {
			continue
		}
		if float64(d.edges[i])/float64(n) >= d.opts.CellDensity {
			text++
		}
	}

	return Result{
		Confidence: clamp01(float64(text) / float64(total)),
		TextCells:  text,
		TotalCells: total,
	}
}

// Release drops the per-cell scratch buffers. They are reallocated on the
// next Detect.
func (d *Detector) Release() {
	d.edges = nil
	d.pixels = nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
