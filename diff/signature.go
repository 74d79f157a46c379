// Package diff provides the cheap structural similarity measure used to decide
// whether displayed content has changed between two frames.
//
// Both frames are reduced to a small fixed grid by block averaging, and the
// score is the normalized mean absolute difference between the grids. Cost is
// linear in the pixel count with a fixed-size output, so comparing against
// any number of stored signatures is cheap.
package diff

// DefaultGridSize is the side of the square signature grid.
const DefaultGridSize = 16

// Signature is a coarse block-averaged fingerprint of a luma plane.
// Cells holds Size*Size averages in row-major order.
type Signature struct {
	Size  int
	Cells []uint8
}

// Compute downsamples a width x height luma plane onto a size x size grid.
//
// Grid cell (gx, gy) averages the source rectangle
// [gx*w/size, (gx+1)*w/size) x [gy*h/size, (gy+1)*h/size). When the frame is
// smaller than the grid along an axis the cell samples a single source
// row/column so every cell stays populated.
func Compute(luma []byte, width, height, size int) Signature {
	if size <= 0 || width <= 0 || height <= 0 || len(luma) < width*height {
		return Signature{}
	}

	sig := Signature{Size: size, Cells: make([]uint8, size*size)}
	for gy := 0; gy < size; gy++ {
		y0, y1 := span(gy, size, height)
		for gx := 0; gx < size; gx++ {
			x0, x1 := span(gx, size, width)

			var sum, n int
			for y := y0; y < y1; y++ {
				row := luma[y*width : y*width+width]
				for x := x0; x < x1; x++ {
					sum += int(row[x])
				}
				n += x1 - x0
			}
			sig.Cells[gy*size+gx] = uint8((sum + n/2) / n)
		}
	}
	return sig
}

// span returns the half-open source range covered by grid index i.
func span(i, cells, extent int) (int, int) {
	lo := i * extent / cells
	hi := (i + 1) * extent / cells
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// Distance returns the normalized mean absolute difference between two
// signatures, in [0,1]. Signatures of different sizes, or empty ones, are
// maximally distant.
func (s Signature) Distance(other Signature) float64 {
	if s.Size == 0 || s.Size != other.Size || len(s.Cells) != len(other.Cells) {
		return 1
	}

	var total int
	for i, v := range s.Cells {
		d := int(v) - int(other.Cells[i])
		if d < 0 {
			d = -d
		}
		total += d
	}
	return float64(total) / float64(len(s.Cells)*255)
}

// IsZero reports whether the signature holds no cells.
func (s Signature) IsZero() bool {
	return len(s.Cells) == 0
}
