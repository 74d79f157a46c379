package extractor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opd-ai/keyframe/config"
	"github.com/opd-ai/keyframe/frame"
)

const (
	testWidth  = 96
	testHeight = 64
	frameGapMs = 500
)

// blankLuma returns a uniform plane.
func blankLuma(v byte) []byte {
	luma := make([]byte, testWidth*testHeight)
	for i := range luma {
		luma[i] = v
	}
	return luma
}

// strokesLuma draws dark 2px vertical strokes on white for rows [y0, y1),
// which the detector reads as dense text.
func strokesLuma(y0, y1 int) []byte {
	luma := blankLuma(255)
	for y := y0; y < y1; y++ {
		for x := 0; x < testWidth; x++ {
			if x%4 < 2 {
				luma[y*testWidth+x] = 0
			}
		}
	}
	return luma
}

var (
	stepOne   = strokesLuma(0, testHeight/2)
	stepTwo   = strokesLuma(testHeight/2, testHeight)
	stepThree = strokesLuma(0, testHeight)
	black     = blankLuma(0)
	white     = blankLuma(255)
)

func makeFrame(n uint64, luma []byte) frame.RawFrame {
	return frame.RawFrame{
		Width:       testWidth,
		Height:      testHeight,
		Luma:        luma,
		TimestampMs: int64(n) * frameGapMs,
		FrameNumber: n,
	}
}

// streamOf numbers frames consecutively starting at first.
func streamOf(first uint64, contents ...[]byte) []frame.RawFrame {
	frames := make([]frame.RawFrame, len(contents))
	for i, luma := range contents {
		frames[i] = makeFrame(first+uint64(i), luma)
	}
	return frames
}

func repeat(luma []byte, n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = luma
	}
	return out
}

func concat(parts ...[][]byte) [][]byte {
	var out [][]byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// mixedStream exercises cuts, settling, dedup and cooldown.
func mixedStream() []frame.RawFrame {
	var flicker [][]byte
	for i := 0; i < 6; i++ {
		if i%2 == 0 {
			flicker = append(flicker, black)
		} else {
			flicker = append(flicker, white)
		}
	}
	contents := concat(
		repeat(stepOne, 11),
		flicker,
		repeat(stepTwo, 9),
		repeat(stepOne, 8),
		repeat(stepThree, 12),
		flicker,
		repeat(stepTwo, 5),
	)
	return streamOf(0, contents...)
}

func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(config.Default(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Dispose() })
	return p
}

// runBatches feeds frames in chunks of size n.
func runBatches(t *testing.T, p *Pipeline, frames []frame.RawFrame, n int) []Keyframe {
	t.Helper()
	var all []Keyframe
	for start := 0; start < len(frames); start += n {
		end := min(start+n, len(frames))
		kept, err := p.ProcessBatch(frames[start:end])
		require.NoError(t, err)
		all = append(all, kept...)
	}
	return all
}

func frameNumbers(kfs []Keyframe) []uint64 {
	out := make([]uint64, len(kfs))
	for i, kf := range kfs {
		out[i] = kf.FrameNumber
	}
	return out
}

// flakyEncoder fails the first `failures` calls.
type flakyEncoder struct {
	Encoder
	failures int
	calls    int
}

func (e *flakyEncoder) Encode(width, height int, luma []byte) ([]byte, error) {
	e.calls++
	if e.calls <= e.failures {
		return nil, errors.New("simulated encoder fault")
	}
	return e.Encoder.Encode(width, height, luma)
}

// reentrantEncoder calls back into the pipeline while a batch is in flight.
type reentrantEncoder struct {
	Encoder
	p          *Pipeline
	resetErr   error
	batchErr   error
	disposeErr error
}

func (e *reentrantEncoder) Encode(width, height int, luma []byte) ([]byte, error) {
	e.resetErr = e.p.Reset()
	_, e.batchErr = e.p.ProcessBatch(streamOf(1000, white))
	e.disposeErr = e.p.Dispose()
	return e.Encoder.Encode(width, height, luma)
}

// closeCounter counts Close calls.
type closeCounter struct {
	Encoder
	closes int
}

func (e *closeCounter) Close() error {
	e.closes++
	return e.Encoder.Close()
}
