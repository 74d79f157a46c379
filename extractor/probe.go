package extractor

import (
	"github.com/opd-ai/keyframe/diff"
	"github.com/opd-ai/keyframe/frame"
	"github.com/opd-ai/keyframe/textdetect"
)

// TextScorer estimates text presence in a luma plane.
type TextScorer interface {
	Detect(luma []byte, width, height int) textdetect.Result
}

// frameProbe computes a frame's scores on demand and caches them.
type frameProbe struct {
	f        *frame.RawFrame
	filter   *diff.Filter
	detector TextScorer

	sig      diff.Signature
	haveSig  bool
	text     float64
	haveText bool
}

func newFrameProbe(f *frame.RawFrame, filter *diff.Filter, detector TextScorer) *frameProbe {
	return &frameProbe{f: f, filter: filter, detector: detector}
}

func (p *frameProbe) Signature() diff.Signature {
	if !p.haveSig {
		p.sig = p.filter.Signature(p.f.Luma, p.f.Width, p.f.Height)
		p.haveSig = true
	}
	return p.sig
}

func (p *frameProbe) TextConfidence() float64 {
	if !p.haveText {
		p.text = p.detector.Detect(p.f.Luma, p.f.Width, p.f.Height).Confidence
		p.haveText = true
	}
	return p.text
}
