package frame

import "fmt"

// Sequencer enforces stream ordering: frame numbers must strictly increase
// and timestamps must never decrease. Rejected frames do not advance it.
type Sequencer struct {
	started     bool
	lastNumber  uint64
	lastStampMs int64
}

// NewSequencer creates an empty sequencer that admits any first frame.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Admit records f as the latest frame if it follows the previously admitted
// one. Otherwise it returns an error wrapping ErrOutOfOrderFrame.
func (s *Sequencer) Admit(f *RawFrame) error {
	if s.started {
		if f.FrameNumber <= s.lastNumber {
			return fmt.Errorf("%w: frame number %d after %d", ErrOutOfOrderFrame, f.FrameNumber, s.lastNumber)
		}
		if f.TimestampMs < s.lastStampMs {
			return fmt.Errorf("%w: timestamp %dms after %dms", ErrOutOfOrderFrame, f.TimestampMs, s.lastStampMs)
		}
	}

	s.started = true
	s.lastNumber = f.FrameNumber
	s.lastStampMs = f.TimestampMs
	return nil
}

// Last returns the most recently admitted frame number and timestamp.
// ok is false until a frame has been admitted.
func (s *Sequencer) Last() (frameNumber uint64, timestampMs int64, ok bool) {
	return s.lastNumber, s.lastStampMs, s.started
}

// Reset forgets the admitted history.
func (s *Sequencer) Reset() {
	*s = Sequencer{}
}
