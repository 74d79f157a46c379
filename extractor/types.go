package extractor

// Stats is a snapshot of a run's counters. All counters are monotonic for
// the life of a run and are zeroed by Reset.
//
// ExtractedFrames <= ProcessedFrames always holds; every consumed frame
// increments ProcessedFrames exactly once.
type Stats struct {
	ProcessedFrames uint64
	ExtractedFrames uint64

	MalformedFrames    uint64 // Dropped at validation
	OutOfOrderFrames   uint64 // Dropped by the sequencer
	DuplicatesRejected uint64 // Candidates rejected by the deduplicator
	EncodeFailures     uint64 // Accepted candidates that failed to encode
	StaleTimestamps    uint64 // Candidates not later than the last keyframe
	SceneCuts          uint64 // Diff scores above the cut threshold
}

// Dropped returns the number of frames rejected before detection.
func (s Stats) Dropped() uint64 {
	return s.MalformedFrames + s.OutOfOrderFrames
}

// Keyframe is an emitted keyframe. It is immutable once returned and owned
// by the caller.
type Keyframe struct {
	FrameNumber uint64
	TimestampMs int64
	Confidence  float64 // Text confidence in [0,1]
	Width       int
	Height      int
	Data        []byte // Encoded image
	Format      string // Encoder format name
}
