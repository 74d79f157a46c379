// Package extractor selects keyframes from a stream of luma frames.
//
// This package ties the intake, similarity, text and deduplication stages
// together behind a small synchronous API:
//
//	p, err := extractor.NewPipeline(config.Default())
//	if err != nil {
//	    return err
//	}
//	defer p.Dispose()
//
//	for batch := range batches {
//	    keyframes, err := p.ProcessBatch(batch)
//	    if err != nil {
//	        return err // ErrBusy or ErrDisposed only
//	    }
//	    store(keyframes)
//	}
//	stats := p.Stats()
//
// # State Machine
//
// Every admitted frame advances the StateMachine by one step:
//
//	Idle → Scanning → Candidate → Cooldown → Scanning → ...
//
// Idle adopts the first frame as the reference. Scanning counts consecutive
// frames whose diff score stays under SameMax; once the count reaches
// StableFrames and the frame's text confidence reaches MinConfidence the
// frame becomes a Candidate. A score above CutMin (or any score between the
// two thresholds) makes the frame the new reference and restarts the count.
//
// A Candidate is resolved on the same frame: the deduplicator rejects it when
// it is within SameMax of any of the last K emitted keyframes, otherwise it is
// encoded and emitted and the machine absorbs CooldownFrames frames before
// scanning again. Rejected or unencodable candidates become the reference.
// So does a candidate whose timestamp is not later than the last keyframe's,
// which keeps emitted timestamps strictly increasing even when input frames
// share a timestamp.
//
// # Memory
//
// Only fixed-size signatures survive a ProcessBatch call. Frame buffers are
// borrowed for the duration of the call and never retained; encoded keyframes
// are fresh allocations owned by the caller.
//
// # Concurrency
//
// A Pipeline is single-threaded and spawns no goroutines. Overlapping calls
// on one instance are rejected with ErrBusy; independent instances can run
// in parallel.
package extractor
