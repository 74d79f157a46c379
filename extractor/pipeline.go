package extractor

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/keyframe/config"
	"github.com/opd-ai/keyframe/dedup"
	"github.com/opd-ai/keyframe/diff"
	"github.com/opd-ai/keyframe/frame"
	"github.com/opd-ai/keyframe/textdetect"
)

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithEncoder replaces the encoder selected by the configuration.
func WithEncoder(enc Encoder) Option {
	return func(p *Pipeline) {
		p.encoder = enc
	}
}

// WithDetector replaces the gradient text detector.
func WithDetector(d TextScorer) Option {
	return func(p *Pipeline) {
		p.detector = d
	}
}

// Pipeline turns a stream of luma frames into keyframes.
//
// Handles the full per-frame flow:
//
//	Validate → Sequence → Crop → Scale → Diff/Text → State machine → Dedup → Encode
//
// A Pipeline is not safe for concurrent use. Calls must be serialized by the
// caller; overlapping calls are detected and rejected with ErrBusy.
type Pipeline struct {
	cfg   config.Config
	runID uuid.UUID

	filter    *diff.Filter
	detector  TextScorer
	dedup     *dedup.Deduplicator
	machine   *StateMachine
	sequencer *frame.Sequencer
	scaler    *frame.Scaler
	encoder   Encoder

	// Keyframe timestamps must strictly increase across the run
	lastEmittedMs int64
	emitted       bool

	stats    Stats
	busy     atomic.Bool
	disposed bool
}

// NewPipeline creates a pipeline in StateIdle with zeroed stats.
func NewPipeline(cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	filter, err := diff.NewFilter(cfg.Diff.GridSize, cfg.Diff.SameMax, cfg.Diff.CutMin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	deduplicator, err := dedup.New(cfg.Dedup.Capacity, cfg.Diff.SameMax)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	machine, err := NewStateMachine(filter, cfg.State, cfg.Text.MinConfidence)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	p := &Pipeline{
		cfg:       cfg,
		runID:     uuid.New(),
		filter:    filter,
		dedup:     deduplicator,
		machine:   machine,
		sequencer: frame.NewSequencer(),
		scaler:    frame.NewScaler(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.detector == nil {
		detector, err := textdetect.New(textdetect.Options{
			Cols:          cfg.Text.Cols,
			Rows:          cfg.Text.Rows,
			EdgeThreshold: cfg.Text.EdgeThreshold,
			CellDensity:   cfg.Text.CellDensity,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		p.detector = detector
	}
	if p.encoder == nil {
		enc, err := NewEncoder(cfg.Encode)
		if err != nil {
			return nil, err
		}
		p.encoder = enc
	}

	logrus.WithFields(logrus.Fields{
		"function":  "NewPipeline",
		"run_id":    p.runID,
		"same_max":  cfg.Diff.SameMax,
		"cut_min":   cfg.Diff.CutMin,
		"stable":    cfg.State.StableFrames,
		"cooldown":  cfg.State.CooldownFrames,
		"dedup_cap": cfg.Dedup.Capacity,
		"format":    p.encoder.Format(),
	}).Info("Keyframe pipeline created")

	return p, nil
}

// ProcessBatch consumes frames in order and returns the keyframes emitted
// while doing so. Malformed and out-of-order frames are counted and dropped;
// they never abort the batch. The only errors are call boundary errors
// (ErrBusy, ErrDisposed), in which case no frame was consumed.
func (p *Pipeline) ProcessBatch(batch []frame.RawFrame) ([]Keyframe, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.busy.Store(false)

	if p.disposed {
		return nil, ErrDisposed
	}
	if len(batch) == 0 {
		return nil, nil
	}

	var kept []Keyframe
	for i := range batch {
		if kf, ok := p.consume(&batch[i]); ok {
			kept = append(kept, kf)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Pipeline.ProcessBatch",
		"run_id":    p.runID,
		"batch":     len(batch),
		"emitted":   len(kept),
		"processed": p.stats.ProcessedFrames,
		"extracted": p.stats.ExtractedFrames,
		"state":     p.machine.State(),
	}).Debug("Batch processed")

	return kept, nil
}

// consume runs one frame through the pipeline.
func (p *Pipeline) consume(raw *frame.RawFrame) (Keyframe, bool) {
	p.stats.ProcessedFrames++

	if err := raw.Validate(); err != nil {
		p.stats.MalformedFrames++
		p.logDrop(raw, err)
		return Keyframe{}, false
	}
	if err := p.sequencer.Admit(raw); err != nil {
		p.stats.OutOfOrderFrames++
		p.logDrop(raw, err)
		return Keyframe{}, false
	}

	work, err := frame.CropRows(raw, p.cfg.Intake.CropTop, p.cfg.Intake.CropBottom)
	if err != nil {
		p.stats.MalformedFrames++
		p.logDrop(raw, err)
		return Keyframe{}, false
	}
	work, err = p.scaler.FitWithin(work, p.cfg.Intake.MaxSide)
	if err != nil {
		p.stats.MalformedFrames++
		p.logDrop(raw, err)
		return Keyframe{}, false
	}

	probe := newFrameProbe(work, p.filter, p.detector)
	step, err := p.machine.Step(probe)
	if err != nil {
		// A candidate is always resolved on the frame that produced it
		logrus.WithFields(logrus.Fields{
			"function":     "Pipeline.consume",
			"run_id":       p.runID,
			"frame_number": raw.FrameNumber,
			"error":        err.Error(),
		}).Error("State machine rejected frame")
		return Keyframe{}, false
	}
	if step.Change == diff.ChangeCut {
		p.stats.SceneCuts++
	}

	if step.From != step.To {
		logrus.WithFields(logrus.Fields{
			"function":     "Pipeline.consume",
			"run_id":       p.runID,
			"frame_number": raw.FrameNumber,
			"from":         step.From,
			"to":           step.To,
			"score":        step.Score,
			"confidence":   step.Confidence,
		}).Debug("State transition")
	}

	if !step.Candidate {
		return Keyframe{}, false
	}
	return p.resolveCandidate(work, probe.Signature(), step.Confidence)
}

// resolveCandidate deduplicates and encodes a settled frame.
func (p *Pipeline) resolveCandidate(work *frame.RawFrame, sig diff.Signature, confidence float64) (Keyframe, bool) {
	if p.emitted && work.TimestampMs <= p.lastEmittedMs {
		p.stats.StaleTimestamps++
		p.resolve(OutcomeDuplicate)

		logrus.WithFields(logrus.Fields{
			"function":        "Pipeline.resolveCandidate",
			"run_id":          p.runID,
			"frame_number":    work.FrameNumber,
			"timestamp_ms":    work.TimestampMs,
			"last_emitted_ms": p.lastEmittedMs,
		}).Debug("Candidate shares a timestamp with the last keyframe")
		return Keyframe{}, false
	}

	decision := p.dedup.Check(sig)
	if !decision.Accepted {
		p.stats.DuplicatesRejected++
		p.resolve(OutcomeDuplicate)

		logrus.WithFields(logrus.Fields{
			"function":     "Pipeline.resolveCandidate",
			"run_id":       p.runID,
			"frame_number": work.FrameNumber,
			"min_distance": decision.MinDistance,
			"nearest":      decision.Nearest,
		}).Debug("Candidate rejected as duplicate")
		return Keyframe{}, false
	}

	data, err := p.encoder.Encode(work.Width, work.Height, work.Luma)
	if err != nil {
		err = fmt.Errorf("%w: frame %d: %v", ErrEncodeFailure, work.FrameNumber, err)
		p.stats.EncodeFailures++
		p.resolve(OutcomeFailed)

		logrus.WithFields(logrus.Fields{
			"function":     "Pipeline.resolveCandidate",
			"run_id":       p.runID,
			"frame_number": work.FrameNumber,
			"error":        err.Error(),
		}).Warn("Dropping keyframe candidate")
		return Keyframe{}, false
	}

	p.dedup.Accept(sig)
	p.lastEmittedMs = work.TimestampMs
	p.emitted = true
	p.stats.ExtractedFrames++
	p.resolve(OutcomeEmitted)

	kf := Keyframe{
		FrameNumber: work.FrameNumber,
		TimestampMs: work.TimestampMs,
		Confidence:  confidence,
		Width:       work.Width,
		Height:      work.Height,
		Data:        data,
		Format:      p.encoder.Format(),
	}

	logrus.WithFields(logrus.Fields{
		"function":     "Pipeline.resolveCandidate",
		"run_id":       p.runID,
		"frame_number": kf.FrameNumber,
		"timestamp_ms": kf.TimestampMs,
		"confidence":   kf.Confidence,
		"bytes":        len(kf.Data),
	}).Info("Keyframe extracted")

	return kf, true
}

func (p *Pipeline) resolve(outcome Outcome) {
	if err := p.machine.Resolve(outcome); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Pipeline.resolve",
			"run_id":   p.runID,
			"error":    err.Error(),
		}).Error("Failed to resolve candidate")
	}
}

func (p *Pipeline) logDrop(raw *frame.RawFrame, err error) {
	reason := "malformed"
	if errors.Is(err, frame.ErrOutOfOrderFrame) {
		reason = "out_of_order"
	}
	logrus.WithFields(logrus.Fields{
		"function":     "Pipeline.consume",
		"run_id":       p.runID,
		"frame_number": raw.FrameNumber,
		"reason":       reason,
		"error":        err.Error(),
	}).Debug("Dropping frame")
}

// Stats returns the counters as of the last completed call.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// State returns the state machine's current state.
func (p *Pipeline) State() State {
	return p.machine.State()
}

// RunID identifies the current run in logs. Reset starts a new run.
func (p *Pipeline) RunID() uuid.UUID {
	return p.runID
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// Reset clears the reference frame, stable count, duplicate history,
// ordering history, last keyframe timestamp and stats, returning the
// pipeline to StateIdle.
func (p *Pipeline) Reset() error {
	if !p.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer p.busy.Store(false)

	if p.disposed {
		return ErrDisposed
	}

	previous := p.runID
	p.machine.Reset()
	p.dedup.Clear()
	p.sequencer.Reset()
	p.lastEmittedMs = 0
	p.emitted = false
	p.stats = Stats{}
	p.runID = uuid.New()

	logrus.WithFields(logrus.Fields{
		"function":     "Pipeline.Reset",
		"previous_run": previous,
		"run_id":       p.runID,
	}).Info("Keyframe pipeline reset")

	return nil
}

// Dispose releases held buffers and closes the encoder. It is idempotent.
func (p *Pipeline) Dispose() error {
	if !p.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer p.busy.Store(false)

	if p.disposed {
		logrus.WithFields(logrus.Fields{
			"function": "Pipeline.Dispose",
			"run_id":   p.runID,
		}).Debug("Pipeline already disposed")
		return nil
	}
	p.disposed = true

	p.machine.Reset()
	p.dedup.Release()
	p.sequencer.Reset()
	if r, ok := p.detector.(interface{ Release() }); ok {
		r.Release()
	}

	var closeErr error
	if err := p.encoder.Close(); err != nil {
		closeErr = fmt.Errorf("encoder close: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Pipeline.Dispose",
		"run_id":    p.runID,
		"processed": p.stats.ProcessedFrames,
		"extracted": p.stats.ExtractedFrames,
	}).Info("Keyframe pipeline disposed")

	return closeErr
}
