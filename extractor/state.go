package extractor

import (
	"fmt"

	"github.com/opd-ai/keyframe/config"
	"github.com/opd-ai/keyframe/diff"
)

// State is the extraction state machine's current state.
type State int

const (
	// StateIdle waits for the first frame of a run.
	StateIdle State = iota
	// StateScanning compares frames against the reference until content settles.
	StateScanning
	// StateCandidate holds a settled frame awaiting deduplication.
	StateCandidate
	// StateCooldown absorbs frames right after an emission.
	StateCooldown
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateScanning:
		return "Scanning"
	case StateCandidate:
		return "Candidate"
	case StateCooldown:
		return "Cooldown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Probe gives the state machine lazy access to a frame's scores. Each value
// is computed at most once per frame, and only if the machine asks for it.
type Probe interface {
	Signature() diff.Signature
	TextConfidence() float64
}

// Step reports what one frame did to the state machine.
type Step struct {
	From       State
	To         State
	Score      float64     // Diff score vs the reference; 0 when not evaluated
	Change     diff.Change // Classification of Score; ChangeNone when not evaluated
	Evaluated  bool        // False for Idle and Cooldown frames
	Candidate  bool        // The frame settled and awaits Resolve
	Confidence float64     // Text confidence, when it was computed
}

// Outcome is the fate of a candidate.
type Outcome int

const (
	// OutcomeEmitted means the candidate was accepted and encoded.
	OutcomeEmitted Outcome = iota
	// OutcomeDuplicate means the deduplicator rejected the candidate.
	OutcomeDuplicate
	// OutcomeFailed means encoding failed.
	OutcomeFailed
)

// StateMachine decides when displayed content has settled into a keyframe
// candidate. It keeps only fixed-size signatures, never frame buffers.
type StateMachine struct {
	filter         *diff.Filter
	stableFrames   int
	cooldownFrames int
	minConfidence  float64

	state     State
	reference diff.Signature
	candidate diff.Signature
	stable    int
	remaining int
}

// NewStateMachine creates a machine in StateIdle.
func NewStateMachine(filter *diff.Filter, cfg config.StateConfig, minConfidence float64) (*StateMachine, error) {
	if filter == nil {
		return nil, fmt.Errorf("diff filter cannot be nil")
	}
	if cfg.StableFrames < 1 {
		return nil, fmt.Errorf("stable frames must be >= 1, got %d", cfg.StableFrames)
	}
	if cfg.CooldownFrames < 0 {
		return nil, fmt.Errorf("cooldown frames must be >= 0, got %d", cfg.CooldownFrames)
	}
	return &StateMachine{
		filter:         filter,
		stableFrames:   cfg.StableFrames,
		cooldownFrames: cfg.CooldownFrames,
		minConfidence:  minConfidence,
	}, nil
}

// Step feeds one admitted frame. It fails with ErrInvalidTransition while a
// candidate is pending Resolve.
func (m *StateMachine) Step(p Probe) (Step, error) {
	step := Step{From: m.state}

	switch m.state {
	case StateIdle:
		m.rebase(p.Signature())

	case StateScanning:
		m.scan(p, &step)

	case StateCooldown:
		m.remaining--
		if m.remaining <= 0 {
			m.rebase(p.Signature())
		}

	case StateCandidate:
		return step, fmt.Errorf("%w: step while candidate is pending", ErrInvalidTransition)
	}

	step.To = m.state
	return step, nil
}

func (m *StateMachine) scan(p Probe, step *Step) {
	sig := p.Signature()
	step.Evaluated = true
	step.Score = m.filter.Score(sig, m.reference)
	step.Change = m.filter.Classify(step.Score)

	if step.Change == diff.ChangeNone {
		if m.stable < m.stableFrames {
			m.stable++
		}
	} else {
		// Content moved before settling; track the newest frame
		m.reference = sig
		m.stable = 1
	}

	if m.stable < m.stableFrames {
		return
	}

	step.Confidence = p.TextConfidence()
	if step.Confidence < m.minConfidence {
		return
	}

	m.candidate = sig
	m.state = StateCandidate
	step.Candidate = true
}

// rebase makes sig the reference and resumes scanning.
func (m *StateMachine) rebase(sig diff.Signature) {
	m.reference = sig
	m.candidate = diff.Signature{}
	m.stable = 1
	m.remaining = 0
	m.state = StateScanning
}

// Resolve settles the pending candidate. Emitted candidates start the
// cooldown; duplicates and failures become the new reference.
func (m *StateMachine) Resolve(outcome Outcome) error {
	if m.state != StateCandidate {
		return fmt.Errorf("%w: resolve in state %s", ErrInvalidTransition, m.state)
	}

	candidate := m.candidate
	m.rebase(candidate)

	if outcome == OutcomeEmitted && m.cooldownFrames > 0 {
		m.state = StateCooldown
		m.remaining = m.cooldownFrames
	}
	return nil
}

// Candidate returns the pending candidate signature, if any.
func (m *StateMachine) Candidate() (diff.Signature, bool) {
	return m.candidate, m.state == StateCandidate
}

// State returns the current state.
func (m *StateMachine) State() State {
	return m.state
}

// StableCount returns the current settle count.
func (m *StateMachine) StableCount() int {
	return m.stable
}

// Reset returns the machine to StateIdle and forgets the reference.
func (m *StateMachine) Reset() {
	m.state = StateIdle
	m.reference = diff.Signature{}
	m.candidate = diff.Signature{}
	m.stable = 0
	m.remaining = 0
}
