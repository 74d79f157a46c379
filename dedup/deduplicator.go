// Package dedup rejects keyframe candidates that look like something emitted
// recently.
//
// The Deduplicator keeps a bounded FIFO of the signatures of the last K
// emitted keyframes. A candidate is accepted only when it differs from every
// stored signature by more than the threshold; accepting stores it and evicts
// the oldest entry once the history is full.
package dedup

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/keyframe/diff"
)

// Decision describes the outcome of Accept.
type Decision struct {
	Accepted bool
	// MinDistance is the smallest distance to any stored signature, or 1 when
	// the history is empty.
	MinDistance float64
	// Nearest is the history index (0 = oldest) of the closest signature,
	// or -1 when the history is empty.
	Nearest int
}

// Deduplicator is a bounded history of emitted keyframe signatures.
type Deduplicator struct {
	capacity  int
	threshold float64
	history   []diff.Signature
}

// New creates a deduplicator holding at most capacity signatures. Candidates
// whose minimum distance to the history is at or below threshold are rejected.
func New(capacity int, threshold float64) (*Deduplicator, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	if threshold < 0 || threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in [0,1), got %.3f", threshold)
	}
	return &Deduplicator{
		capacity:  capacity,
		threshold: threshold,
		history:   make([]diff.Signature, 0, capacity),
	}, nil
}

// Check evaluates a candidate without modifying the history.
func (d *Deduplicator) Check(sig diff.Signature) Decision {
	decision := Decision{MinDistance: 1, Nearest: -1}
	for i, stored := range d.history {
		if dist := sig.Distance(stored); dist < decision.MinDistance || decision.Nearest < 0 {
			decision.MinDistance = dist
			decision.Nearest = i
		}
	}
	decision.Accepted = decision.Nearest < 0 || decision.MinDistance > d.threshold
	return decision
}

// Accept evaluates a candidate and, when accepted, records it.
func (d *Deduplicator) Accept(sig diff.Signature) Decision {
	decision := d.Check(sig)
	if decision.Accepted {
		d.push(sig)
	}
	return decision
}

func (d *Deduplicator) push(sig diff.Signature) {
	if len(d.history) == d.capacity {
		// Shift in place so the backing array never grows
		copy(d.history, d.history[1:])
		d.history = d.history[:d.capacity-1]

		logrus.WithFields(logrus.Fields{
			"function": "Deduplicator.push",
			"capacity": d.capacity,
		}).Debug("Evicted oldest keyframe signature")
	}
	d.history = append(d.history, sig)
}

// Len returns the number of stored signatures.
func (d *Deduplicator) Len() int {
	return len(d.history)
}

// Capacity returns the maximum history length.
func (d *Deduplicator) Capacity() int {
	return d.capacity
}

// Clear drops the whole history.
func (d *Deduplicator) Clear() {
	clear(d.history)
	d.history = d.history[:0]
}

// Release drops the history and its backing storage.
func (d *Deduplicator) Release() {
	d.history = nil
}
