package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/keyframe/diff"
)

func flat(v byte) diff.Signature {
	cells := make([]uint8, 4*4)
	for i := range cells {
		cells[i] = v
	}
	return diff.Signature{Size: 4, Cells: cells}
}

func newDedup(t *testing.T, capacity int) *Deduplicator {
	t.Helper()
	d, err := New(capacity, 0.03)
	require.NoError(t, err)
	return d
}

func TestNew_Validation(t *testing.T) {
	_, err := New(0, 0.03)
	assert.Error(t, err)

	_, err = New(3, -0.1)
	assert.Error(t, err)

	_, err = New(3, 1)
	assert.Error(t, err)
}

func TestAccept_EmptyHistoryAcceptsAnything(t *testing.T) {
	d := newDedup(t, 3)

	decision := d.Accept(flat(10))

	assert.True(t, decision.Accepted)
	assert.Equal(t, -1, decision.Nearest)
	assert.Equal(t, 1, d.Len())
}

func TestAccept_RejectsNearDuplicates(t *testing.T) {
	d := newDedup(t, 3)
	require.True(t, d.Accept(flat(100)).Accepted)

	decision := d.Accept(flat(102))
	assert.False(t, decision.Accepted)
	assert.Equal(t, 0, decision.Nearest)
	assert.InDelta(t, 2.0/255, decision.MinDistance, 1e-9)
	assert.Equal(t, 1, d.Len(), "rejected candidates are not stored")

	assert.False(t, d.Accept(flat(100)).Accepted, "identical content")
}

func TestAccept_ThresholdIsExclusive(t *testing.T) {
	d, err := New(2, 10.0/255)
	require.NoError(t, err)
	require.True(t, d.Accept(flat(0)).Accepted)

	assert.False(t, d.Accept(flat(10)).Accepted, "distance equal to threshold is a duplicate")
	assert.True(t, d.Accept(flat(11)).Accepted)
}

func TestAccept_ComparesAgainstWholeWindow(t *testing.T) {
	d := newDedup(t, 3)
	require.True(t, d.Accept(flat(0)).Accepted)
	require.True(t, d.Accept(flat(100)).Accepted)
	require.True(t, d.Accept(flat(200)).Accepted)

	decision := d.Accept(flat(1))
	assert.False(t, decision.Accepted, "oldest entry still in window")
	assert.Equal(t, 0, decision.Nearest)
}

func TestAccept_EvictsOldest(t *testing.T) {
	d := newDedup(t, 2)
	require.True(t, d.Accept(flat(0)).Accepted)
	require.True(t, d.Accept(flat(100)).Accepted)
	require.True(t, d.Accept(flat(200)).Accepted)

	assert.Equal(t, 2, d.Len())
	assert.True(t, d.Check(flat(0)).Accepted, "evicted signature no longer blocks")
	assert.False(t, d.Check(flat(100)).Accepted)
	assert.False(t, d.Check(flat(200)).Accepted)
}

func TestCheck_DoesNotStore(t *testing.T) {
	d := newDedup(t, 3)

	assert.True(t, d.Check(flat(50)).Accepted)
	assert.Equal(t, 0, d.Len())
}

func TestClearAndRelease(t *testing.T) {
	d := newDedup(t, 3)
	d.Accept(flat(0))
	d.Accept(flat(128))

	d.Clear()
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 3, d.Capacity())
	assert.True(t, d.Accept(flat(0)).Accepted)

	d.Release()
	assert.Equal(t, 0, d.Len())
	assert.True(t, d.Accept(flat(0)).Accepted, "released deduplicator still works")
}
