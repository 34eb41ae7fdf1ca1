package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectionBufferGrouping(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b := newDetectionBuffer(2500 * time.Millisecond)

	b.add(DetectionSample{CandidateID: "a", Confidence: 0.8, Timestamp: base})
	b.add(DetectionSample{CandidateID: "b", Confidence: 0.9, Timestamp: base.Add(100 * time.Millisecond)})
	b.add(DetectionSample{CandidateID: "a", Confidence: 0.6, Timestamp: base.Add(200 * time.Millisecond)})

	groups := b.groups()
	require.Len(t, groups, 2)

	// Ordered by descending average confidence.
	assert.Equal(t, "b", groups[0].CandidateID)
	assert.InDelta(t, 0.9, groups[0].AvgConfidence, 1e-9)
	assert.Equal(t, 1, groups[0].Count)

	assert.Equal(t, "a", groups[1].CandidateID)
	assert.InDelta(t, 0.7, groups[1].AvgConfidence, 1e-9)
	assert.Equal(t, 2, groups[1].Count)
}

func TestDetectionBufferTieBreakByID(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b := newDetectionBuffer(time.Minute)

	// Insert in reverse id order with equal confidence.
	b.add(DetectionSample{CandidateID: "zulu", Confidence: 0.8, Timestamp: base})
	b.add(DetectionSample{CandidateID: "alpha", Confidence: 0.8, Timestamp: base})

	groups := b.groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "alpha", groups[0].CandidateID)
	assert.Equal(t, "zulu", groups[1].CandidateID)
}

func TestDetectionBufferPrune(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b := newDetectionBuffer(2 * time.Second)

	b.add(DetectionSample{CandidateID: "a", Confidence: 0.8, Timestamp: base})
	b.add(DetectionSample{CandidateID: "a", Confidence: 0.8, Timestamp: base.Add(1500 * time.Millisecond)})
	require.Equal(t, 2, b.len())

	// Sample exactly at the cutoff survives.
	b.prune(base.Add(2 * time.Second))
	assert.Equal(t, 2, b.len())

	b.prune(base.Add(2*time.Second + time.Millisecond))
	assert.Equal(t, 1, b.len())

	b.prune(base.Add(time.Minute))
	assert.Equal(t, 0, b.len())
}

func TestDetectionBufferClearCandidate(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b := newDetectionBuffer(time.Minute)

	b.add(DetectionSample{CandidateID: "a", Confidence: 0.8, Timestamp: base})
	b.add(DetectionSample{CandidateID: "b", Confidence: 0.9, Timestamp: base})
	b.add(DetectionSample{CandidateID: "a", Confidence: 0.7, Timestamp: base})

	b.clearCandidate("a")

	groups := b.groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "b", groups[0].CandidateID)
}

func TestCooldownTracker(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("default cooldown", func(t *testing.T) {
		t.Parallel()
		tracker := NewCooldownTracker(3 * time.Second)

		assert.True(t, tracker.ShouldConfirm("a", base))
		assert.False(t, tracker.ShouldConfirm("a", base.Add(2*time.Second)))
		assert.True(t, tracker.ShouldConfirm("a", base.Add(3*time.Second)))
	})

	t.Run("ids tracked independently", func(t *testing.T) {
		t.Parallel()
		tracker := NewCooldownTracker(3 * time.Second)

		assert.True(t, tracker.ShouldConfirm("a", base))
		assert.True(t, tracker.ShouldConfirm("b", base))
	})

	t.Run("suppressed attempt does not extend the cooldown", func(t *testing.T) {
		t.Parallel()
		tracker := NewCooldownTracker(3 * time.Second)

		require.True(t, tracker.ShouldConfirm("a", base))
		require.False(t, tracker.ShouldConfirm("a", base.Add(2*time.Second)))
		// Measured from the confirmation, not the suppressed attempt.
		assert.True(t, tracker.ShouldConfirm("a", base.Add(3*time.Second)))
	})

	t.Run("per-id override", func(t *testing.T) {
		t.Parallel()
		tracker := NewCooldownTracker(3 * time.Second)
		tracker.SetOverride("fast", time.Second)

		require.True(t, tracker.ShouldConfirm("fast", base))
		assert.True(t, tracker.ShouldConfirm("fast", base.Add(time.Second)))
	})

	t.Run("reset re-arms immediately", func(t *testing.T) {
		t.Parallel()
		tracker := NewCooldownTracker(3 * time.Second)

		require.True(t, tracker.ShouldConfirm("a", base))
		tracker.Reset("a")
		assert.True(t, tracker.ShouldConfirm("a", base.Add(time.Millisecond)))
	})
}
