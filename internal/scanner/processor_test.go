package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/cardmatch-go/internal/catalog"
	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/fusion"
	"github.com/tphakala/cardmatch-go/internal/imaging"
)

func testRealtimeSettings() *conf.RealtimeSettings {
	return &conf.RealtimeSettings{
		Interval:      750,
		Window:        2.5,
		MinDetections: 2,
		MinConfidence: 0.60,
		Cooldown:      3.0,
		FrameTimeout:  5.0,
		Quality:       conf.QualitySettings{Enabled: true},
	}
}

func frameResult(id string, score float64) *fusion.Result {
	return &fusion.Result{
		Candidates: []fusion.Candidate{{
			Entry:         catalog.Entry{ID: id, DisplayName: "Card " + id},
			CombinedScore: score,
		}},
	}
}

func goodQuality() imaging.Quality {
	return imaging.Quality{}
}

// testClock drives the processor's injectable time source.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestProcessor(settings *conf.RealtimeSettings) (*Processor, *testClock) {
	p := NewProcessor(settings, nil)
	clock := newTestClock()
	p.now = clock.now
	return p, clock
}

func drainMatches(p *Processor) []ConfirmedMatch {
	var matches []ConfirmedMatch
	for {
		select {
		case m := <-p.Matches():
			matches = append(matches, m)
		default:
			return matches
		}
	}
}

func TestProcessorConfirmsAfterMinDetections(t *testing.T) {
	t.Parallel()

	p, clock := newTestProcessor(testRealtimeSettings())

	p.Observe(frameResult("card-a", 0.85), goodQuality())
	assert.Empty(t, drainMatches(p), "one sample must not confirm")

	clock.advance(750 * time.Millisecond)
	p.Observe(frameResult("card-a", 0.90), goodQuality())

	matches := drainMatches(p)
	require.Len(t, matches, 1)
	assert.Equal(t, "card-a", matches[0].EntryID)
	assert.Equal(t, "Card card-a", matches[0].DisplayName)
	assert.InDelta(t, 0.875, matches[0].Score, 1e-9)
	assert.Equal(t, clock.now(), matches[0].Timestamp)
}

func TestProcessorWindowPruning(t *testing.T) {
	t.Parallel()

	p, clock := newTestProcessor(testRealtimeSettings())

	p.Observe(frameResult("card-a", 0.85), goodQuality())

	// The first sample falls out of the 2.5s window before the second lands.
	clock.advance(3 * time.Second)
	p.Observe(frameResult("card-a", 0.85), goodQuality())
	assert.Empty(t, drainMatches(p))

	// A third sample within the window of the second confirms.
	clock.advance(750 * time.Millisecond)
	p.Observe(frameResult("card-a", 0.85), goodQuality())
	assert.Len(t, drainMatches(p), 1)
}

func TestProcessorMinConfidence(t *testing.T) {
	t.Parallel()

	p, clock := newTestProcessor(testRealtimeSettings())

	for i := 0; i < 3; i++ {
		p.Observe(frameResult("card-a", 0.40), goodQuality())
		clock.advance(500 * time.Millisecond)
	}
	assert.Empty(t, drainMatches(p), "low average confidence must not confirm")
}

func TestProcessorCooldownSuppressesRepeat(t *testing.T) {
	t.Parallel()

	p, clock := newTestProcessor(testRealtimeSettings())

	confirmTwice := func() int {
		p.Observe(frameResult("card-a", 0.85), goodQuality())
		clock.advance(500 * time.Millisecond)
		p.Observe(frameResult("card-a", 0.85), goodQuality())
		return len(drainMatches(p))
	}

	assert.Equal(t, 1, confirmTwice())

	// Card stays in frame: fresh samples within the cooldown stay silent.
	clock.advance(time.Second)
	assert.Equal(t, 0, confirmTwice())

	// After the cooldown elapses the same card may confirm again.
	clock.advance(4 * time.Second)
	assert.Equal(t, 1, confirmTwice())
}

func TestProcessorConfirmClearsOnlyThatCandidate(t *testing.T) {
	t.Parallel()

	settings := testRealtimeSettings()
	settings.MinDetections = 3
	p, clock := newTestProcessor(settings)

	// Interleave evidence for two cards; card-a reaches the threshold first.
	for i := 0; i < 2; i++ {
		p.Observe(frameResult("card-a", 0.90), goodQuality())
		p.Observe(frameResult("card-b", 0.80), goodQuality())
		clock.advance(400 * time.Millisecond)
	}
	p.Observe(frameResult("card-a", 0.90), goodQuality())

	matches := drainMatches(p)
	require.Len(t, matches, 1)
	assert.Equal(t, "card-a", matches[0].EntryID)

	// card-b's evidence survived the card-a confirmation.
	p.Observe(frameResult("card-b", 0.80), goodQuality())
	matches = drainMatches(p)
	require.Len(t, matches, 1)
	assert.Equal(t, "card-b", matches[0].EntryID)
}

func TestProcessorQualityGate(t *testing.T) {
	t.Parallel()

	t.Run("gated frames contribute no evidence", func(t *testing.T) {
		t.Parallel()
		p, clock := newTestProcessor(testRealtimeSettings())

		blurry := imaging.Quality{Issues: []string{"too-blurry"}}
		for i := 0; i < 4; i++ {
			p.Observe(frameResult("card-a", 0.95), blurry)
			clock.advance(400 * time.Millisecond)
		}
		assert.Empty(t, drainMatches(p))

		// The on-screen guess still tracks gated frames.
		guess := p.BestGuess()
		require.NotNil(t, guess)
		assert.Equal(t, "card-a", guess.Entry.ID)
	})

	t.Run("gate disabled admits poor frames", func(t *testing.T) {
		t.Parallel()
		settings := testRealtimeSettings()
		settings.Quality.Enabled = false
		p, clock := newTestProcessor(settings)

		blurry := imaging.Quality{Issues: []string{"too-blurry"}}
		p.Observe(frameResult("card-a", 0.95), blurry)
		clock.advance(400 * time.Millisecond)
		p.Observe(frameResult("card-a", 0.95), blurry)
		assert.Len(t, drainMatches(p), 1)
	})
}

func TestProcessorAmbiguousFramesSkipped(t *testing.T) {
	t.Parallel()

	p, clock := newTestProcessor(testRealtimeSettings())

	ambiguous := frameResult("card-a", 0.90)
	ambiguous.Ambiguous = true
	for i := 0; i < 4; i++ {
		p.Observe(ambiguous, goodQuality())
		clock.advance(400 * time.Millisecond)
	}
	assert.Empty(t, drainMatches(p), "ambiguous frames must not accumulate evidence")
}

func TestProcessorBestGuessIsCopy(t *testing.T) {
	t.Parallel()

	p, _ := newTestProcessor(testRealtimeSettings())
	assert.Nil(t, p.BestGuess())

	p.Observe(frameResult("card-a", 0.85), goodQuality())
	guess := p.BestGuess()
	require.NotNil(t, guess)

	guess.Entry.ID = "mutated"
	assert.Equal(t, "card-a", p.BestGuess().Entry.ID)
}
