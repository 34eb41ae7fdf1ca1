// processor.go: temporal confirmation of noisy per-frame candidates
package scanner

import (
	"sync"
	"time"

	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/fusion"
	"github.com/tphakala/cardmatch-go/internal/imaging"
	"github.com/tphakala/cardmatch-go/internal/observability"
)

// ConfirmedMatch is the terminal artifact of one scan cycle, delivered to
// the collection-tracking collaborator. The engine knows nothing about
// downstream inventory semantics.
type ConfirmedMatch struct {
	EntryID     string
	DisplayName string
	Score       float64
	Timestamp   time.Time
}

// Processor turns the stream of per-frame fusion results into confirmed
// matches. Every observed frame appends a detection sample; samples older
// than the window are pruned before grouping, and a candidate group
// confirms once it has enough samples with enough average confidence and is
// outside its cooldown.
//
// All state mutation happens under the processor's lock, preserving the
// single-logical-thread ordering even when a manual scan and the periodic
// loop interleave.
type Processor struct {
	settings *conf.RealtimeSettings
	buffer   *detectionBuffer
	cooldown *CooldownTracker
	metrics  *observability.Metrics

	matches   chan ConfirmedMatch
	bestGuess *fusion.Candidate

	// now is replaceable for tests
	now func() time.Time

	mu sync.Mutex
}

// NewProcessor creates a Processor. The matches channel is buffered so a
// slow consumer cannot stall the scan loop for short bursts.
func NewProcessor(settings *conf.RealtimeSettings, metrics *observability.Metrics) *Processor {
	return &Processor{
		settings: settings,
		buffer:   newDetectionBuffer(secondsToDuration(settings.Window)),
		cooldown: NewCooldownTracker(secondsToDuration(settings.Cooldown)),
		metrics:  metrics,
		matches:  make(chan ConfirmedMatch, 16),
		now:      time.Now,
	}
}

// Matches returns the confirmed match event stream.
func (p *Processor) Matches() <-chan ConfirmedMatch {
	return p.matches
}

// Cooldown exposes the tracker for per-entry overrides.
func (p *Processor) Cooldown() *CooldownTracker {
	return p.cooldown
}

// BestGuess returns the current highest-scoring unconfirmed candidate for
// display, or nil when the buffer holds no evidence.
func (p *Processor) BestGuess() *fusion.Candidate {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bestGuess == nil {
		return nil
	}
	guess := *p.bestGuess
	return &guess
}

// Observe ingests one frame's fusion result. Frames flagged with quality
// issues update the on-screen guess but contribute no confirmation evidence
// when the quality gate is enabled.
func (p *Processor) Observe(result *fusion.Result, quality imaging.Quality) {
	top := result.Top()
	if top == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	guess := *top
	p.bestGuess = &guess

	gated := p.settings.Quality.Enabled && !quality.OK()
	if gated {
		if p.metrics != nil {
			for _, issue := range quality.Issues {
				p.metrics.QualityIssues.WithLabelValues(issue).Inc()
			}
		}
		return
	}
	// Ambiguous frames surface a disambiguation suggestion instead of
	// feeding the auto-confirm evidence stream.
	if result.Ambiguous {
		return
	}

	now := p.now()
	p.buffer.add(DetectionSample{
		CandidateID: top.Entry.ID,
		Confidence:  top.CombinedScore,
		Timestamp:   now,
	})

	p.evaluateLocked(now)
}

// evaluateLocked prunes, groups and confirms at most one candidate per tick.
// Caller must hold p.mu.
func (p *Processor) evaluateLocked(now time.Time) {
	p.buffer.prune(now)

	for _, group := range p.buffer.groups() {
		if group.Count < p.settings.MinDetections {
			continue
		}
		if group.AvgConfidence < p.settings.MinConfidence {
			continue
		}
		if !p.cooldown.ShouldConfirm(group.CandidateID, now) {
			if p.metrics != nil {
				p.metrics.CooldownSuppressed.Inc()
			}
			continue
		}

		p.confirmLocked(group, now)
		return
	}
}

// confirmLocked emits a confirmed match and clears that candidate's
// buffered evidence only.
func (p *Processor) confirmLocked(group candidateGroup, now time.Time) {
	displayName := group.CandidateID
	if p.bestGuess != nil && p.bestGuess.Entry.ID == group.CandidateID {
		displayName = p.bestGuess.Entry.DisplayName
	}

	p.buffer.clearCandidate(group.CandidateID)
	p.bestGuess = nil

	match := ConfirmedMatch{
		EntryID:     group.CandidateID,
		DisplayName: displayName,
		Score:       group.AvgConfidence,
		Timestamp:   now,
	}

	getLogger().Info("confirmed match",
		"entry_id", match.EntryID,
		"display_name", match.DisplayName,
		"score", match.Score,
		"samples", group.Count)
	if p.metrics != nil {
		p.metrics.Confirmations.Inc()
	}

	select {
	case p.matches <- match:
	default:
		getLogger().Warn("match channel full, dropping confirmation",
			"entry_id", match.EntryID)
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
