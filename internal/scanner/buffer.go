// buffer.go: rolling detection sample buffer
package scanner

import (
	"sort"
	"time"
)

// DetectionSample is one per-frame detection appended to the rolling buffer.
type DetectionSample struct {
	CandidateID string
	Confidence  float64
	Timestamp   time.Time
}

// detectionBuffer holds timestamp-ordered samples within the detection
// window. It is not safe for concurrent use; the Processor serializes all
// access on its own lock.
type detectionBuffer struct {
	samples []DetectionSample
	window  time.Duration
}

func newDetectionBuffer(window time.Duration) *detectionBuffer {
	return &detectionBuffer{window: window}
}

// add appends a sample. Samples arrive in timestamp order from the single
// scan control path.
func (b *detectionBuffer) add(sample DetectionSample) {
	b.samples = append(b.samples, sample)
}

// prune drops samples older than the window. It must run before grouping on
// every tick so an expired sample can never contribute to a confirmation.
func (b *detectionBuffer) prune(now time.Time) {
	cutoff := now.Add(-b.window)
	keep := b.samples[:0]
	for _, s := range b.samples {
		if !s.Timestamp.Before(cutoff) {
			keep = append(keep, s)
		}
	}
	b.samples = keep
}

// clearCandidate removes all samples for one candidate id, leaving other
// candidates' evidence intact.
func (b *detectionBuffer) clearCandidate(id string) {
	keep := b.samples[:0]
	for _, s := range b.samples {
		if s.CandidateID != id {
			keep = append(keep, s)
		}
	}
	b.samples = keep
}

// candidateGroup is the aggregated evidence for one candidate id.
type candidateGroup struct {
	CandidateID   string
	Count         int
	AvgConfidence float64
}

// groups aggregates the buffered samples per candidate id. Groups are
// ordered by descending average confidence with the candidate id as a
// deterministic secondary key, so confirmation order never depends on map
// iteration order.
func (b *detectionBuffer) groups() []candidateGroup {
	sums := make(map[string]*candidateGroup)
	var order []string
	for _, s := range b.samples {
		g, ok := sums[s.CandidateID]
		if !ok {
			g = &candidateGroup{CandidateID: s.CandidateID}
			sums[s.CandidateID] = g
			order = append(order, s.CandidateID)
		}
		g.Count++
		g.AvgConfidence += s.Confidence
	}

	result := make([]candidateGroup, 0, len(order))
	for _, id := range order {
		g := sums[id]
		g.AvgConfidence /= float64(g.Count)
		result = append(result, *g)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].AvgConfidence != result[j].AvgConfidence {
			return result[i].AvgConfidence > result[j].AvgConfidence
		}
		return result[i].CandidateID < result[j].CandidateID
	})
	return result
}

// len returns the number of buffered samples.
func (b *detectionBuffer) len() int {
	return len(b.samples)
}
