// Package fusion combines visual similarity and OCR text scores into one
// ranked candidate list with confidence banding and ambiguity detection.
package fusion

import (
	"sort"

	"github.com/tphakala/cardmatch-go/internal/catalog"
	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/index"
	"github.com/tphakala/cardmatch-go/internal/ocr"
)

// ConfidenceBand labels a combined score range.
type ConfidenceBand string

const (
	BandExcellent ConfidenceBand = "excellent"
	BandGood      ConfidenceBand = "good"
	BandFair      ConfidenceBand = "fair"
	BandLow       ConfidenceBand = "low"
)

// Candidate is one fused, ranked match candidate. Recomputed every frame.
type Candidate struct {
	Entry          catalog.Entry
	VisualScore    float64
	OCRScore       float64
	CombinedScore  float64
	ConfidenceBand ConfidenceBand
}

// Result is the fused outcome for one frame.
type Result struct {
	Candidates        []Candidate
	HasMargin         bool // top candidate clears the runner-up by the margin
	Ambiguous         bool // top two are too close to auto-accept
	NeedsConfirmation bool // route to user confirmation instead of auto-commit
}

// Top returns the best candidate, or nil for an empty result.
func (r *Result) Top() *Candidate {
	if len(r.Candidates) == 0 {
		return nil
	}
	return &r.Candidates[0]
}

// Fuser applies configured weights and thresholds.
type Fuser struct {
	settings *conf.FusionSettings
}

// New creates a Fuser.
func New(settings *conf.FusionSettings) *Fuser {
	return &Fuser{settings: settings}
}

// Fuse merges visual candidates with OCR text matches. Candidates present
// only in the OCR list are scored for visual similarity through the index so
// they are never silently dropped. The OCR list may be empty; fusion then
// degrades to visual-only scoring.
func (f *Fuser) Fuse(query []float32, visual []index.Result, textMatches []ocr.TextMatch, idx *index.Index) *Result {
	// With no text signal this frame the full weight falls on visual, so
	// the confidence bands keep their meaning when OCR is disabled or the
	// text band read nothing.
	wSum := f.settings.VisualWeight + f.settings.OCRWeight
	if len(textMatches) == 0 && f.settings.VisualWeight > 0 {
		wSum = f.settings.VisualWeight
	}

	type partial struct {
		entry       catalog.Entry
		visualScore float64
		ocrScore    float64
	}
	merged := make(map[string]*partial, len(visual)+len(textMatches))
	order := make([]string, 0, len(visual)+len(textMatches))

	for i := range visual {
		id := visual[i].Entry.ID
		merged[id] = &partial{
			entry:       visual[i].Entry,
			visualScore: clamp01(visual[i].Score),
		}
		order = append(order, id)
	}
	for i := range textMatches {
		tm := &textMatches[i]
		if p, ok := merged[tm.EntryID]; ok {
			p.ocrScore = clamp01(tm.Score)
			continue
		}
		entry, ok := idx.Entry(tm.EntryID)
		if !ok {
			continue
		}
		// on-demand visual score for an OCR-only candidate
		visualScore, _ := idx.ScoreFor(query, tm.EntryID)
		merged[tm.EntryID] = &partial{
			entry:       entry,
			visualScore: clamp01(visualScore),
			ocrScore:    clamp01(tm.Score),
		}
		order = append(order, tm.EntryID)
	}

	candidates := make([]Candidate, 0, len(order))
	for _, id := range order {
		p := merged[id]
		combined := (f.settings.VisualWeight*p.visualScore + f.settings.OCRWeight*p.ocrScore) / wSum
		candidates = append(candidates, Candidate{
			Entry:          p.entry,
			VisualScore:    p.visualScore,
			OCRScore:       p.ocrScore,
			CombinedScore:  combined,
			ConfidenceBand: f.band(combined),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CombinedScore > candidates[j].CombinedScore
	})

	result := &Result{Candidates: candidates, NeedsConfirmation: true}
	if len(candidates) == 0 {
		return result
	}

	top := candidates[0].CombinedScore
	switch {
	case len(candidates) >= 2:
		gap := top - candidates[1].CombinedScore
		result.HasMargin = gap >= f.settings.Margin
		result.Ambiguous = gap < f.settings.AmbiguityEpsilon
	default:
		// a lone candidate has margin only when it is outright excellent
		result.HasMargin = top >= f.settings.Excellent
	}

	result.NeedsConfirmation = !(top >= f.settings.AutoConfirm && result.HasMargin)
	return result
}

func (f *Fuser) band(score float64) ConfidenceBand {
	switch {
	case score >= f.settings.Excellent:
		return BandExcellent
	case score >= f.settings.Good:
		return BandGood
	case score >= f.settings.Fair:
		return BandFair
	default:
		return BandLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
