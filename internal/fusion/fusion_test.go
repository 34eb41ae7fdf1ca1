package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/cardmatch-go/internal/catalog"
	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/extractor"
	"github.com/tphakala/cardmatch-go/internal/index"
	"github.com/tphakala/cardmatch-go/internal/ocr"
)

func testFusionSettings() *conf.FusionSettings {
	return &conf.FusionSettings{
		VisualWeight:     0.7,
		OCRWeight:        0.3,
		Excellent:        0.80,
		Good:             0.70,
		Fair:             0.55,
		Margin:           0.05,
		AmbiguityEpsilon: 0.03,
		AutoConfirm:      0.80,
	}
}

func entryWithAxis(id string, axis int) catalog.Entry {
	vec := make([]float32, extractor.Dim)
	vec[axis] = 1
	return catalog.Entry{ID: id, DisplayName: id, Embedding: vec}
}

func emptyIndex() *index.Index {
	return index.New()
}

func TestFuseWeightedCombination(t *testing.T) {
	t.Parallel()

	f := New(testFusionSettings())
	visual := []index.Result{
		{Entry: entryWithAxis("card-a", 0), Score: 0.9},
	}
	text := []ocr.TextMatch{
		{EntryID: "card-a", Name: "card-a", Score: 0.8},
	}

	result := f.Fuse(nil, visual, text, emptyIndex())
	require.Len(t, result.Candidates, 1)

	top := result.Top()
	require.NotNil(t, top)
	assert.InDelta(t, 0.9, top.VisualScore, 1e-9)
	assert.InDelta(t, 0.8, top.OCRScore, 1e-9)
	// (0.7*0.9 + 0.3*0.8) / 1.0
	assert.InDelta(t, 0.87, top.CombinedScore, 1e-9)
	assert.Equal(t, BandExcellent, top.ConfidenceBand)
}

func TestFuseVisualOnly(t *testing.T) {
	t.Parallel()

	f := New(testFusionSettings())
	visual := []index.Result{
		{Entry: entryWithAxis("card-a", 0), Score: 1.0},
		{Entry: entryWithAxis("card-b", 1), Score: 0.5},
	}

	result := f.Fuse(nil, visual, nil, emptyIndex())
	require.Len(t, result.Candidates, 2)

	// With no text signal the weight falls entirely on visual, so a perfect
	// visual match still reaches the excellent band and can auto-confirm.
	top := result.Candidates[0]
	assert.Equal(t, "card-a", top.Entry.ID)
	assert.InDelta(t, 1.0, top.CombinedScore, 1e-9)
	assert.Equal(t, BandExcellent, top.ConfidenceBand)
	assert.True(t, result.HasMargin)
	assert.False(t, result.NeedsConfirmation)
	assert.InDelta(t, 0.5, result.Candidates[1].CombinedScore, 1e-9)
}

func TestFuseMixedSignalsKeepFullWeightSum(t *testing.T) {
	t.Parallel()

	f := New(testFusionSettings())
	visual := []index.Result{
		{Entry: entryWithAxis("card-a", 0), Score: 0.9},
		{Entry: entryWithAxis("card-b", 1), Score: 0.9},
	}
	text := []ocr.TextMatch{
		{EntryID: "card-a", Name: "card-a", Score: 0.8},
	}

	result := f.Fuse(nil, visual, text, emptyIndex())
	require.Len(t, result.Candidates, 2)

	// A text signal exists this frame, so the candidate the reader missed
	// is penalized by the full weight sum rather than renormalized up.
	assert.Equal(t, "card-a", result.Candidates[0].Entry.ID)
	assert.InDelta(t, 0.87, result.Candidates[0].CombinedScore, 1e-9)
	assert.Equal(t, "card-b", result.Candidates[1].Entry.ID)
	assert.InDelta(t, 0.63, result.Candidates[1].CombinedScore, 1e-9)
}

func TestFuseOCROnlyCandidateIncluded(t *testing.T) {
	t.Parallel()

	f := New(testFusionSettings())

	hidden := entryWithAxis("card-hidden", 1)
	idx := index.New()
	idx.Replace([]catalog.Entry{entryWithAxis("card-a", 0), hidden})

	query := make([]float32, extractor.Dim)
	query[1] = 1 // visually identical to the hidden entry

	visual := []index.Result{
		{Entry: entryWithAxis("card-a", 0), Score: 0.2},
	}
	text := []ocr.TextMatch{
		{EntryID: "card-hidden", Name: "card-hidden", Score: 0.95},
	}

	result := f.Fuse(query, visual, text, idx)
	require.Len(t, result.Candidates, 2)

	top := result.Top()
	assert.Equal(t, "card-hidden", top.Entry.ID)
	// Visual score computed on demand through the index.
	assert.InDelta(t, 1.0, top.VisualScore, 1e-6)
}

func TestFuseUnknownOCRCandidateDropped(t *testing.T) {
	t.Parallel()

	f := New(testFusionSettings())
	text := []ocr.TextMatch{{EntryID: "ghost", Name: "ghost", Score: 1}}

	result := f.Fuse(nil, nil, text, emptyIndex())
	assert.Empty(t, result.Candidates)
	assert.True(t, result.NeedsConfirmation)
}

func TestFuseMarginAndAmbiguity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		scores            []float64
		wantMargin        bool
		wantAmbiguous     bool
		wantConfirmNeeded bool
	}{
		{
			name:              "clear winner auto-confirms",
			scores:            []float64{0.95, 0.60},
			wantMargin:        true,
			wantAmbiguous:     false,
			wantConfirmNeeded: false,
		},
		{
			name:              "close scores are ambiguous",
			scores:            []float64{0.90, 0.89},
			wantMargin:        false,
			wantAmbiguous:     true,
			wantConfirmNeeded: true,
		},
		{
			name:              "gap between epsilon and margin",
			scores:            []float64{0.90, 0.854},
			wantMargin:        false,
			wantAmbiguous:     false,
			wantConfirmNeeded: true,
		},
		{
			name:              "strong score below auto-confirm threshold",
			scores:            []float64{0.79, 0.40},
			wantMargin:        true,
			wantAmbiguous:     false,
			wantConfirmNeeded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// OCR weight zeroed so combined scores equal the visual inputs.
			settings := testFusionSettings()
			settings.VisualWeight = 1
			settings.OCRWeight = 0
			f := New(settings)

			visual := make([]index.Result, len(tt.scores))
			for i, s := range tt.scores {
				visual[i] = index.Result{Entry: entryWithAxis(string(rune('a'+i)), i), Score: s}
			}

			result := f.Fuse(nil, visual, nil, emptyIndex())
			assert.Equal(t, tt.wantMargin, result.HasMargin, "HasMargin")
			assert.Equal(t, tt.wantAmbiguous, result.Ambiguous, "Ambiguous")
			assert.Equal(t, tt.wantConfirmNeeded, result.NeedsConfirmation, "NeedsConfirmation")
		})
	}
}

func TestFuseLoneCandidate(t *testing.T) {
	t.Parallel()

	settings := testFusionSettings()
	settings.VisualWeight = 1
	settings.OCRWeight = 0
	f := New(settings)

	t.Run("excellent lone candidate has margin", func(t *testing.T) {
		t.Parallel()
		result := f.Fuse(nil, []index.Result{{Entry: entryWithAxis("a", 0), Score: 0.9}}, nil, emptyIndex())
		assert.True(t, result.HasMargin)
		assert.False(t, result.NeedsConfirmation)
	})

	t.Run("middling lone candidate does not", func(t *testing.T) {
		t.Parallel()
		result := f.Fuse(nil, []index.Result{{Entry: entryWithAxis("a", 0), Score: 0.7}}, nil, emptyIndex())
		assert.False(t, result.HasMargin)
		assert.True(t, result.NeedsConfirmation)
	})
}

func TestConfidenceBands(t *testing.T) {
	t.Parallel()

	f := New(testFusionSettings())

	tests := []struct {
		score float64
		want  ConfidenceBand
	}{
		{0.85, BandExcellent},
		{0.80, BandExcellent},
		{0.75, BandGood},
		{0.60, BandFair},
		{0.40, BandLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.band(tt.score), "score %v", tt.score)
	}
}

func TestFuseEmptyInputs(t *testing.T) {
	t.Parallel()

	f := New(testFusionSettings())
	result := f.Fuse(nil, nil, nil, emptyIndex())
	assert.Empty(t, result.Candidates)
	assert.Nil(t, result.Top())
	assert.True(t, result.NeedsConfirmation)
}
