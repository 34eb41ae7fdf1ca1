package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/cardmatch-go/internal/catalog"
)

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Azure Drake", want: "azure drake"},
		{name: "strips punctuation", input: "Sol'kanar, the Swamp King!", want: "solkanar the swamp king"},
		{name: "collapses whitespace", input: "  Storm \n  Crow  ", want: "storm crow"},
		{name: "keeps digits", input: "Card No 042", want: "card no 042"},
		{name: "empty input", input: "", want: ""},
		{name: "punctuation only", input: "?!...", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeText(tt.input))
		})
	}
}

func TestTrimText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Storm Crow", trimText("  Storm\n\nCrow \t"))
	assert.Equal(t, "", trimText(" \n "))
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	t.Run("identical after normalization", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 1.0, Similarity("Storm Crow", "storm crow"), 1e-9)
	})

	t.Run("one character off", func(t *testing.T) {
		t.Parallel()
		// "storm crow" vs "storm craw": 1 edit over 10 characters.
		assert.InDelta(t, 0.9, Similarity("Storm Crow", "Storm Craw"), 1e-9)
	})

	t.Run("unrelated strings score low", func(t *testing.T) {
		t.Parallel()
		assert.Less(t, Similarity("Storm Crow", "Volcanic Dragon"), 0.5)
	})

	t.Run("empty inputs score zero", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, Similarity("", ""))
		assert.Zero(t, Similarity("?!", "..."))
	})
}

func TestLevenshtein(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func testEntries() []catalog.Entry {
	return []catalog.Entry{
		{ID: "SV-001", DisplayName: "Storm Crow"},
		{ID: "SV-002", DisplayName: "Storm Dragon"},
		{ID: "SV-003", DisplayName: "Volcanic Dragon"},
	}
}

func TestTopMatches(t *testing.T) {
	t.Parallel()

	t.Run("ranked by similarity", func(t *testing.T) {
		t.Parallel()
		matches := TopMatches(Reading{Text: "Storm Crow", Confidence: 80}, testEntries(), 2)
		require.Len(t, matches, 2)
		assert.Equal(t, "SV-001", matches[0].EntryID)
		assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
		assert.Equal(t, "SV-002", matches[1].EntryID)
	})

	t.Run("identifier match ranks first", func(t *testing.T) {
		t.Parallel()
		reading := Reading{Text: "garbled text SV-003", Identifier: "SV-003", Confidence: 70}
		matches := TopMatches(reading, testEntries(), 3)
		require.NotEmpty(t, matches)
		assert.Equal(t, "SV-003", matches[0].EntryID)
		assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	})

	t.Run("empty reading yields nothing", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, TopMatches(Reading{}, testEntries(), 3))
	})

	t.Run("n clamped to match count", func(t *testing.T) {
		t.Parallel()
		matches := TopMatches(Reading{Text: "Storm Crow", Confidence: 80}, testEntries(), 10)
		assert.LessOrEqual(t, len(matches), len(testEntries()))
	})
}
