// match.go: fuzzy matching of OCR readings against catalog names
package ocr

import (
	"sort"
	"strings"
	"unicode"

	"github.com/tphakala/cardmatch-go/internal/catalog"
)

// TextMatch is one fuzzy catalog match for an OCR reading.
type TextMatch struct {
	EntryID string
	Name    string
	Score   float64 // length-normalized edit-distance similarity in [0,1]
}

// NormalizeText lowercases, strips punctuation and collapses whitespace so
// OCR noise in case and separators does not dominate the distance.
func NormalizeText(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) && !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// trimText collapses the newlines and runs of whitespace tesseract emits
// for multi-line regions into single spaces.
func trimText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Similarity returns 1 - editDistance/maxLen for normalized inputs.
func Similarity(a, b string) float64 {
	na, nb := NormalizeText(a), NormalizeText(b)
	if na == "" && nb == "" {
		return 0
	}
	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(levenshtein(na, nb))/float64(maxLen)
}

// TopMatches ranks catalog entries by name similarity to the reading and
// returns the best n. Identifier matches, when present, are exact and rank
// above any fuzzy name score.
func TopMatches(reading Reading, entries []catalog.Entry, n int) []TextMatch {
	if reading.Empty() || len(entries) == 0 || n <= 0 {
		return nil
	}

	matches := make([]TextMatch, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		var score float64
		if reading.Identifier != "" && strings.EqualFold(reading.Identifier, entry.ID) {
			score = 1
		} else {
			score = Similarity(reading.Text, entry.DisplayName)
		}
		if score <= 0 {
			continue
		}
		matches = append(matches, TextMatch{
			EntryID: entry.ID,
			Name:    entry.DisplayName,
			Score:   score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if n > len(matches) {
		n = len(matches)
	}
	return matches[:n]
}

// levenshtein computes the edit distance with a two-row dynamic program.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
