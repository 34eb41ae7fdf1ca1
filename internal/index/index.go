// Package index provides a brute-force in-memory cosine similarity index
// over catalog embeddings. Catalog sizes stay in the low thousands, so a
// linear scan per query is deliberately preferred over approximate search
// structures.
package index

import (
	"sort"
	"sync"

	"github.com/tphakala/cardmatch-go/internal/catalog"
	"github.com/tphakala/cardmatch-go/internal/extractor"
)

// Result is one ranked catalog hit.
type Result struct {
	Entry catalog.Entry
	Score float64
}

// Index holds catalog embeddings and answers top-K queries. Safe for
// concurrent queries; Replace swaps the snapshot atomically so a catalog
// reload never tears an in-flight search.
type Index struct {
	mu      sync.RWMutex
	entries []catalog.Entry
	byID    map[string]int
}

// New constructs an empty index.
func New() *Index {
	return &Index{byID: make(map[string]int)}
}

// Replace swaps the stored catalog snapshot.
func (idx *Index) Replace(entries []catalog.Entry) {
	byID := make(map[string]int, len(entries))
	for i := range entries {
		byID[entries[i].ID] = i
	}

	idx.mu.Lock()
	idx.entries = entries
	idx.byID = byID
	idx.mu.Unlock()
}

// Entries returns the current catalog snapshot. Callers must treat it as
// read-only.
func (idx *Index) Entries() []catalog.Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entries
}

// Size returns the number of indexed entries.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Search returns the top-k entries ranked by dot product against the query.
// Both sides are L2-normalized, so the dot product equals cosine similarity.
// An empty catalog yields an empty result, not an error.
func (idx *Index) Search(query []float32, k int) []Result {
	idx.mu.RLock()
	entries := idx.entries
	idx.mu.RUnlock()

	if len(entries) == 0 || len(query) == 0 || k <= 0 {
		return nil
	}

	results := make([]Result, 0, len(entries))
	for i := range entries {
		// Mismatched vector lengths score zero inside Dot; defensive only.
		results = append(results, Result{
			Entry: entries[i],
			Score: extractor.Dot(query, entries[i].Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

// ScoreFor returns the similarity of the query against one entry by id.
// Used by fusion to score OCR-only candidates on demand.
func (idx *Index) ScoreFor(query []float32, id string) (float64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i, ok := idx.byID[id]
	if !ok {
		return 0, false
	}
	return extractor.Dot(query, idx.entries[i].Embedding), true
}

// Entry returns the catalog entry for an id.
func (idx *Index) Entry(id string) (catalog.Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i, ok := idx.byID[id]
	if !ok {
		return catalog.Entry{}, false
	}
	return idx.entries[i], true
}
