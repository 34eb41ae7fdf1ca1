// Package catalog defines the known-card catalog consumed by the matching
// engine. The catalog is read-only during a scan session; it is populated
// out-of-band by a sync job that computes embeddings with the same extractor
// used on the capture device.
package catalog

import (
	"context"
	"strings"
)

// Entry is one known card with its precomputed embedding.
type Entry struct {
	ID          string    // unique, stable identifier
	DisplayName string    // card name shown to the user
	SetLabel    string    // set the card belongs to
	Rarity      string    // optional rarity label
	Embedding   []float32 // L2-normalized, extractor.Dim values
}

// Provider supplies the full catalog with embeddings pre-populated.
type Provider interface {
	ListCatalog(ctx context.Context) ([]Entry, error)
}

// NormalizeEntry collapses legacy alias fields and trims whitespace once at
// ingestion so consumers never see the historical record shapes.
func NormalizeEntry(entry *Entry, legacySetName string) {
	entry.ID = strings.TrimSpace(entry.ID)
	entry.DisplayName = strings.TrimSpace(entry.DisplayName)
	entry.SetLabel = strings.TrimSpace(entry.SetLabel)
	if entry.SetLabel == "" {
		entry.SetLabel = strings.TrimSpace(legacySetName)
	}
	entry.Rarity = strings.TrimSpace(entry.Rarity)
}

// StaticProvider wraps an in-memory entry list, mainly for tests and the
// file analysis mode.
type StaticProvider struct {
	Entries []Entry
}

// ListCatalog returns the wrapped entries.
func (p *StaticProvider) ListCatalog(_ context.Context) ([]Entry, error) {
	return p.Entries, nil
}
