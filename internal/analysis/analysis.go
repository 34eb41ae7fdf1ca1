// Package analysis wires the matching pipeline together for the CLI entry
// points: realtime scanning, single-file identification and the comparison
// harness.
package analysis

import (
	"context"
	"fmt"

	"github.com/tphakala/cardmatch-go/internal/catalog"
	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/errors"
	"github.com/tphakala/cardmatch-go/internal/extractor"
	"github.com/tphakala/cardmatch-go/internal/index"
	"github.com/tphakala/cardmatch-go/internal/observability"
	"github.com/tphakala/cardmatch-go/internal/ocr"
)

// buildEncoder selects the embedding backend. The deterministic extractor is
// the default; the TFLite model is opt-in.
func buildEncoder(settings *conf.Settings) (extractor.Encoder, error) {
	if settings.Matcher.Model.Enabled {
		return extractor.LoadModel(&settings.Matcher.Model)
	}
	return extractor.NewDeterministic(), nil
}

// loadIndex opens the configured catalog provider and fills the similarity
// index. An empty catalog is allowed; it yields empty search results rather
// than an error, so a fresh install can still start.
func loadIndex(ctx context.Context, settings *conf.Settings, metrics *observability.Metrics) (*index.Index, func() error, error) {
	idx := index.New()
	closer := func() error { return nil }

	if !settings.Catalog.SQLite.Enabled {
		return idx, closer, nil
	}

	store := catalog.NewStore(&settings.Catalog.SQLite)
	if err := store.Open(); err != nil {
		return nil, nil, err
	}
	closer = store.Close

	entries, err := store.ListCatalog(ctx)
	if err != nil {
		_ = store.Close()
		return nil, nil, errors.New(fmt.Errorf("catalog load failed: %w", err)).
			Component("analysis").
			Category(errors.CategoryCatalog).
			Build()
	}

	idx.Replace(entries)
	if metrics != nil {
		metrics.CatalogSize.Set(float64(len(entries)))
	}
	getLogger().Info("catalog loaded", "entries", len(entries))
	return idx, closer, nil
}

// buildReader creates the OCR reader, or nil when OCR is disabled. A missing
// tesseract installation surfaces at recognition time as empty readings, not
// here, keeping OCR strictly optional.
func buildReader(settings *conf.Settings) *ocr.Reader {
	if !settings.OCR.Enabled {
		return nil
	}
	engine := ocr.NewTesseractEngine(settings.OCR.Language, settings.OCR.TessdataPath)
	return ocr.NewReader(engine, &settings.OCR)
}
