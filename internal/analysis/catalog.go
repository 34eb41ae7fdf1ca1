// catalog.go: catalog ingestion from a manifest directory
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/cardmatch-go/internal/catalog"
	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/errors"
	"github.com/tphakala/cardmatch-go/internal/imaging"
)

// catalogManifest describes the cards in an import directory.
type catalogManifest struct {
	Cards []manifestCard `yaml:"cards"`
}

type manifestCard struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Set    string `yaml:"set"`
	Rarity string `yaml:"rarity"`
	Image  string `yaml:"image"`
}

// ImportCatalog reads manifest.yaml from dir, embeds each referenced image
// through the same pipeline used at scan time and upserts the entries into
// the SQLite catalog. Embedding with the same extractor as the capture
// device is what makes catalog and query vectors comparable.
func ImportCatalog(ctx context.Context, settings *conf.Settings, dir string) error {
	raw, err := os.ReadFile(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return errors.New(err).
			Component("analysis").
			Category(errors.CategoryCatalog).
			Context("directory", dir).
			Build()
	}

	var manifest catalogManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return errors.New(fmt.Errorf("invalid manifest: %w", err)).
			Component("analysis").
			Category(errors.CategoryCatalog).
			Build()
	}
	if len(manifest.Cards) == 0 {
		return errors.Newf("manifest lists no cards").
			Component("analysis").
			Category(errors.CategoryValidation).
			Build()
	}

	encoder, err := buildEncoder(settings)
	if err != nil {
		return err
	}
	normalizer := imaging.NewNormalizer(&settings.Matcher)

	store := catalog.NewStore(&settings.Catalog.SQLite)
	if err := store.Open(); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var imported int
	for i := range manifest.Cards {
		card := &manifest.Cards[i]
		frame, err := imaging.LoadFrame(filepath.Join(dir, card.Image))
		if err != nil {
			getLogger().Warn("skipping card, image unreadable",
				"id", card.ID, "image", card.Image, "error", err)
			continue
		}

		canon := normalizer.Normalize(frame)
		art := imaging.ArtCrop(canon.Image, &settings.Matcher.ArtRegion, settings.Matcher.EmbedSize)
		embedding, err := encoder.Embed(ctx, art)
		if err != nil {
			return err
		}

		entry := catalog.Entry{
			ID:          card.ID,
			DisplayName: card.Name,
			SetLabel:    card.Set,
			Rarity:      card.Rarity,
			Embedding:   embedding,
		}
		catalog.NormalizeEntry(&entry, "")
		if entry.ID == "" || entry.DisplayName == "" {
			getLogger().Warn("skipping card with missing id or name", "image", card.Image)
			continue
		}

		if err := store.Save(ctx, &entry); err != nil {
			return err
		}
		imported++
		fmt.Printf("Imported %s (%s)\n", entry.DisplayName, entry.ID)
	}

	getLogger().Info("catalog import finished", "imported", imported, "listed", len(manifest.Cards))
	fmt.Printf("Imported %d of %d cards.\n", imported, len(manifest.Cards))
	return nil
}

// ListCatalog prints the catalog contents.
func ListCatalog(ctx context.Context, settings *conf.Settings) error {
	store := catalog.NewStore(&settings.Catalog.SQLite)
	if err := store.Open(); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.ListCatalog(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Catalog is empty.")
		return nil
	}
	for i := range entries {
		e := &entries[i]
		fmt.Printf("%-12s %-30s %-20s %s\n", e.ID, e.DisplayName, e.SetLabel, e.Rarity)
	}
	fmt.Printf("%d entries.\n", len(entries))
	return nil
}
