package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/cardmatch-go/internal/conf"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(&conf.SQLiteSettings{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "catalog.db"),
	})
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSaveAndList(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:          "SV-001",
		DisplayName: "Storm Crow",
		SetLabel:    "Shadowvale",
		Rarity:      "common",
		Embedding:   []float32{0.6, 0.8},
	}
	require.NoError(t, store.Save(ctx, &entry))

	entries, err := store.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])
}

func TestStoreSaveUpserts(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	entry := Entry{ID: "SV-001", DisplayName: "Storm Crow", Embedding: []float32{1, 0}}
	require.NoError(t, store.Save(ctx, &entry))

	entry.DisplayName = "Storm Crow (revised)"
	entry.Embedding = []float32{0, 1}
	require.NoError(t, store.Save(ctx, &entry))

	entries, err := store.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Storm Crow (revised)", entries[0].DisplayName)
	assert.Equal(t, []float32{0, 1}, entries[0].Embedding)
}

func TestStoreSkipsInvalidEmbedding(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Entry{
		ID: "good", DisplayName: "Good", Embedding: []float32{1},
	}))

	// Corrupt one row's blob directly; load must skip it, not fail.
	require.NoError(t, store.db.Exec(
		"INSERT INTO cards (id, display_name, embedding) VALUES (?, ?, ?)",
		"torn", "Torn", []byte{1, 2, 3}).Error)

	entries, err := store.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "good", entries[0].ID)
}

func TestStoreFoldsLegacySetName(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.db.Exec(
		"INSERT INTO cards (id, display_name, set_name, embedding) VALUES (?, ?, ?, ?)",
		"SV-009", "Old Record", "Shadowvale", EncodeEmbedding([]float32{1})).Error)

	entries, err := store.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Shadowvale", entries[0].SetLabel)
}

func TestStoreCloseWithoutOpen(t *testing.T) {
	t.Parallel()

	store := NewStore(&conf.SQLiteSettings{Path: "unused.db"})
	assert.NoError(t, store.Close())
}
