// store.go: SQLite-backed catalog storage using GORM
package catalog

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/errors"
)

// cardRecord is the GORM model for one catalog row. SetName is the legacy
// alias column kept for databases written by older sync jobs; it is folded
// into SetLabel at load time and never exposed.
type cardRecord struct {
	ID          string `gorm:"primaryKey"`
	DisplayName string `gorm:"index"`
	SetLabel    string
	SetName     string
	Rarity      string
	Embedding   []byte `gorm:"type:blob"`
	UpdatedAt   time.Time
}

func (cardRecord) TableName() string {
	return "cards"
}

// Store is a SQLite catalog store implementing Provider.
type Store struct {
	db       *gorm.DB
	settings *conf.SQLiteSettings
}

// NewStore creates a Store for the configured database path.
func NewStore(settings *conf.SQLiteSettings) *Store {
	return &Store{settings: settings}
}

// Open connects to the database and migrates the schema.
func (s *Store) Open() error {
	db, err := gorm.Open(sqlite.Open(s.settings.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return errors.New(fmt.Errorf("failed to open catalog database: %w", err)).
			Component("catalog").
			Category(errors.CategoryDatabase).
			Context("path", s.settings.Path).
			Build()
	}
	if err := db.AutoMigrate(&cardRecord{}); err != nil {
		return errors.New(fmt.Errorf("failed to migrate catalog schema: %w", err)).
			Component("catalog").
			Category(errors.CategoryDatabase).
			Build()
	}
	s.db = db
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ListCatalog loads all entries with decoded embeddings. Records whose
// embedding blob has the wrong length are skipped with a warning rather than
// failing the whole load.
func (s *Store) ListCatalog(ctx context.Context) ([]Entry, error) {
	var records []cardRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, errors.New(fmt.Errorf("failed to list catalog: %w", err)).
			Component("catalog").
			Category(errors.CategoryDatabase).
			Build()
	}

	entries := make([]Entry, 0, len(records))
	for i := range records {
		rec := &records[i]
		embedding, err := DecodeEmbedding(rec.Embedding)
		if err != nil {
			getLogger().Warn("skipping catalog entry with invalid embedding",
				"id", rec.ID, "error", err)
			continue
		}
		entry := Entry{
			ID:          rec.ID,
			DisplayName: rec.DisplayName,
			SetLabel:    rec.SetLabel,
			Rarity:      rec.Rarity,
			Embedding:   embedding,
		}
		NormalizeEntry(&entry, rec.SetName)
		entries = append(entries, entry)
	}
	return entries, nil
}

// Save upserts one entry. Used by the sync tooling; the scan path never
// writes the catalog.
func (s *Store) Save(ctx context.Context, entry *Entry) error {
	rec := cardRecord{
		ID:          entry.ID,
		DisplayName: entry.DisplayName,
		SetLabel:    entry.SetLabel,
		Rarity:      entry.Rarity,
		Embedding:   EncodeEmbedding(entry.Embedding),
		UpdatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return errors.New(fmt.Errorf("failed to save catalog entry: %w", err)).
			Component("catalog").
			Category(errors.CategoryDatabase).
			Context("id", entry.ID).
			Build()
	}
	return nil
}

// EncodeEmbedding serializes a vector as little-endian float32 bytes.
func EncodeEmbedding(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeEmbedding deserializes little-endian float32 bytes into a vector.
func DecodeEmbedding(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
