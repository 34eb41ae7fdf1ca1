// config.go: settings struct and functions to load and save the CardMatch-Go configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig contains settings for a rotated log file.
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
	MaxSize int64  // max log file size in bytes before rotation
	MaxAge  int    // max age of rotated log files in days
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name string    // name of this node, used in logs and events
	Log  LogConfig // main log file settings
}

// ArtRegionSettings define the fixed crop of the canonical card used for
// embedding computation. Values are fractions of the canonical dimensions.
type ArtRegionSettings struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// ModelSettings contains settings for the optional CNN embedding backend.
type ModelSettings struct {
	Enabled    bool   // true to use the TFLite embedding model instead of the deterministic extractor
	ModelPath  string // path to the TFLite model file
	Threads    int    // number of interpreter threads, 0 to use all cores
	UseXNNPACK bool   // true to enable XNNPACK delegate
}

// MatcherSettings contains settings for the visual matching pipeline.
type MatcherSettings struct {
	CanonicalWidth  int               // canonical card width in pixels
	CanonicalHeight int               // canonical card height in pixels
	EdgeInset       float64           // fraction of each edge discarded after warp
	EmbedSize       int               // square size of the art crop fed to the extractor
	ArtRegion       ArtRegionSettings // fixed art region crop
	TopK            int               // number of visual candidates per frame
	Model           ModelSettings     // CNN backend settings
}

// OCRSettings contains settings for optical text recognition.
type OCRSettings struct {
	Enabled      bool    // true to enable the OCR signal
	Language     string  // tesseract language code
	TessdataPath string  // path to tessdata directory, empty for system default
	TopN         int     // number of fuzzy text candidates per frame
	CacheTTL     int     // seconds to cache OCR reads keyed by text band hash
	MinimumConf  float64 // OCR confidence below this is treated as no reading
}

// FusionSettings contains weights and thresholds for multi-signal fusion.
type FusionSettings struct {
	VisualWeight     float64 // weight of the visual similarity score
	OCRWeight        float64 // weight of the OCR match score
	Excellent        float64 // combined score threshold for the excellent band
	Good             float64 // combined score threshold for the good band
	Fair             float64 // combined score threshold for the fair band
	Margin           float64 // required gap between top candidate and runner-up
	AmbiguityEpsilon float64 // top-two gap below this flags the frame ambiguous
	AutoConfirm      float64 // combined score required for auto-confirmation
}

// QualitySettings contains advisory frame quality thresholds.
type QualitySettings struct {
	Enabled       bool    // true to gate auto-confirmation on frame quality
	MinBrightness float64 // mean luminance below this flags the frame too dark
	MaxBrightness float64 // mean luminance above this flags the frame too bright
	MinSharpness  float64 // Laplacian variance below this flags the frame blurry
}

// RealtimeSettings contains settings for the live scan loop.
type RealtimeSettings struct {
	Source        string          // frame source directory watched for captured frames
	Interval      int             // scan tick interval in milliseconds
	Window        float64         // detection window in seconds
	MinDetections int             // samples required within the window to confirm
	MinConfidence float64         // minimum average confidence for confirmation
	Cooldown      float64         // per-card confirmation cooldown in seconds
	FrameTimeout  float64         // per-frame processing timeout in seconds
	Quality       QualitySettings // frame quality gate
}

// SQLiteSettings contains settings for the SQLite catalog store.
type SQLiteSettings struct {
	Enabled bool   // true to load the catalog from SQLite
	Path    string // path to the catalog database
}

// CatalogSettings contains settings for the card catalog source.
type CatalogSettings struct {
	SQLite SQLiteSettings
}

// MetricsSettings contains settings for the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   // true to expose Prometheus metrics
	Listen  string // listen address for the metrics endpoint
}

// Settings is the root configuration of the application.
type Settings struct {
	Debug bool // true to enable debug logging

	Main     MainSettings
	Matcher  MatcherSettings
	OCR      OCRSettings
	Fusion   FusionSettings
	Realtime RealtimeSettings
	Catalog  CatalogSettings
	Metrics  MetricsSettings
}

var (
	settingsInstance *Settings
	settingsOnce     sync.Once
)

// Load reads the configuration file, applying defaults for missing values,
// and returns the populated settings. The first successful load is cached
// and returned by Setting().
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsOnce.Do(func() {
		settingsInstance = settings
	})
	return settings, nil
}

// Setting returns the cached settings instance, or nil if Load has not
// been called successfully.
func Setting() *Settings {
	return settingsInstance
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
		return createDefaultConfig(configPaths[0])
	}
	return nil
}

// createDefaultConfig writes the embedded default configuration to the first
// config path and instructs viper to use it.
func createDefaultConfig(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")
	defaultConfig, err := getDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configPath, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	log.Printf("Created default config file at: %v", configFile)
	return viper.ReadInConfig()
}

// getDefaultConfig returns the embedded default configuration as a string.
func getDefaultConfig() (string, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return "", fmt.Errorf("error reading embedded config.yaml: %w", err)
	}
	return string(data), nil
}

// GetDefaultConfigPaths returns the list of directories searched for the
// configuration file, in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	return []string{
		filepath.Join(homeDir, ".config", "cardmatch-go"),
		".",
	}, nil
}

// SaveSettings writes the current settings to the given path as YAML.
func SaveSettings(settings *Settings, path string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing settings to %s: %w", path, err)
	}
	return nil
}
