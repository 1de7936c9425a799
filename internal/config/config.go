// Package config loads episode-binger's tunable constants and file
// locations from a TOML file, the same format and load/override flow
// five82-spindle uses for its own daemon config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every value the content-alignment engine and catalog tune,
// plus where the catalog document and alignment cache database live.
type Config struct {
	CatalogPath string `toml:"catalog_path"`
	CachePath   string `toml:"cache_path"`

	ThumbnailHeight int     `toml:"thumbnail_height"`
	ThumbnailWidth  int     `toml:"thumbnail_width"`
	Aggregation     string  `toml:"aggregation"` // "l1" or "l2"
	MinChunkSeconds float64 `toml:"min_chunk_seconds"`
	MinReliability  float64 `toml:"min_reliability"`

	NumSubsamples      int     `toml:"num_subsamples"`
	MaxReshuffles      int     `toml:"max_reshuffles"`
	IdenticalThreshold float64 `toml:"identical_threshold"`
	SimilarThreshold   float64 `toml:"similar_threshold"`

	ScanRangeSeconds float64 `toml:"scan_range_seconds"`
	ScanProbes       int     `toml:"scan_probes"`

	MaxLoadingFrames int `toml:"max_loading_frames"`
	MaxRetries       int `toml:"max_retries"`

	LogFormat string `toml:"log_format"`
	LogLevel  string `toml:"log_level"`
}

const (
	defaultCatalogPath = "episodes.json"
	defaultCachePath   = "episode-binger.db"

	defaultThumbnailHeight = 36
	defaultThumbnailWidth  = 64
	defaultAggregation     = "l1"
	defaultMinChunkSeconds = 4.0
	defaultMinReliability  = 0.90

	defaultNumSubsamples      = 50
	defaultMaxReshuffles      = 20
	defaultIdenticalThreshold = 0.01
	defaultSimilarThreshold   = 0.10

	defaultScanRangeSeconds = 180
	defaultScanProbes       = 100

	defaultMaxLoadingFrames = 500
	defaultMaxRetries       = 3

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with this system's built-in defaults
// (the values internal/align's component constructors use when a caller
// skips explicit tuning).
func Default() Config {
	return Config{
		CatalogPath:        defaultCatalogPath,
		CachePath:          defaultCachePath,
		ThumbnailHeight:    defaultThumbnailHeight,
		ThumbnailWidth:     defaultThumbnailWidth,
		Aggregation:        defaultAggregation,
		MinChunkSeconds:    defaultMinChunkSeconds,
		MinReliability:     defaultMinReliability,
		NumSubsamples:      defaultNumSubsamples,
		MaxReshuffles:      defaultMaxReshuffles,
		IdenticalThreshold: defaultIdenticalThreshold,
		SimilarThreshold:   defaultSimilarThreshold,
		ScanRangeSeconds:   defaultScanRangeSeconds,
		ScanProbes:         defaultScanProbes,
		MaxLoadingFrames:   defaultMaxLoadingFrames,
		MaxRetries:         defaultMaxRetries,
		LogFormat:          defaultLogFormat,
		LogLevel:           defaultLogLevel,
	}
}

// Load parses path on top of Default(), returning defaults unchanged if
// the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return &cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Aggregation = strings.ToLower(strings.TrimSpace(c.Aggregation))
	if c.Aggregation == "" {
		c.Aggregation = defaultAggregation
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	return nil
}

// Validate ensures every field is within its documented range.
func (c *Config) Validate() error {
	if c.Aggregation != "l1" && c.Aggregation != "l2" {
		return fmt.Errorf("config: aggregation must be \"l1\" or \"l2\", got %q", c.Aggregation)
	}
	if c.ThumbnailHeight <= 0 || c.ThumbnailWidth <= 0 {
		return errors.New("config: thumbnail_height and thumbnail_width must be positive")
	}
	if c.MinReliability < 0 || c.MinReliability > 1 {
		return errors.New("config: min_reliability must be between 0 and 1")
	}
	if c.IdenticalThreshold < 0 || c.IdenticalThreshold > c.SimilarThreshold {
		return errors.New("config: identical_threshold must be non-negative and at most similar_threshold")
	}
	if c.NumSubsamples <= 0 || c.MaxReshuffles <= 0 {
		return errors.New("config: num_subsamples and max_reshuffles must be positive")
	}
	if c.ScanRangeSeconds <= 0 || c.ScanProbes <= 0 {
		return errors.New("config: scan_range_seconds and scan_probes must be positive")
	}
	if c.MaxLoadingFrames <= 0 || c.MaxRetries <= 0 {
		return errors.New("config: max_loading_frames and max_retries must be positive")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("config: log_format must be \"console\" or \"json\", got %q", c.LogFormat)
	}
	return nil
}

// CreateSample writes a commented sample configuration file to path.
func CreateSample(path string) error {
	sample := `# episode-binger configuration

catalog_path = "episodes.json"          # where located opening/ending info is persisted
cache_path   = "episode-binger.db"      # SQLite database backing the common-chunk cache

thumbnail_height = 36                   # thumbnail resolution used for distance computation
thumbnail_width   = 64
aggregation = "l1"                      # "l1" (Manhattan) or "l2" (Euclidean) pixel distance

min_chunk_seconds = 4                   # minimum accepted opening/ending length
min_reliability   = 0.90                # Frame Locator confidence floor

num_subsamples      = 50                # Identical-Frame Finder probe count per reshuffle
max_reshuffles       = 20                # Identical-Frame Finder reshuffle budget
identical_threshold = 0.01
similar_threshold   = 0.10

scan_range_seconds = 180                # Boundary Finder wide-scan width, centered on the seed
scan_probes        = 100

max_loading_frames = 500                # Frame Locator section size cap
max_retries        = 3                  # Algorithm Manager retry budget

log_format = "console"                  # "console" or "json"
log_level  = "info"
`
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(sample), 0o644)
}
