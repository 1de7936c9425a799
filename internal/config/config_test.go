package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode-binger.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
aggregation = "L2"
min_reliability = 0.5
thumbnail_height = 20
thumbnail_width = 30
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "l2", cfg.Aggregation, "aggregation is lowercased")
	assert.Equal(t, 0.5, cfg.MinReliability)
	assert.Equal(t, 20, cfg.ThumbnailHeight)
	assert.Equal(t, 30, cfg.ThumbnailWidth)
	// Untouched fields keep their defaults.
	assert.Equal(t, defaultMaxRetries, cfg.MaxRetries)
}

func TestValidate_RejectsBadAggregation(t *testing.T) {
	cfg := Default()
	cfg.Aggregation = "l3"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsInvertedThresholds(t *testing.T) {
	cfg := Default()
	cfg.IdenticalThreshold = 0.5
	cfg.SimilarThreshold = 0.1
	assert.Error(t, cfg.Validate())
}

func TestCreateSample_WritesParsableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	require.NoError(t, CreateSample(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
}
