package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultPipelineConfigPassesValidation(t *testing.T) {
	cfg := GetDefaultPipelineConfig()
	violations := ValidatePipelineConfig(cfg)
	assert.Empty(t, violations)
}

func TestValidatePipelineConfigCatchesBadCompositeWeights(t *testing.T) {
	cfg := GetDefaultPipelineConfig()
	cfg.CompositeWeights.FX["fx_beer"] = 0.99

	violations := ValidatePipelineConfig(cfg)
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0], "composite_weights.fx")
}

func TestValidatePipelineConfigCatchesOutOfRangeThreshold(t *testing.T) {
	cfg := GetDefaultPipelineConfig()
	cfg.ConvictionMin = 1.5

	violations := ValidatePipelineConfig(cfg)
	found := false
	for _, v := range violations {
		if v == "conviction_min 1.5000 outside [0,1]" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSaveAndLoadPipelineConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")

	original := GetDefaultPipelineConfig()
	require.NoError(t, SavePipelineConfig(original, path))

	loaded, err := LoadPipelineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, original.ConvictionMin, loaded.ConvictionMin)
	assert.Equal(t, original.CompositeWeights.FX, loaded.CompositeWeights.FX)
}

func TestLoadPipelineConfigMissingFileErrors(t *testing.T) {
	_, err := LoadPipelineConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
