package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billnorm/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Orientation.MaxSkewAngle)
	assert.Equal(t, 0.6, cfg.Orientation.MinConfidence)
	assert.True(t, cfg.Orientation.EnableDeskew)

	assert.Equal(t, 0.08, cfg.Strips.HeaderStripHeight)
	assert.Equal(t, 0.08, cfg.Strips.FooterStripHeight)
	assert.Equal(t, 0.85, cfg.Strips.SimilarityThreshold)
	assert.Equal(t, 0.65, cfg.Strips.BaseConfidence)
	assert.Equal(t, 0.25, cfg.Strips.MaxConfidenceBoost)
	assert.Equal(t, 0.7, cfg.Strips.IoUThreshold)

	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, "corrected", cfg.Pipeline.OutputDir)
	assert.False(t, cfg.Pipeline.ContinueOnPageError)

	assert.Empty(t, cfg.Export.CSVPath)
	assert.Empty(t, cfg.Export.XLSXPath)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("BILLNORM_ORIENTATION_MAX_SKEW_ANGLE", "5.5")
	t.Setenv("BILLNORM_ORIENTATION_ENABLE_DESKEW", "false")
	t.Setenv("BILLNORM_STRIPS_SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("BILLNORM_PIPELINE_CONCURRENCY", "8")
	t.Setenv("BILLNORM_PIPELINE_OUTPUT_DIR", "/tmp/out")
	t.Setenv("BILLNORM_PIPELINE_CONTINUE_ON_PAGE_ERROR", "true")
	t.Setenv("BILLNORM_EXPORT_CSV_PATH", "/tmp/fields.csv")
	t.Setenv("BILLNORM_LOG_LEVEL", "info")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5.5, cfg.Orientation.MaxSkewAngle)
	assert.False(t, cfg.Orientation.EnableDeskew)
	assert.Equal(t, 0.9, cfg.Strips.SimilarityThreshold)
	assert.Equal(t, 8, cfg.Pipeline.Concurrency)
	assert.Equal(t, "/tmp/out", cfg.Pipeline.OutputDir)
	assert.True(t, cfg.Pipeline.ContinueOnPageError)
	assert.Equal(t, "/tmp/fields.csv", cfg.Export.CSVPath)
	assert.Equal(t, "info", cfg.Log.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, 0.65, cfg.Strips.BaseConfidence)
}
