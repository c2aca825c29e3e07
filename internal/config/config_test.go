package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromString(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "torque.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return Load(path)
}

func TestLoad_Valid(t *testing.T) {
	cfg, err := loadFromString(t, `
torque_constant: 1.6
smoothing:
  window: 31
  degree: 2
segmentation:
  threshold:
    mode: fixed
    value: 10
  close: below
  min_segment_length: 0
steady_speed_fraction: 0.8
columns:
  time: t
  speed: rpm
  current: amps
`)
	require.NoError(t, err)

	assert.Equal(t, 1.6, cfg.TorqueConstant)
	assert.Equal(t, 31, cfg.Smoothing.Window)
	assert.Equal(t, 2, cfg.Smoothing.Degree)
	assert.Equal(t, ThresholdFixed, cfg.Segmentation.Threshold.Mode)
	assert.Equal(t, 10.0, cfg.Segmentation.Threshold.Value)
	assert.Equal(t, CloseBelow, cfg.Segmentation.Close)
	assert.Equal(t, 0, cfg.Segmentation.MinSegmentLength)
	assert.Equal(t, 0.8, cfg.SteadySpeedFraction)
	assert.Equal(t, ColumnConfig{Time: "t", Speed: "rpm", Current: "amps"}, cfg.Columns)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadFromString(t, "torque_constant: 4.8\n")
	require.NoError(t, err)

	assert.Equal(t, DefaultSmoothingWindow, cfg.Smoothing.Window)
	assert.Equal(t, DefaultSmoothingDegree, cfg.Smoothing.Degree)
	assert.Equal(t, ThresholdAdaptive, cfg.Segmentation.Threshold.Mode)
	assert.Equal(t, DefaultActivityFloor, cfg.Segmentation.Threshold.Floor)
	assert.Equal(t, DefaultSegmentMargin, cfg.Segmentation.Threshold.Margin)
	assert.Equal(t, CloseAtOrBelow, cfg.Segmentation.Close)
	assert.Equal(t, DefaultSteadySpeedFraction, cfg.SteadySpeedFraction)
	assert.Equal(t, DefaultTimeColumn, cfg.Columns.Time)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := loadFromString(t, "smoothing: [1, 2\n")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"even window", func(c *Config) { c.Smoothing.Window = 50 }},
		{"negative window", func(c *Config) { c.Smoothing.Window = -51 }},
		{"negative degree", func(c *Config) { c.Smoothing.Degree = -1 }},
		{"zero torque constant", func(c *Config) { c.TorqueConstant = 0 }},
		{"unknown threshold mode", func(c *Config) { c.Segmentation.Threshold.Mode = "median" }},
		{"negative margin", func(c *Config) { c.Segmentation.Threshold.Margin = -1 }},
		{"unknown close rule", func(c *Config) { c.Segmentation.Close = "above" }},
		{"negative min length", func(c *Config) { c.Segmentation.MinSegmentLength = -1 }},
		{"fraction above one", func(c *Config) { c.SteadySpeedFraction = 1.5 }},
		{"zero fraction", func(c *Config) { c.SteadySpeedFraction = 0 }},
		{"missing column", func(c *Config) { c.Columns.Speed = "" }},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
