package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultTorqueConstant      = 4.8
	DefaultSmoothingWindow     = 51
	DefaultSmoothingDegree     = 3
	DefaultActivityFloor       = 10.0
	DefaultSegmentMargin       = 5.0
	DefaultFixedThreshold      = 5.0
	DefaultMinSegmentLength    = 10
	DefaultSteadySpeedFraction = 0.9

	DefaultTimeColumn    = "Time (ms)"
	DefaultSpeedColumn   = "Speed"
	DefaultCurrentColumn = "Current"
)

const (
	ThresholdAdaptive = "adaptive"
	ThresholdFixed    = "fixed"

	CloseAtOrBelow = "at_or_below"
	CloseBelow     = "below"
)

// Config is the analysis configuration. Fields map 1:1 to the YAML file.
type Config struct {
	// TorqueConstant converts motor current (A) to torque (Nm). It depends on the motor
	// calibration, typically 4.8 or 1.6.
	TorqueConstant float64 `yaml:"torque_constant"`

	Smoothing    SmoothingConfig    `yaml:"smoothing"`
	Segmentation SegmentationConfig `yaml:"segmentation"`

	// SteadySpeedFraction selects the settled part of a cycle: samples whose speed is strictly
	// above this fraction of the cycle's peak speed.
	SteadySpeedFraction float64 `yaml:"steady_speed_fraction"`

	Columns ColumnConfig `yaml:"columns"`
}

type SmoothingConfig struct {
	// Window is the preferred Savitzky-Golay window. Must be odd.
	Window int `yaml:"window"`

	// Degree is the fitted polynomial degree.
	Degree int `yaml:"degree"`
}

type SegmentationConfig struct {
	Threshold ThresholdConfig `yaml:"threshold"`

	// Close is the rule ending a run: at_or_below | below.
	Close string `yaml:"close"`

	// MinSegmentLength discards runs whose sample count is not greater than this.
	MinSegmentLength int `yaml:"min_segment_length"`
}

type ThresholdConfig struct {
	// Mode is one of: adaptive | fixed.
	Mode string `yaml:"mode"`

	// Value is the literal speed threshold, used when Mode == "fixed".
	Value float64 `yaml:"value"`

	// Floor and Margin are used when Mode == "adaptive": the threshold is the mean speed of
	// samples above Floor, minus Margin, clamped at zero.
	Floor  float64 `yaml:"floor"`
	Margin float64 `yaml:"margin"`
}

// ColumnConfig names the input table columns holding each channel.
type ColumnConfig struct {
	Time    string `yaml:"time"`
	Speed   string `yaml:"speed"`
	Current string `yaml:"current"`
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		TorqueConstant: DefaultTorqueConstant,
		Smoothing: SmoothingConfig{
			Window: DefaultSmoothingWindow,
			Degree: DefaultSmoothingDegree,
		},
		Segmentation: SegmentationConfig{
			Threshold: ThresholdConfig{
				Mode:   ThresholdAdaptive,
				Value:  DefaultFixedThreshold,
				Floor:  DefaultActivityFloor,
				Margin: DefaultSegmentMargin,
			},
			Close:            CloseAtOrBelow,
			MinSegmentLength: DefaultMinSegmentLength,
		},
		SteadySpeedFraction: DefaultSteadySpeedFraction,
		Columns: ColumnConfig{
			Time:    DefaultTimeColumn,
			Speed:   DefaultSpeedColumn,
			Current: DefaultCurrentColumn,
		},
	}
}

// Load reads and parses the YAML config file at path.
// Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks structural constraints. A failure here is a configuration mistake, not a
// property of the data, so callers should stop rather than fall back.
func (c *Config) Validate() error {
	if c.TorqueConstant == 0 {
		return fmt.Errorf("torque_constant must be non-zero")
	}
	if c.Smoothing.Window < 1 || c.Smoothing.Window%2 == 0 {
		return fmt.Errorf("smoothing.window must be a positive odd number, got %d", c.Smoothing.Window)
	}
	if c.Smoothing.Degree < 0 {
		return fmt.Errorf("smoothing.degree must not be negative, got %d", c.Smoothing.Degree)
	}
	switch c.Segmentation.Threshold.Mode {
	case ThresholdAdaptive:
		if c.Segmentation.Threshold.Margin < 0 {
			return fmt.Errorf("segmentation.threshold.margin must not be negative")
		}
	case ThresholdFixed:
	default:
		return fmt.Errorf("segmentation.threshold: unknown mode %q", c.Segmentation.Threshold.Mode)
	}
	switch c.Segmentation.Close {
	case CloseAtOrBelow, CloseBelow:
	default:
		return fmt.Errorf("segmentation.close: unknown rule %q", c.Segmentation.Close)
	}
	if c.Segmentation.MinSegmentLength < 0 {
		return fmt.Errorf("segmentation.min_segment_length must not be negative")
	}
	if c.SteadySpeedFraction <= 0 || c.SteadySpeedFraction > 1 {
		return fmt.Errorf("steady_speed_fraction must be in (0, 1], got %g", c.SteadySpeedFraction)
	}
	if c.Columns.Time == "" || c.Columns.Speed == "" || c.Columns.Current == "" {
		return fmt.Errorf("columns: time, speed and current names are required")
	}
	return nil
}
