package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/strrl/torque-analyzer/internal/config"
	"github.com/strrl/torque-analyzer/internal/signals"
)

// cycleSamples builds repeated motor cycles: idle, ramp up at high torque, hold at running
// torque, ramp down. Speed and current use the sensor's sign convention.
func cycleSamples(cycles int) []signals.Sample {
	const torqueConstant = 4.8
	var samples []signals.Sample
	for c := 0; c < cycles; c++ {
		for k := 0; k < 200; k++ {
			var speed, torque float64
			switch {
			case k < 50:
			case k < 70:
				speed = float64(k-50) * 5
				torque = 10
			case k < 130:
				speed = 100
				torque = 4
			case k < 150:
				speed = 100 - float64(k-130)*5
				torque = 1
			}
			samples = append(samples, signals.Sample{
				Time:    float64(len(samples)) * 2,
				Speed:   -speed,
				Current: -torque / torqueConstant,
			})
		}
	}
	return samples
}

func newTestPipeline(t *testing.T, mutate func(*config.Config)) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.Smoothing.Window = 11
	if mutate != nil {
		mutate(cfg)
	}
	p, err := New(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	return p
}

func TestProcessEmptyInput(t *testing.T) {
	p := newTestPipeline(t, nil)

	_, err := p.Process(nil)
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestProcessCycles(t *testing.T) {
	p := newTestPipeline(t, nil)
	samples := cycleSamples(3)

	result, err := p.Process(samples)
	require.NoError(t, err)

	assert.Equal(t, len(samples), result.Series.Len())
	assert.Equal(t, 11, result.Series.Window)
	assert.Greater(t, result.Threshold, 0.0)

	require.Len(t, result.Segments, 3)
	assert.Equal(t, 3, result.Aggregate.SegmentCount)

	minLen := result.Segments[0].Len()
	prevEnd := 0
	for _, seg := range result.Segments {
		assert.GreaterOrEqual(t, seg.Start, prevEnd)
		assert.Greater(t, seg.Len(), config.DefaultMinSegmentLength)
		assert.Len(t, seg.Torque, seg.Len())
		assert.True(t, seg.Stats.HasSteady)
		assert.Greater(t, seg.Stats.BreakawayTorque, seg.Stats.SteadyTorque)
		minLen = min(minLen, seg.Len())
		prevEnd = seg.End
	}

	assert.Len(t, result.Aggregate.MeanCurve, minLen)
	assert.InDelta(t, 10, result.Aggregate.AvgBreakaway, 2)
	assert.InDelta(t, 4, result.Aggregate.AvgSteady, 1)
	assert.Equal(t, 3, result.Aggregate.SteadyCount)

	assert.Equal(t, len(samples), result.Summary.SampleCount)
	assert.InDelta(t, 10, result.Summary.MaxTorque, 1e-9)
}

func TestProcessFixedThreshold(t *testing.T) {
	p := newTestPipeline(t, func(cfg *config.Config) {
		cfg.Segmentation.Threshold.Mode = config.ThresholdFixed
		cfg.Segmentation.Threshold.Value = 50
	})

	result, err := p.Process(cycleSamples(2))
	require.NoError(t, err)

	assert.Equal(t, 50.0, result.Threshold)
	assert.Len(t, result.Segments, 2)
}

func TestProcessNoActivity(t *testing.T) {
	p := newTestPipeline(t, nil)

	result, err := p.Process(constantSamples(300, 0, -1))
	require.NoError(t, err)

	assert.Empty(t, result.Segments)
	assert.Equal(t, 0, result.Aggregate.SegmentCount)
	assert.Equal(t, 0.0, result.Aggregate.AvgBreakaway)
	assert.Equal(t, 0.0, result.Aggregate.AvgSteady)
	assert.Empty(t, result.Aggregate.MeanCurve)
	assert.InDelta(t, 4.8, result.Summary.MeanTorque, 1e-9)
}

func TestProcessShortSeries(t *testing.T) {
	p := newTestPipeline(t, func(cfg *config.Config) {
		cfg.Segmentation.MinSegmentLength = 0
		cfg.Segmentation.Threshold.Mode = config.ThresholdFixed
		cfg.Segmentation.Threshold.Value = 5
	})

	samples := []signals.Sample{
		{Time: 0, Speed: 0, Current: 0},
		{Time: 1, Speed: -20, Current: -2},
		{Time: 2, Speed: 0, Current: 0},
	}

	result, err := p.Process(samples)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Series.Window)
	require.Len(t, result.Segments, 1)
	assert.Equal(t, 9.6, result.Segments[0].Stats.BreakawayTorque)
	assert.Equal(t, []float64{9.6}, result.Aggregate.MeanCurve)
}

func TestProcessIsDeterministic(t *testing.T) {
	p := newTestPipeline(t, nil)
	samples := cycleSamples(4)

	first, err := p.Process(samples)
	require.NoError(t, err)
	second, err := p.Process(samples)
	require.NoError(t, err)

	assert.Equal(t, first.Aggregate, second.Aggregate)
	assert.Equal(t, first, second)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Smoothing.Window = 50

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestPolicyFromConfig(t *testing.T) {
	fixed := PolicyFromConfig(config.ThresholdConfig{Mode: config.ThresholdFixed, Value: 8})
	assert.Equal(t, FixedThreshold{Value: 8}, fixed)

	adaptive := PolicyFromConfig(config.ThresholdConfig{Mode: config.ThresholdAdaptive, Floor: 10, Margin: 5})
	assert.Equal(t, AdaptiveThreshold{Floor: 10, Margin: 5}, adaptive)
}
