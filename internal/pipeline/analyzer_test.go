package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/torque-analyzer/internal/signals"
)

func TestAnalyzeBreakawayIsPeak(t *testing.T) {
	a, err := NewAnalyzer(0.9)
	require.NoError(t, err)

	stats := a.Analyze(signals.Segment{
		Torque: []float64{1.5, 9.25, 3, 2},
		Speed:  []float64{5, 10, 20, 20},
	})
	assert.Equal(t, 9.25, stats.BreakawayTorque)
}

func TestAnalyzeSingleSample(t *testing.T) {
	a, err := NewAnalyzer(0.9)
	require.NoError(t, err)

	stats := a.Analyze(signals.Segment{Torque: []float64{3.3}, Speed: []float64{12}})
	assert.Equal(t, 3.3, stats.BreakawayTorque)
	assert.True(t, stats.HasSteady)
	assert.Equal(t, 3.3, stats.SteadyTorque)
}

func TestAnalyzeSteadyIsStrictlyAboveFraction(t *testing.T) {
	seg := signals.Segment{
		Torque: []float64{5, 6, 7, 8, 9},
		Speed:  []float64{1, 2, 10, 9, 8},
	}

	a, err := NewAnalyzer(0.9)
	require.NoError(t, err)

	// Cut-off is 9.0; the sample at exactly 9 does not qualify.
	stats := a.Analyze(seg)
	require.True(t, stats.HasSteady)
	assert.Equal(t, 7.0, stats.SteadyTorque)

	a, err = NewAnalyzer(0.85)
	require.NoError(t, err)

	stats = a.Analyze(seg)
	require.True(t, stats.HasSteady)
	assert.InDelta(t, 7.5, stats.SteadyTorque, 1e-12)
}

func TestAnalyzeUndefinedSteady(t *testing.T) {
	a, err := NewAnalyzer(0.9)
	require.NoError(t, err)

	// With a negative peak the cut-off lies above every sample.
	stats := a.Analyze(signals.Segment{Torque: []float64{2, 4}, Speed: []float64{-1, -2}})
	assert.Equal(t, 4.0, stats.BreakawayTorque)
	assert.False(t, stats.HasSteady)
	assert.Equal(t, 0.0, stats.SteadyTorque)
}

func TestAnalyzeEmptySegment(t *testing.T) {
	a, err := NewAnalyzer(0.9)
	require.NoError(t, err)

	assert.Equal(t, signals.SegmentStats{}, a.Analyze(signals.Segment{}))
}

func TestNewAnalyzerValidation(t *testing.T) {
	for _, f := range []float64{0, -0.5, 1.01} {
		_, err := NewAnalyzer(f)
		assert.Error(t, err, "fraction %g", f)
	}

	_, err := NewAnalyzer(1)
	assert.NoError(t, err)
}
