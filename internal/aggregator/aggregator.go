package aggregator

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/strrl/torque-analyzer/internal/signals"
)

// Aggregate combines analyzed segments into cross-cycle figures. Segments are aligned on their
// first sample and the mean curve is cut to the shortest segment. With no segments every
// figure is zero and the curve is empty.
func Aggregate(segments []signals.AnalyzedSegment) signals.AggregateResult {
	result := signals.AggregateResult{
		MeanCurve:    []float64{},
		SegmentCount: len(segments),
	}

	if len(segments) == 0 {
		return result
	}

	breakaway := make([]float64, 0, len(segments))
	var steady []float64
	for _, seg := range segments {
		breakaway = append(breakaway, seg.Stats.BreakawayTorque)
		if seg.Stats.HasSteady {
			steady = append(steady, seg.Stats.SteadyTorque)
		}
	}

	result.AvgBreakaway = stat.Mean(breakaway, nil)
	if len(steady) > 0 {
		result.AvgSteady = stat.Mean(steady, nil)
	}
	result.SteadyCount = len(steady)
	result.MeanCurve = meanCurve(segments)

	return result
}

func meanCurve(segments []signals.AnalyzedSegment) []float64 {
	minLen := len(segments[0].Torque)
	for _, seg := range segments[1:] {
		minLen = min(minLen, len(seg.Torque))
	}

	curve := make([]float64, minLen)
	for _, seg := range segments {
		floats.Add(curve, seg.Torque[:minLen])
	}
	floats.Scale(1/float64(len(segments)), curve)

	return curve
}

// Summarize reports whole-series figures on the raw torque channel.
func Summarize(series signals.Series) signals.SeriesSummary {
	n := series.Len()
	if n == 0 {
		return signals.SeriesSummary{}
	}

	return signals.SeriesSummary{
		SampleCount: n,
		FirstTime:   series.Time[0],
		LastTime:    series.Time[n-1],
		MeanTorque:  stat.Mean(series.TorqueRaw, nil),
		MaxTorque:   floats.Max(series.TorqueRaw),
	}
}
