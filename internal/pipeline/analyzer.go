package pipeline

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/strrl/torque-analyzer/internal/signals"
)

type Analyzer struct {
	steadyFraction float64
}

func NewAnalyzer(steadyFraction float64) (*Analyzer, error) {
	if steadyFraction <= 0 || steadyFraction > 1 {
		return nil, fmt.Errorf("steady speed fraction must be in (0, 1], got %g", steadyFraction)
	}
	return &Analyzer{steadyFraction: steadyFraction}, nil
}

// Analyze returns the breakaway (peak) torque of a segment and its steady-state torque, the
// mean torque over samples running strictly faster than steadyFraction of the segment's peak
// speed. HasSteady is false when no sample qualifies.
func (a *Analyzer) Analyze(seg signals.Segment) signals.SegmentStats {
	if len(seg.Torque) == 0 {
		return signals.SegmentStats{}
	}

	stats := signals.SegmentStats{
		BreakawayTorque: floats.Max(seg.Torque),
	}

	if len(seg.Speed) == 0 {
		return stats
	}

	cut := a.steadyFraction * floats.Max(seg.Speed)
	var settled []float64
	for i, v := range seg.Speed {
		if v > cut && i < len(seg.Torque) {
			settled = append(settled, seg.Torque[i])
		}
	}

	if len(settled) > 0 {
		stats.SteadyTorque = stat.Mean(settled, nil)
		stats.HasSteady = true
	}

	return stats
}
