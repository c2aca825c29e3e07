package pipeline

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/strrl/torque-analyzer/internal/signals"
)

// ThresholdPolicy derives the activity threshold from the smoothed speed channel.
type ThresholdPolicy interface {
	Threshold(speed []float64) float64
	String() string
}

// FixedThreshold uses a literal speed value.
type FixedThreshold struct {
	Value float64
}

func (f FixedThreshold) Threshold(_ []float64) float64 {
	return f.Value
}

func (f FixedThreshold) String() string {
	return fmt.Sprintf("fixed(%g)", f.Value)
}

// AdaptiveThreshold takes the mean speed of samples above Floor and backs off by Margin.
type AdaptiveThreshold struct {
	Floor  float64
	Margin float64
}

func (a AdaptiveThreshold) Threshold(speed []float64) float64 {
	var active []float64
	for _, v := range speed {
		if v > a.Floor {
			active = append(active, v)
		}
	}
	if len(active) == 0 {
		return 0
	}
	return max(0, stat.Mean(active, nil)-a.Margin)
}

func (a AdaptiveThreshold) String() string {
	return fmt.Sprintf("adaptive(floor=%g, margin=%g)", a.Floor, a.Margin)
}

type CloseRule int

const (
	// CloseAtOrBelow ends a run on the first sample with speed <= threshold.
	CloseAtOrBelow CloseRule = iota
	// CloseBelow ends a run only once speed drops strictly under the threshold.
	CloseBelow
)

func (r CloseRule) closes(speed, threshold float64) bool {
	if r == CloseBelow {
		return speed < threshold
	}
	return speed <= threshold
}

// Run is a half-open index range [Start, End).
type Run struct {
	Start int
	End   int
}

type Segmenter struct {
	policy    ThresholdPolicy
	rule      CloseRule
	minLength int
}

func NewSegmenter(policy ThresholdPolicy, rule CloseRule, minLength int) (*Segmenter, error) {
	if policy == nil {
		return nil, fmt.Errorf("threshold policy is required")
	}
	if minLength < 0 {
		return nil, fmt.Errorf("minimum segment length must not be negative, got %d", minLength)
	}

	return &Segmenter{
		policy:    policy,
		rule:      rule,
		minLength: minLength,
	}, nil
}

// Segment splits the series into active segments and reports the threshold it used.
// A series with no activity yields an empty slice.
func (s *Segmenter) Segment(series signals.Series) ([]signals.Segment, float64) {
	threshold := s.policy.Threshold(series.SpeedSmoothed)
	runs := FindRuns(series.SpeedSmoothed, threshold, s.rule, s.minLength)

	segments := make([]signals.Segment, 0, len(runs))
	for _, r := range runs {
		segments = append(segments, signals.Segment{
			Start:     r.Start,
			End:       r.End,
			StartTime: series.Time[r.Start],
			EndTime:   series.Time[r.End-1],
			Torque:    slices.Clone(series.TorqueSmoothed[r.Start:r.End]),
			Speed:     slices.Clone(series.SpeedSmoothed[r.Start:r.End]),
		})
	}

	return segments, threshold
}

type scanState struct {
	open  bool
	start int
}

// FindRuns scans speed once, opening a run when a sample rises above threshold and closing it
// according to rule. Runs not longer than minLength are dropped. A run still open at the end
// is closed at len(speed).
func FindRuns(speed []float64, threshold float64, rule CloseRule, minLength int) []Run {
	var runs []Run
	emit := func(start, end int) {
		if end-start > minLength {
			runs = append(runs, Run{Start: start, End: end})
		}
	}

	var st scanState
	for i, v := range speed {
		switch {
		case !st.open && v > threshold:
			st = scanState{open: true, start: i}
		case st.open && rule.closes(v, threshold):
			emit(st.start, i)
			st = scanState{}
		}
	}
	if st.open {
		emit(st.start, len(speed))
	}

	return runs
}
