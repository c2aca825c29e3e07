package pipeline

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/strrl/torque-analyzer/internal/aggregator"
	"github.com/strrl/torque-analyzer/internal/config"
	"github.com/strrl/torque-analyzer/internal/signals"
)

// ErrEmptyInput is returned when there are no samples to analyze.
var ErrEmptyInput = errors.New("no usable samples")

type Pipeline struct {
	conditioner *Conditioner
	segmenter   *Segmenter
	analyzer    *Analyzer
	logger      *zap.SugaredLogger
}

func New(cfg *config.Config, logger *zap.SugaredLogger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	conditioner, err := NewConditioner(cfg.TorqueConstant, cfg.Smoothing.Window, cfg.Smoothing.Degree)
	if err != nil {
		return nil, fmt.Errorf("failed to create conditioner: %w", err)
	}

	segmenter, err := NewSegmenter(PolicyFromConfig(cfg.Segmentation.Threshold), closeRuleFromConfig(cfg.Segmentation.Close), cfg.Segmentation.MinSegmentLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create segmenter: %w", err)
	}

	analyzer, err := NewAnalyzer(cfg.SteadySpeedFraction)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	return &Pipeline{
		conditioner: conditioner,
		segmenter:   segmenter,
		analyzer:    analyzer,
		logger:      logger,
	}, nil
}

// PolicyFromConfig maps the threshold section of the config file onto a ThresholdPolicy.
func PolicyFromConfig(tc config.ThresholdConfig) ThresholdPolicy {
	if tc.Mode == config.ThresholdFixed {
		return FixedThreshold{Value: tc.Value}
	}
	return AdaptiveThreshold{Floor: tc.Floor, Margin: tc.Margin}
}

func closeRuleFromConfig(rule string) CloseRule {
	if rule == config.CloseBelow {
		return CloseBelow
	}
	return CloseAtOrBelow
}

// Process runs conditioning, segmentation, per-segment analysis and aggregation over one
// complete series. A series without activity is not an error; it produces zero segments and a
// zero aggregate.
func (p *Pipeline) Process(samples []signals.Sample) (*signals.Result, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyInput
	}

	series, err := p.conditioner.Condition(samples)
	if err != nil {
		return nil, fmt.Errorf("conditioning failed: %w", err)
	}
	p.logger.Debugw("conditioned series", "samples", series.Len(), "window", series.Window)

	segments, threshold := p.segmenter.Segment(series)
	p.logger.Debugw("segmented series", "policy", p.segmenter.policy.String(), "threshold", threshold, "segments", len(segments))
	if len(segments) == 0 {
		p.logger.Infow("no active segments found", "threshold", threshold)
	}

	analyzed := make([]signals.AnalyzedSegment, 0, len(segments))
	for _, seg := range segments {
		stats := p.analyzer.Analyze(seg)
		if !stats.HasSteady {
			p.logger.Debugw("segment has no steady-state samples", "start", seg.Start, "end", seg.End)
		}
		analyzed = append(analyzed, signals.AnalyzedSegment{Segment: seg, Stats: stats})
	}

	return &signals.Result{
		Series:    series,
		Summary:   aggregator.Summarize(series),
		Threshold: threshold,
		Segments:  analyzed,
		Aggregate: aggregator.Aggregate(analyzed),
	}, nil
}
