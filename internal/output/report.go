package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/strrl/torque-analyzer/internal/config"
	"github.com/strrl/torque-analyzer/internal/parser"
	"github.com/strrl/torque-analyzer/internal/pipeline"
	"github.com/strrl/torque-analyzer/internal/signals"
)

// Report bundles one analysis run with the context needed to present it.
type Report struct {
	RunID       string
	Source      string
	GeneratedAt time.Time
	Config      *config.Config
	FileStats   parser.FileStats
	Result      *signals.Result
}

type summaryJSON struct {
	RunID           string        `json:"run_id"`
	Source          string        `json:"source"`
	GeneratedAt     time.Time     `json:"generated_at"`
	TorqueConstant  float64       `json:"torque_constant"`
	ThresholdPolicy string        `json:"threshold_policy"`
	Threshold       float64       `json:"threshold"`
	SmoothingWindow int           `json:"smoothing_window"`
	Input           inputJSON     `json:"input"`
	Series          seriesJSON    `json:"series"`
	Aggregate       aggregateJSON `json:"aggregate"`
	Segments        []segmentJSON `json:"segments"`
}

type inputJSON struct {
	TotalRows   int `json:"total_rows"`
	UsableRows  int `json:"usable_rows"`
	DroppedRows int `json:"dropped_rows"`
}

type seriesJSON struct {
	Samples    int     `json:"samples"`
	FirstTime  float64 `json:"first_time"`
	LastTime   float64 `json:"last_time"`
	MeanTorque float64 `json:"mean_torque_nm"`
	MaxTorque  float64 `json:"max_torque_nm"`
}

type aggregateJSON struct {
	SegmentCount int       `json:"segment_count"`
	SteadyCount  int       `json:"steady_count"`
	AvgBreakaway float64   `json:"avg_breakaway_torque_nm"`
	AvgSteady    float64   `json:"avg_steady_torque_nm"`
	MeanCurve    []float64 `json:"mean_curve"`
}

type segmentJSON struct {
	Index           int      `json:"index"`
	Start           int      `json:"start"`
	End             int      `json:"end"`
	StartTime       float64  `json:"start_time"`
	EndTime         float64  `json:"end_time"`
	Samples         int      `json:"samples"`
	BreakawayTorque float64  `json:"breakaway_torque_nm"`
	SteadyTorque    *float64 `json:"steady_torque_nm"`
}

func buildSummary(r *Report) summaryJSON {
	res := r.Result
	summary := summaryJSON{
		RunID:           r.RunID,
		Source:          r.Source,
		GeneratedAt:     r.GeneratedAt,
		TorqueConstant:  r.Config.TorqueConstant,
		ThresholdPolicy: pipeline.PolicyFromConfig(r.Config.Segmentation.Threshold).String(),
		Threshold:       res.Threshold,
		SmoothingWindow: res.Series.Window,
		Input: inputJSON{
			TotalRows:   r.FileStats.TotalRows,
			UsableRows:  r.FileStats.UsableRows,
			DroppedRows: r.FileStats.DroppedRows(),
		},
		Series: seriesJSON{
			Samples:    res.Summary.SampleCount,
			FirstTime:  res.Summary.FirstTime,
			LastTime:   res.Summary.LastTime,
			MeanTorque: res.Summary.MeanTorque,
			MaxTorque:  res.Summary.MaxTorque,
		},
		Aggregate: aggregateJSON{
			SegmentCount: res.Aggregate.SegmentCount,
			SteadyCount:  res.Aggregate.SteadyCount,
			AvgBreakaway: res.Aggregate.AvgBreakaway,
			AvgSteady:    res.Aggregate.AvgSteady,
			MeanCurve:    res.Aggregate.MeanCurve,
		},
		Segments: make([]segmentJSON, 0, len(res.Segments)),
	}

	for i, seg := range res.Segments {
		entry := segmentJSON{
			Index:           i + 1,
			Start:           seg.Start,
			End:             seg.End,
			StartTime:       seg.StartTime,
			EndTime:         seg.EndTime,
			Samples:         seg.Len(),
			BreakawayTorque: seg.Stats.BreakawayTorque,
		}
		if seg.Stats.HasSteady {
			steady := seg.Stats.SteadyTorque
			entry.SteadyTorque = &steady
		}
		summary.Segments = append(summary.Segments, entry)
	}

	return summary
}

// WriteSummaryJSON writes the machine-readable summary of a run to w.
func WriteSummaryJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildSummary(r)); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}
