package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const reportDirName = ".torque"

type Generator struct {
	outputDir string
}

func NewGenerator(outputDir string) *Generator {
	return &Generator{
		outputDir: outputDir,
	}
}

// Dir is the directory the generator writes into.
func (g *Generator) Dir() string {
	return filepath.Join(g.outputDir, reportDirName)
}

// Generate writes the Markdown report, the JSON summary and the CSV exports for one run and
// returns the written paths.
func (g *Generator) Generate(report *Report) ([]string, error) {
	reportDir := g.Dir()
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", reportDirName, err)
	}

	writers := []struct {
		name  string
		write func(*Report) ([]byte, error)
	}{
		{"report.md", renderMarkdown},
		{"summary.json", renderSummary},
		{"conditioned.csv", renderConditioned},
		{"segments.csv", renderSegments},
		{"mean_curve.csv", renderMeanCurve},
	}

	var files []string
	for _, w := range writers {
		content, err := w.write(report)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", w.name, err)
		}

		filename := filepath.Join(reportDir, w.name)
		if err := os.WriteFile(filename, content, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", w.name, err)
		}
		files = append(files, filename)
	}

	return files, nil
}

func renderMarkdown(r *Report) ([]byte, error) {
	res := r.Result
	agg := res.Aggregate

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`# Torque analysis: %s

**Run:** %s
**Generated:** %s
**Torque constant:** %g Nm/A
**Threshold:** %s = %.3f
**Smoothing window:** %s

## Summary

| Metric | Value |
|---|---|
| Samples analyzed | %d (%d dropped) |
| Average torque | %.3f Nm |
| Max torque | %.3f Nm |
| Active segments | %d |
| Avg breakaway torque | %.3f Nm |
| Avg steady-state torque | %s |

`,
		filepath.Base(r.Source),
		r.RunID,
		r.GeneratedAt.Format("2006-01-02 15:04:05"),
		r.Config.TorqueConstant,
		buildSummary(r).ThresholdPolicy,
		res.Threshold,
		windowLabel(res.Series.Window),
		res.Summary.SampleCount,
		r.FileStats.DroppedRows(),
		res.Summary.MeanTorque,
		res.Summary.MaxTorque,
		agg.SegmentCount,
		agg.AvgBreakaway,
		steadyLabel(agg.AvgSteady, agg.SteadyCount > 0, " Nm"),
	))

	if len(res.Segments) == 0 {
		sb.WriteString("No active segments were found above the threshold.\n")
		return []byte(sb.String()), nil
	}

	sb.WriteString("## Segments\n\n")
	sb.WriteString("| # | Start | End | Samples | Breakaway (Nm) | Steady (Nm) |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for i, seg := range res.Segments {
		sb.WriteString(fmt.Sprintf("| %d | %g | %g | %d | %.3f | %s |\n",
			i+1,
			seg.StartTime,
			seg.EndTime,
			seg.Len(),
			seg.Stats.BreakawayTorque,
			steadyLabel(seg.Stats.SteadyTorque, seg.Stats.HasSteady, ""),
		))
	}

	sb.WriteString(fmt.Sprintf("\nMean curve: %d samples, segments aligned on their first sample.\n", len(agg.MeanCurve)))

	return []byte(sb.String()), nil
}

func renderSummary(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSummaryJSON(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderConditioned(r *Report) ([]byte, error) {
	s := r.Result.Series
	rows := make([][]string, 0, s.Len()+1)
	rows = append(rows, []string{"time", "torque_raw", "torque_smoothed", "speed_raw", "speed_smoothed"})
	for i := 0; i < s.Len(); i++ {
		rows = append(rows, []string{
			formatFloat(s.Time[i]),
			formatFloat(s.TorqueRaw[i]),
			formatFloat(s.TorqueSmoothed[i]),
			formatFloat(s.SpeedRaw[i]),
			formatFloat(s.SpeedSmoothed[i]),
		})
	}
	return encodeCSV(rows)
}

func renderSegments(r *Report) ([]byte, error) {
	rows := [][]string{{"index", "start", "end", "start_time", "end_time", "samples", "breakaway_torque", "steady_torque"}}
	for i, seg := range r.Result.Segments {
		steady := ""
		if seg.Stats.HasSteady {
			steady = formatFloat(seg.Stats.SteadyTorque)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(seg.Start),
			strconv.Itoa(seg.End),
			formatFloat(seg.StartTime),
			formatFloat(seg.EndTime),
			strconv.Itoa(seg.Len()),
			formatFloat(seg.Stats.BreakawayTorque),
			steady,
		})
	}
	return encodeCSV(rows)
}

func renderMeanCurve(r *Report) ([]byte, error) {
	curve := r.Result.Aggregate.MeanCurve
	rows := make([][]string, 0, len(curve)+1)
	rows = append(rows, []string{"offset", "mean_torque"})
	for i, v := range curve {
		rows = append(rows, []string{strconv.Itoa(i), formatFloat(v)})
	}
	return encodeCSV(rows)
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func windowLabel(window int) string {
	if window == 0 {
		return "off (series too short)"
	}
	return fmt.Sprintf("%d samples", window)
}

func steadyLabel(v float64, defined bool, unit string) string {
	if !defined {
		return "n/a"
	}
	return fmt.Sprintf("%.3f%s", v, unit)
}
