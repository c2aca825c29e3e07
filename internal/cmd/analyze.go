package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strrl/torque-analyzer/internal/config"
	"github.com/strrl/torque-analyzer/internal/log"
	"github.com/strrl/torque-analyzer/internal/output"
	"github.com/strrl/torque-analyzer/internal/parser"
	"github.com/strrl/torque-analyzer/internal/pipeline"
)

var (
	analyzeInput            string
	analyzeConfig           string
	analyzeOutput           string
	analyzeTorqueConstant   float64
	analyzeThresholdMode    string
	analyzeMinSegmentLength int
	analyzeJSON             bool
	analyzeWatch            bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a recorded speed/current series",
	Long: `Analyze a recorded motor series (CSV, Parquet or JSON). Current is converted to torque,
both channels are smoothed, the recording is split into active cycles and breakaway and
steady-state torque are reported per cycle and on average. Results are written to
<output>/.torque/ unless --json is given.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "Path to the recorded series (required)")
	analyzeCmd.Flags().StringVarP(&analyzeConfig, "config", "c", "", "Path to a YAML config file")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Output directory (default: directory of the input file)")
	analyzeCmd.Flags().Float64Var(&analyzeTorqueConstant, "torque-constant", config.DefaultTorqueConstant, "Torque constant in Nm/A")
	analyzeCmd.Flags().StringVar(&analyzeThresholdMode, "threshold-mode", config.ThresholdAdaptive, "Segmentation threshold: adaptive | fixed")
	analyzeCmd.Flags().IntVar(&analyzeMinSegmentLength, "min-segment-length", config.DefaultMinSegmentLength, "Discard cycles with this many samples or fewer")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the JSON summary to stdout instead of writing report files (not with --watch)")
	analyzeCmd.Flags().BoolVar(&analyzeWatch, "watch", false, "Re-run the analysis whenever the input or config file is rewritten")

	_ = analyzeCmd.MarkFlagRequired("input")
}

// analyzeOptions carries the resolved command line. Nil overrides keep the config file value.
type analyzeOptions struct {
	Input      string
	ConfigPath string
	OutputDir  string
	JSON       bool

	TorqueConstant   *float64
	ThresholdMode    string
	MinSegmentLength *int
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := validateAnalyzeFlags(analyzeJSON, analyzeWatch); err != nil {
		return err
	}

	inputPath, err := resolveInputPath(analyzeInput)
	if err != nil {
		return err
	}

	opts := analyzeOptions{
		Input:      inputPath,
		ConfigPath: analyzeConfig,
		OutputDir:  analyzeOutput,
		JSON:       analyzeJSON,
	}
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Dir(inputPath)
	}
	if cmd.Flags().Changed("torque-constant") {
		opts.TorqueConstant = &analyzeTorqueConstant
	}
	if cmd.Flags().Changed("threshold-mode") {
		opts.ThresholdMode = analyzeThresholdMode
	}
	if cmd.Flags().Changed("min-segment-length") {
		opts.MinSegmentLength = &analyzeMinSegmentLength
	}

	stdout := cmd.OutOrStdout()
	status := stdout
	if opts.JSON {
		status = cmd.ErrOrStderr()
	}
	logger := log.GetSugaredLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = analyzeFile(ctx, opts, stdout, status, logger)
	if !analyzeWatch {
		return err
	}
	if err != nil {
		logger.Errorw("analysis failed, waiting for changes", "input", opts.Input, "error", err)
	}

	paths := []string{opts.Input}
	if opts.ConfigPath != "" {
		paths = append(paths, opts.ConfigPath)
	}
	fmt.Fprintf(status, "Watching %d file(s) for changes, press Ctrl+C to stop\n", len(paths))

	return watchFiles(ctx, paths, logger, func(changed []string) {
		fmt.Fprintf(status, "\n%s changed, re-running analysis\n", strings.Join(changed, ", "))
		if err := analyzeFile(ctx, opts, stdout, status, logger); err != nil {
			logger.Errorw("analysis failed", "input", opts.Input, "error", err)
		}
	})
}

// validateAnalyzeFlags rejects flag combinations the command cannot honour. --json writes a
// single document to stdout, which a watch loop would repeat.
func validateAnalyzeFlags(jsonOut, watch bool) error {
	if jsonOut && watch {
		return fmt.Errorf("--json cannot be combined with --watch")
	}
	return nil
}

// analyzeFile runs one complete analysis of opts.Input and emits its outputs.
func analyzeFile(ctx context.Context, opts analyzeOptions, stdout, status io.Writer, logger *zap.SugaredLogger) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(status, "Analyzing file: %s\n", opts.Input)

	p, err := parser.NewParser(cfg.Columns)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	stats, err := p.GetFileStats(ctx, opts.Input)
	if err != nil {
		return fmt.Errorf("failed to get file stats: %w", err)
	}
	if stats.UsableRows == 0 {
		return fmt.Errorf("%w in %s (%d rows read)", pipeline.ErrEmptyInput, opts.Input, stats.TotalRows)
	}

	fmt.Fprintf(status, "Found %d rows, %d usable, time %g to %g\n", stats.TotalRows, stats.UsableRows, stats.MinTime, stats.MaxTime)
	if stats.DroppedRows() > 0 {
		logger.Warnw("dropped non-numeric rows", "dropped", stats.DroppedRows(), "total", stats.TotalRows)
	}

	samples, err := p.FetchSamples(ctx, opts.Input)
	if err != nil {
		return fmt.Errorf("failed to fetch samples: %w", err)
	}

	pl, err := pipeline.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	result, err := pl.Process(samples)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyInput) {
			return fmt.Errorf("%w in %s", err, opts.Input)
		}
		return fmt.Errorf("failed to analyze samples: %w", err)
	}

	agg := result.Aggregate
	fmt.Fprintf(status, "Threshold %.3f, %d active segments\n", result.Threshold, agg.SegmentCount)
	fmt.Fprintf(status, "  - avg breakaway torque: %.3f Nm\n", agg.AvgBreakaway)
	fmt.Fprintf(status, "  - avg steady torque: %.3f Nm (%d segments)\n", agg.AvgSteady, agg.SteadyCount)

	report := &output.Report{
		RunID:       uuid.NewString(),
		Source:      opts.Input,
		GeneratedAt: time.Now(),
		Config:      cfg,
		FileStats:   stats,
		Result:      result,
	}

	if opts.JSON {
		return output.WriteSummaryJSON(stdout, report)
	}

	gen := output.NewGenerator(opts.OutputDir)
	files, err := gen.Generate(report)
	if err != nil {
		return fmt.Errorf("failed to generate output: %w", err)
	}

	fmt.Fprintf(status, "Generated %d files in %s\n", len(files), gen.Dir())
	for _, f := range files {
		fmt.Fprintf(status, "  - %s\n", f)
	}

	return nil
}

// loadConfig reads the config file, if any, and applies command line overrides on top.
func loadConfig(opts analyzeOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.TorqueConstant != nil {
		cfg.TorqueConstant = *opts.TorqueConstant
	}
	if opts.ThresholdMode != "" {
		cfg.Segmentation.Threshold.Mode = opts.ThresholdMode
	}
	if opts.MinSegmentLength != nil {
		cfg.Segmentation.MinSegmentLength = *opts.MinSegmentLength
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func resolveInputPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("input does not exist: %w", err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("input is a directory: %s", absPath)
	}

	return absPath, nil
}
