package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/strrl/torque-analyzer/internal/log"
)

var (
	rootDebug   bool
	rootLogFile string
)

var rootCmd = &cobra.Command{
	Use:   "torque-analyzer",
	Short: "Analyze motor torque recordings",
	Long: `torque-analyzer reads a recorded speed/current series, converts current to torque,
splits the recording into active cycles and reports breakaway and steady-state torque.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return log.Init(rootDebug, rootLogFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = false

	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootLogFile, "log-file", "", "Also write JSON logs to this file (rotated)")
}
