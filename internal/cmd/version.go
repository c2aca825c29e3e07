package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags at release time. Unset values fall back to the build info the Go toolchain
// embeds in the binary.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type versionInfo struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version, git commit, build date and Go version of torque-analyzer.`,
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		v := resolveVersion(info)
		fmt.Fprintf(cmd.OutOrStdout(), "torque-analyzer version %s\n", v.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  Git commit: %s\n", v.GitCommit)
		fmt.Fprintf(cmd.OutOrStdout(), "  Build date: %s\n", v.BuildDate)
		if v.GoVersion != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  Go version: %s\n", v.GoVersion)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// resolveVersion prefers the ldflags values and fills the gaps from info, which may be nil.
func resolveVersion(info *debug.BuildInfo) versionInfo {
	v := versionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
	if info == nil {
		return v
	}

	v.GoVersion = info.GoVersion
	if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}

	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.GitCommit == "unknown" {
				v.GitCommit = s.Value
			}
		case "vcs.time":
			if v.BuildDate == "unknown" {
				v.BuildDate = s.Value
			}
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if modified && v.GitCommit != "unknown" {
		v.GitCommit += "-dirty"
	}

	return v
}
