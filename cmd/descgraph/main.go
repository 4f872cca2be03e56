package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"descgraph/internal/version"
)

var rootCmd = &cobra.Command{
	Use:               "descgraph",
	Short:             "Declaration graph analyser",
	Long:              `descgraph resolves declaration files into a descriptor graph and reports members, overrides and snapshots of it`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: applyColorMode,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Banner(false) + "\n")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Bool("with-notes", false, "include diagnostic notes in output")
	flags.String("diagnostics", "short", "diagnostics format (short|json)")
	flags.String("min-severity", "info", "hide diagnostics below this severity (info|warning|error)")
	flags.Int("max-diagnostics", 0, "maximum number of diagnostics to keep (0 = manifest setting or unlimited)")
	flags.Int("jobs", 0, "max parallel workers (0 = manifest setting or GOMAXPROCS)")
	flags.String("project", "", "directory to search for descgraph.toml (default: working directory)")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace mode (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 = off)")
	flags.String("cpu-profile", "", "write a CPU profile of the analysis to this file")
	flags.String("mem-profile", "", "write a heap profile after the analysis to this file")
	flags.String("runtime-trace", "", "write a Go runtime trace of the analysis to this file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
