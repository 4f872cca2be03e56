package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"descgraph/internal/driver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] [file.yaml|directory...]",
	Short: "Resolve declaration files and report problems",
	Long: `Resolve declaration files into one descriptor graph and report what is wrong with them.
Without arguments the files listed in descgraph.toml are used.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().Bool("force", false, "compute every supertype, scope, bound and override set (finds cycles and clashes)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}
	in, err := collectInputs(cmd, args)
	if err != nil {
		return err
	}
	res, err := runAnalysis(cmd, in, func(opts *driver.Options) {
		opts.ForceAll = opts.ForceAll || force
	})
	if err != nil {
		return err
	}
	if !quiet(cmd) && res.Resolved != nil {
		r := res.Resolved
		fmt.Fprintf(cmd.OutOrStdout(), "resolved %d files: %d packages, %d classes, %d functions, %d properties\n",
			len(res.Shapes), len(r.Packages), len(r.Classes), len(r.Functions), len(r.Properties))
	}
	if err := printTimings(cmd, res); err != nil {
		return err
	}
	return analysisFailed(res)
}
