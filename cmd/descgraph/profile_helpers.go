package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"descgraph/internal/prof"
)

// setupProfiling starts the profilers named by the profiling flags.
func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	var opts prof.Options
	for name, dst := range map[string]*string{
		"cpu-profile":   &opts.CPU,
		"mem-profile":   &opts.Mem,
		"runtime-trace": &opts.RuntimeTrace,
	} {
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = v
	}
	s, err := prof.Start(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start profiling: %w", err)
	}
	return s, nil
}
