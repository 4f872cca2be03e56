package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"descgraph/internal/driver"
	"descgraph/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [flags] [file.yaml|directory...]",
	Short: "Write a snapshot of every declaration and its overrides",
	Long: `Resolve the inputs, force the whole graph and write one entry per declaration
with its rendered signature and overridden declarations.`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().String("format", "yaml", "snapshot format (yaml|cbor|msgpack)")
	snapshotCmd.Flags().StringP("out", "o", "-", "output file (- for stdout)")
	snapshotCmd.Flags().Bool("cache", false, "reuse snapshots of unchanged inputs (also enabled by [cache] in descgraph.toml)")
	snapshotCmd.Flags().Bool("drop-cache", false, "empty the snapshot cache first")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := snapshot.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	if outPath == "-" && format != snapshot.FormatYAML && isTerminal(os.Stdout) {
		return fmt.Errorf("refusing to write %s to a terminal; use --out", format)
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	dropCache, err := cmd.Flags().GetBool("drop-cache")
	if err != nil {
		return fmt.Errorf("failed to get drop-cache flag: %w", err)
	}

	in, err := collectInputs(cmd, args)
	if err != nil {
		return err
	}
	var cache *snapshot.DiskCache
	if useCache || dropCache || in.cacheEnabled() {
		if cache, err = in.openCache(); err != nil {
			return fmt.Errorf("snapshot cache: %w", err)
		}
		if dropCache {
			if err := cache.DropAll(); err != nil {
				return fmt.Errorf("snapshot cache: %w", err)
			}
		}
	}

	res, err := runAnalysis(cmd, in, func(opts *driver.Options) {
		opts.Cache = cache
	})
	if err != nil {
		return err
	}
	if err := analysisFailed(res); err != nil {
		return err
	}
	s, cached, err := res.Snapshot()
	if err != nil {
		return err
	}
	if err := writeSnapshot(cmd, outPath, s, format); err != nil {
		return err
	}
	if !quiet(cmd) {
		note := ""
		if cached {
			note = " (from cache)"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "snapshot %s: %d entries%s\n", s.Name, len(s.Entries), note)
	}
	return printTimings(cmd, res)
}

func writeSnapshot(cmd *cobra.Command, path string, s *snapshot.Snapshot, format snapshot.Format) (err error) {
	var w io.Writer = cmd.OutOrStdout()
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return snapshot.Encode(w, s, format)
}
