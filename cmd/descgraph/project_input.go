package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"descgraph/internal/driver"
	"descgraph/internal/project"
	"descgraph/internal/snapshot"
)

const defaultGraphName = "main"

// inputs is what a command analyses: the declaration files, the manifest
// they came from (nil when only flags were given) and the driver options
// assembled from both.
type inputs struct {
	paths    []string
	manifest *project.Manifest
	opts     driver.Options
}

// collectInputs merges descgraph.toml with the command line. Explicit
// file arguments replace [inputs]; flags override [analysis].
func collectInputs(cmd *cobra.Command, args []string) (*inputs, error) {
	startDir, err := cmd.Flags().GetString("project")
	if err != nil {
		return nil, fmt.Errorf("failed to get project flag: %w", err)
	}
	if startDir == "" {
		if startDir, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	manifest, found, err := project.LoadFrom(startDir)
	if err != nil {
		return nil, err
	}

	in := &inputs{manifest: manifest, opts: driver.Options{Name: defaultGraphName}}
	switch {
	case len(args) > 0:
		in.paths, err = project.ExpandInputs(args)
	case found:
		in.paths, err = manifest.InputFiles()
	default:
		err = fmt.Errorf("no declaration files given and no %s found above %s", project.ManifestName, startDir)
	}
	if err != nil {
		return nil, err
	}

	if found {
		cfg := manifest.Config
		if cfg.Package.Name != "" {
			in.opts.Name = cfg.Package.Name
		}
		in.opts.Jobs = cfg.Analysis.Jobs
		in.opts.MaxDiagnostics = cfg.Analysis.MaxDiagnostics
		in.opts.ForceAll = cfg.Analysis.ForceAll
		in.opts.Render = manifest.RenderOptions()
	}
	if err := overrideInt(cmd, "jobs", &in.opts.Jobs); err != nil {
		return nil, err
	}
	if err := overrideInt(cmd, "max-diagnostics", &in.opts.MaxDiagnostics); err != nil {
		return nil, err
	}
	return in, nil
}

func overrideInt(cmd *cobra.Command, name string, dst *int) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	if v < 0 {
		return fmt.Errorf("--%s must not be negative, got %d", name, v)
	}
	*dst = v
	return nil
}

// openCache opens the snapshot cache named by [cache], falling back to
// the per-user cache directory.
func (in *inputs) openCache() (*snapshot.DiskCache, error) {
	if in.manifest != nil && in.manifest.Config.Cache.Dir != "" {
		dir := in.manifest.Config.Cache.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(in.manifest.Dir, dir)
		}
		return snapshot.NewDiskCache(dir)
	}
	return snapshot.OpenDiskCache("descgraph")
}

func (in *inputs) cacheEnabled() bool {
	return in.manifest != nil && in.manifest.Config.Cache.Enabled
}
