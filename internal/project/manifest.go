package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"descgraph/internal/render"
	"descgraph/internal/trace"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing.
	ErrPackageNameMissing = errors.New("missing [package].name")
)

// Config mirrors descgraph.toml.
type Config struct {
	Package  PackageSection  `toml:"package"`
	Inputs   InputsSection   `toml:"inputs"`
	Analysis AnalysisSection `toml:"analysis"`
	Trace    TraceSection    `toml:"trace"`
	Render   RenderSection   `toml:"render"`
	Cache    CacheSection    `toml:"cache"`
}

type PackageSection struct {
	Name string `toml:"name"`
	Root string `toml:"root"`
}

// InputsSection lists declaration files. Entries are glob patterns or
// directories relative to the package root; a directory stands for
// every .yaml and .yml file below it. No entries means the whole root.
type InputsSection struct {
	Files []string `toml:"files"`
}

type AnalysisSection struct {
	Jobs           int  `toml:"jobs"`
	MaxDiagnostics int  `toml:"max_diagnostics"`
	ForceAll       bool `toml:"force_all"`
}

type TraceSection struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

type RenderSection struct {
	Width  int `toml:"width"`
	Indent int `toml:"indent"`
}

type CacheSection struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Manifest is a loaded descgraph.toml.
type Manifest struct {
	Path   string // the manifest file
	Dir    string // directory holding the manifest
	Root   string // resolved [package].root
	Config Config
}

// Load parses and checks the manifest at path.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	cfg.Package.Name = strings.TrimSpace(cfg.Package.Name)
	if !meta.IsDefined("package", "name") || cfg.Package.Name == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	root, err := ResolveRoot(dir, cfg.Package.Root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Manifest{Path: path, Dir: dir, Root: root, Config: cfg}, nil
}

// LoadFrom finds the manifest above startDir and loads it. ok is false
// when there is none.
func LoadFrom(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

func (c *Config) check() error {
	switch {
	case c.Analysis.Jobs < 0:
		return fmt.Errorf("[analysis].jobs must not be negative, got %d", c.Analysis.Jobs)
	case c.Analysis.MaxDiagnostics < 0:
		return fmt.Errorf("[analysis].max_diagnostics must not be negative, got %d", c.Analysis.MaxDiagnostics)
	case c.Render.Width < 0:
		return fmt.Errorf("[render].width must not be negative, got %d", c.Render.Width)
	case c.Render.Indent < 0 || c.Render.Indent > 16:
		return fmt.Errorf("[render].indent must be between 0 and 16, got %d", c.Render.Indent)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("[trace].mode: %w", err)
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		return fmt.Errorf("[trace].format: %w", err)
	}
	return nil
}

// Tracing converts [trace] into a tracer config. Relative output paths
// are taken from the manifest directory.
func (m *Manifest) Tracing() (trace.Config, error) {
	t := m.Config.Trace
	level, err := trace.ParseLevel(t.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(t.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(t.Format)
	if err != nil {
		return trace.Config{}, err
	}
	out := t.Output
	if out != "" && out != "-" && !filepath.IsAbs(out) {
		out = filepath.Join(m.Dir, out)
	}
	return trace.Config{Level: level, Mode: mode, Format: format, OutputPath: out}, nil
}

// RenderOptions converts [render] into renderer options.
func (m *Manifest) RenderOptions() render.Options {
	opts := render.Options{Width: m.Config.Render.Width}
	if m.Config.Render.Indent > 0 {
		opts.Indent = strings.Repeat(" ", m.Config.Render.Indent)
	}
	return opts
}

// MissingInputError reports an [inputs] entry that matched no file.
type MissingInputError struct {
	Manifest string
	Pattern  string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s: [inputs] entry %q matches no declaration file", e.Manifest, e.Pattern)
}

// InputFiles expands [inputs].files into a sorted list of paths.
func (m *Manifest) InputFiles() ([]string, error) {
	patterns := m.Config.Inputs.Files
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, pattern := range patterns {
		full := filepath.Join(m.Root, filepath.FromSlash(pattern))
		if !pathWithin(m.Root, full) {
			return nil, fmt.Errorf("%s: [inputs] entry %q escapes the package root", m.Path, pattern)
		}
		matches, err := expand(full)
		if err != nil {
			return nil, fmt.Errorf("%s: [inputs] entry %q: %w", m.Path, pattern, err)
		}
		if len(matches) == 0 {
			return nil, &MissingInputError{Manifest: m.Path, Pattern: pattern}
		}
		for _, p := range matches {
			add(p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func expand(pattern string) ([]string, error) {
	if info, err := os.Stat(pattern); err == nil && info.IsDir() {
		return walkDeclarations(pattern)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range matches {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			files, err := walkDeclarations(p)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func walkDeclarations(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsDeclarationFile(path) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

// IsDeclarationFile reports whether path has a declaration file extension.
func IsDeclarationFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ExpandInputs expands paths given on the command line. Directories stand
// for the declaration files below them; other entries are globs.
func ExpandInputs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, arg := range args {
		matches, err := expand(filepath.Clean(arg))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		if len(matches) == 0 {
			// left for the loader to report
			matches = []string{arg}
		}
		for _, p := range matches {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out, nil
}
