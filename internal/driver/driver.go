// Package driver runs the analysis pipeline: load declaration files,
// resolve them into one descriptor graph, optionally force every lazy
// part of it in parallel, and snapshot the result.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"descgraph/internal/descriptors"
	"descgraph/internal/diag"
	"descgraph/internal/fault"
	"descgraph/internal/observ"
	"descgraph/internal/render"
	"descgraph/internal/resolve"
	"descgraph/internal/shape"
	"descgraph/internal/snapshot"
	"descgraph/internal/source"
	"descgraph/internal/trace"
)

// Options configure Run. The zero value is usable.
type Options struct {
	// Name labels the graph and the snapshot.
	Name           string
	Jobs           int
	MaxDiagnostics int
	// ForceAll computes every supertype list, member scope, bound and
	// override set before Run returns.
	ForceAll bool
	Tracer   trace.Tracer
	Render   render.Options
	Cache    *snapshot.DiskCache
	Observer PhaseObserver
	// Timings appends an ObsTimings diagnostic with the phase report.
	Timings bool
}

func (o Options) jobs() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// Result is what one Run produced. Graph and Resolved are nil when the
// inputs could not be loaded.
type Result struct {
	Files    *source.FileSet
	Shapes   []*shape.File
	Graph    *descriptors.Graph
	Resolver *resolve.Resolver
	Resolved *resolve.Result
	Bag      *diag.Bag
	Timer    *observ.Timer
	Renderer *render.Renderer
	// Key digests the input contents; it keys the snapshot cache.
	Key snapshot.Digest

	name  string
	cache *snapshot.DiskCache
}

// Roots lists classes followed by top level functions and properties.
func (r *Result) Roots() []*descriptors.Decl {
	if r.Resolved == nil {
		return nil
	}
	var out []*descriptors.Decl
	out = append(out, r.Resolved.Classes...)
	out = append(out, r.Resolved.Functions...)
	out = append(out, r.Resolved.Properties...)
	return out
}

// Run executes the pipeline over paths. Problems in the inputs end up in
// Result.Bag; the returned error is reserved for cancellation and
// internal failures.
func Run(ctx context.Context, paths []string, opts Options) (*Result, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	bag := diag.NewBag(opts.MaxDiagnostics)
	reporter := diag.NewLockedReporter(diag.NewDedupReporter(diag.BagReporter{Bag: bag}))
	res := &Result{
		Files:    source.NewFileSet(),
		Bag:      bag,
		Timer:    observ.NewTimer(),
		Renderer: render.New(opts.Render),
		name:     opts.Name,
		cache:    opts.Cache,
	}

	span := trace.Begin(tracer, trace.ScopeDriver, "run", 0).WithExtra("files", strconv.Itoa(len(paths)))
	defer span.End("")
	start := time.Now()

	phase := func(name string, fn func() error) error {
		opts.Observer.emit(PhaseEvent{Name: name, Status: PhaseStart})
		began := time.Now()
		done := res.Timer.Track(name)
		err := fn()
		done("")
		opts.Observer.emit(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: time.Since(began), Err: err})
		return err
	}

	err := phase("load", func() error {
		shapes, err := loadShapes(ctx, paths, res.Files, reporter, opts.jobs())
		res.Shapes = shapes
		return err
	})
	if err != nil {
		return res, err
	}
	res.Key = inputKey(res.Files)
	if bag.HasErrors() {
		opts.Observer.skip("resolve")
		if opts.ForceAll {
			opts.Observer.skip("force")
		}
		res.finish(opts, start, len(paths))
		return res, nil
	}

	err = phase("resolve", func() error {
		res.Graph = descriptors.NewGraph(descriptors.Config{
			Name:     opts.Name,
			Reporter: reporter,
			Tracer:   tracer,
		})
		res.Resolver = resolve.New(res.Graph, resolve.Options{Files: res.Files})
		return fault.Catch(func() {
			res.Resolved = res.Resolver.Resolve(res.Shapes)
		})
	})
	if err != nil {
		return res, fmt.Errorf("resolve: %w", err)
	}

	if opts.ForceAll {
		err = phase("force", func() error {
			return ForceAll(ctx, res.Roots(), opts.jobs())
		})
		if err != nil {
			return res, err
		}
	}
	res.finish(opts, start, len(paths))
	return res, nil
}

func (r *Result) finish(opts Options, start time.Time, files int) {
	if opts.Timings {
		report := r.Timer.Report()
		appendTimingDiagnostic(r.Bag, timingPayload{
			Files:   files,
			TotalMS: float64(time.Since(start).Microseconds()) / 1000,
			Phases:  report.Phases,
		})
	}
	r.Bag.Sort()
}

// inputKey digests the loaded files in ID order.
func inputKey(files *source.FileSet) snapshot.Digest {
	inputs := make([][]byte, 0, 2*files.Len())
	for id := 1; id <= files.Len(); id++ {
		f := files.Get(source.FileID(id))
		inputs = append(inputs, []byte(f.Path), f.Hash[:])
	}
	return snapshot.Key(inputs...)
}

// loadShapes reads and parses paths concurrently. Results keep the order
// of paths; files that fail are reported and skipped.
func loadShapes(ctx context.Context, paths []string, files *source.FileSet, reporter diag.Reporter, jobs int) ([]*shape.File, error) {
	if len(paths) == 0 {
		diag.ReportError(reporter, diag.ProjMissingInput, source.Span{}, "no declaration files to analyse").Emit()
		return nil, nil
	}
	ids := make([]source.FileID, len(paths))
	data := make([][]byte, len(paths))
	for i, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			diag.ReportError(reporter, diag.IOLoadFileError, source.Span{}, fmt.Sprintf("failed to read %s: %v", p, err)).Emit()
			continue
		}
		ids[i] = files.Add(p, content)
		data[i] = content
	}

	parsed := make([]*shape.File, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, p := range paths {
		if ids[i] == source.NoFileID {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := shape.Parse(p, data[i])
			if err != nil {
				reportShapeError(reporter, source.Span{File: ids[i]}, err)
				return nil
			}
			parsed[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*shape.File, 0, len(parsed))
	for _, f := range parsed {
		if f != nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func reportShapeError(reporter diag.Reporter, at source.Span, err error) {
	var invalid *shape.ValidationError
	if errors.As(err, &invalid) {
		for _, p := range invalid.Problems {
			diag.ReportError(reporter, diag.ShapeInvalid, at, p).Emit()
		}
		return
	}
	diag.ReportError(reporter, diag.ShapeSyntax, at, err.Error()).Emit()
}

// ForceAll computes every lazy part reachable from roots using up to
// jobs goroutines. A precondition failure in any of them is returned.
func ForceAll(ctx context.Context, roots []*descriptors.Decl, jobs int) error {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, root := range roots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fault.Catch(func() { forceDecl(root) }); err != nil {
				return fmt.Errorf("force %s: %w", root, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func forceDecl(root *descriptors.Decl) {
	descriptors.Walk(root, func(d *descriptors.Decl) bool {
		if d != root && d.Kind() == descriptors.KindClass {
			// nested classes are roots of their own
			return false
		}
		switch d.Kind() {
		case descriptors.KindClass:
			d.Supertypes()
			d.DefaultType()
			d.StaticScope().ContributedDescriptors()
		case descriptors.KindTypeParameter:
			d.UpperBounds()
		case descriptors.KindValueParameter:
			d.Type()
			d.HasDefaultValue()
		case descriptors.KindReceiverParameter:
			d.Receiver().Type()
		case descriptors.KindConstructor, descriptors.KindFunction, descriptors.KindProperty,
			descriptors.KindGetter, descriptors.KindSetter:
			d.ReturnType()
			d.Visibility()
			d.OverriddenDescriptors()
		}
		return true
	})
}

// Snapshot returns the snapshot of the run, reading it from the cache
// when an entry for Key exists and storing it otherwise. cached reports
// a cache hit.
func (r *Result) Snapshot() (s *snapshot.Snapshot, cached bool, err error) {
	if r.Resolved == nil {
		return nil, false, errors.New("snapshot: nothing was resolved")
	}
	if r.cache != nil && !r.Bag.HasErrors() {
		s, ok, err := r.cache.Get(r.Key)
		if err != nil {
			return nil, false, fmt.Errorf("snapshot cache: %w", err)
		}
		if ok {
			return s, true, nil
		}
	}
	done := r.Timer.Track("snapshot")
	err = fault.Catch(func() {
		s = snapshot.Build(r.name, r.Roots(), r.Renderer)
	})
	done("")
	if err != nil {
		return nil, false, fmt.Errorf("snapshot: %w", err)
	}
	s.Key = r.Key.String()
	if r.cache != nil && !r.Bag.HasErrors() {
		if err := r.cache.Put(r.Key, s); err != nil {
			return s, false, fmt.Errorf("snapshot cache: %w", err)
		}
	}
	return s, false, nil
}
