package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"descgraph/internal/diag"
	"descgraph/internal/driver"
	"descgraph/internal/source"
	"descgraph/internal/trace"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

// runAnalysis runs the driver over in and prints its diagnostics.
// configure may adjust the driver options first. A nil error with
// res.Bag.HasErrors() means the inputs had problems.
func runAnalysis(cmd *cobra.Command, in *inputs, configure func(*driver.Options)) (res *driver.Result, err error) {
	tr, err := setupTracing(cmd, in)
	if err != nil {
		return nil, err
	}
	defer func() { tr.close(cmd, err != nil) }()
	profiling, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	defer func() {
		if perr := profiling.Stop(); perr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", perr)
		}
	}()

	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return nil, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	format, err := cmd.Flags().GetString("diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get diagnostics flag: %w", err)
	}
	if format != "short" && format != "json" {
		return nil, fmt.Errorf("unsupported diagnostics format %q (must be short or json)", format)
	}
	minName, err := cmd.Flags().GetString("min-severity")
	if err != nil {
		return nil, fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	minSev, err := diag.ParseSeverity(minName)
	if err != nil {
		return nil, err
	}

	if configure != nil {
		configure(&in.opts)
	}
	in.opts.Tracer = trace.FromContext(cmd.Context())
	if format == "short" && !quiet(cmd) {
		in.opts.Observer = func(ev driver.PhaseEvent) {
			if ev.Status == driver.PhaseSkipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: inputs have errors\n", ev.Name)
			}
		}
	}

	res, err = driver.Run(cmd.Context(), in.paths, in.opts)
	if err != nil {
		return nil, err
	}
	shown := res.Bag.AtLeast(minSev)
	if format == "json" {
		if err := diag.WriteJSON(cmd.ErrOrStderr(), shown, res.Files, withNotes); err != nil {
			return nil, err
		}
		return res, nil
	}
	printDiagnostics(cmd.ErrOrStderr(), shown, res.Files, withNotes)
	return res, nil
}

// printDiagnostics writes bag one diagnostic at a time, colored by
// severity when color is on.
func printDiagnostics(out io.Writer, bag *diag.Bag, files *source.FileSet, withNotes bool) {
	for _, d := range bag.Items() {
		text := diag.FormatShort([]diag.Diagnostic{d}, files, withNotes)
		switch d.Severity {
		case diag.SevError:
			errorColor.Fprint(out, text)
		case diag.SevWarning:
			warningColor.Fprint(out, text)
		default:
			infoColor.Fprint(out, text)
		}
	}
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(out, "... %d more diagnostics not shown (raise --max-diagnostics)\n", n)
	}
}

// analysisFailed turns error diagnostics into a command error.
func analysisFailed(res *driver.Result) error {
	if !res.Bag.HasErrors() {
		return nil
	}
	n := 0
	for _, d := range res.Bag.Items() {
		if d.Severity >= diag.SevError {
			n++
		}
	}
	return fmt.Errorf("analysis reported %d error(s)", n)
}

// printTimings writes the phase table when --timings is set.
func printTimings(cmd *cobra.Command, res *driver.Result) error {
	show, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	if show {
		fmt.Fprint(cmd.ErrOrStderr(), res.Timer.Summary())
	}
	return nil
}

func quiet(cmd *cobra.Command) bool {
	q, err := cmd.Flags().GetBool("quiet")
	return err == nil && q
}
