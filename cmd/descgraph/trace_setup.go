package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"descgraph/internal/trace"
)

// tracing is an initialised tracer plus what is needed to shut it down.
type tracing struct {
	tracer    trace.Tracer
	ring      *trace.RingTracer
	heartbeat *trace.Heartbeat
}

// setupTracing builds the tracer from [trace] in the manifest, with the
// trace flags taking precedence, and attaches it to the command context.
func setupTracing(cmd *cobra.Command, in *inputs) (*tracing, error) {
	cfg := trace.Config{}
	if in.manifest != nil {
		var err error
		if cfg, err = in.manifest.Tracing(); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("trace") {
		out, err := flags.GetString("trace")
		if err != nil {
			return nil, fmt.Errorf("failed to get trace flag: %w", err)
		}
		cfg.OutputPath = out
	}
	if flags.Changed("trace-level") {
		levelStr, err := flags.GetString("trace-level")
		if err != nil {
			return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
		}
		if cfg.Level, err = trace.ParseLevel(levelStr); err != nil {
			return nil, err
		}
	}
	if flags.Changed("trace-mode") {
		modeStr, err := flags.GetString("trace-mode")
		if err != nil {
			return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
		}
		if cfg.Mode, err = trace.ParseMode(modeStr); err != nil {
			return nil, err
		}
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	cfg.RingSize = ringSize
	if cfg.Heartbeat, err = flags.GetDuration("trace-heartbeat"); err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	// --trace alone means "trace the phases"
	if cfg.Level == trace.LevelOff && cfg.OutputPath != "" {
		cfg.Level = trace.LevelPhase
	}

	tracer, ring, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return &tracing{
		tracer:    tracer,
		ring:      ring,
		heartbeat: trace.StartHeartbeat(tracer, cfg.Heartbeat),
	}, nil
}

// close stops the heartbeat and flushes the tracer. When failed is set,
// the ring buffer is dumped to stderr.
func (t *tracing) close(cmd *cobra.Command, failed bool) {
	t.heartbeat.Stop()
	if failed && t.ring != nil {
		if err := t.ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
		}
	}
	if err := t.tracer.Flush(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
	}
	if err := t.tracer.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
	}
}
