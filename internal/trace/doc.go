// Package trace is the logging and tracing subsystem of descgraph.
//
// It records driver passes, per-declaration work and lazy-value events so
// that hangs in cyclic declaration graphs and slow scope computations can be
// diagnosed after the fact.
//
// # Usage
//
//	descgraph resolve --trace=- --trace-level=detail shapes.yaml
//
// # Tracers
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes every event immediately (file or stderr)
//   - RingTracer: keeps the last N events for crash dumps
//   - MultiTracer: fans out to several tracers
//   - RecordTracer: hands finished spans to a callback with OpenTelemetry
//     attributes, for hosts that already run a telemetry pipeline
//
// # Levels and scopes
//
// LevelPhase keeps ScopeDriver and ScopePass, LevelDetail adds ScopeDecl,
// LevelDebug adds ScopeLazy (recursion detection, fallback values).
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "resolve", 0)
//	defer span.End("")
package trace
