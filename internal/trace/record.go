package trace

import (
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// RecordFunc receives completed spans and points as OpenTelemetry
// attribute records, ready to be forwarded to an exporter.
type RecordFunc func(name string, duration time.Duration, attrs []attribute.KeyValue)

// RecordTracer adapts trace events to a RecordFunc. Only span ends and
// points are forwarded; begins carry nothing a record consumer needs.
type RecordTracer struct {
	level  Level
	record RecordFunc
}

func NewRecordTracer(level Level, fn RecordFunc) *RecordTracer {
	return &RecordTracer{level: level, record: fn}
}

func (t *RecordTracer) Emit(ev *Event) {
	if t.record == nil || !t.level.ShouldEmit(ev.Scope) {
		return
	}
	if ev.Kind != KindSpanEnd && ev.Kind != KindPoint {
		return
	}
	t.record(ev.Name, ev.Dur, Attributes(ev))
}

// Attributes converts an event to a deterministic attribute list.
func Attributes(ev *Event) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4+len(ev.Extra))
	attrs = append(attrs,
		attribute.String("scope", ev.Scope.String()),
		attribute.String("kind", ev.Kind.String()),
		attribute.Int64("gid", int64(ev.GID)), //nolint:gosec // goroutine ids fit
	)
	if ev.Detail != "" {
		attrs = append(attrs, attribute.String("detail", ev.Detail))
	}
	keys := make([]string, 0, len(ev.Extra))
	for k := range ev.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, ev.Extra[k]))
	}
	return attrs
}

func (t *RecordTracer) Flush() error  { return nil }
func (t *RecordTracer) Close() error  { return nil }
func (t *RecordTracer) Level() Level  { return t.level }
func (t *RecordTracer) Enabled() bool { return t.level > LevelOff && t.record != nil }
