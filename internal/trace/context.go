package trace

import "context"

type ctxKey struct{}

// FromContext returns the Tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches t to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

type spanKey struct{}

// StartSpan begins a span parented to the span stored in ctx and returns a
// derived context carrying the new span.
func StartSpan(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	var parent uint64
	if sp, ok := ctx.Value(spanKey{}).(*Span); ok {
		parent = sp.ID()
	}
	sp := Begin(FromContext(ctx), scope, name, parent)
	return context.WithValue(ctx, spanKey{}, sp), sp
}

// SpanFromContext returns the innermost span started with StartSpan.
func SpanFromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	sp, _ := ctx.Value(spanKey{}).(*Span)
	return sp
}
