// Package oteltrace adapts the global OpenTelemetry tracer to observability.Tracer.
package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-retail/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultName = "minishop"

// Tracer starts internal spans. Server spans are opened by the HTTP router.
type Tracer struct {
	t    trace.Tracer
	kind trace.SpanKind
}

var _ observability.Tracer = (*Tracer)(nil)

// New binds to the global provider under name. With no SDK provider installed
// the spans record nothing but trace context still propagates.
func New(name string) *Tracer {
	if name == "" {
		name = defaultName
	}
	return &Tracer{t: otel.Tracer(name), kind: trace.SpanKindInternal}
}

func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithSpanKind(t.kind), trace.WithAttributes(attrs...))
}
