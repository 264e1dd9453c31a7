package workerpresentation

import (
	"context"
	"sort"

	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability/logctx"

	"github.com/google/uuid"
)

const attrEventID = "event_id"

// WithEventContext binds the logger of one event delivery into ctx: base plus
// an event_id (taken from attrs or generated), the trace ids of the publishing
// span, and the non-empty attrs. attrs must stay low-cardinality.
func WithEventContext(ctx context.Context, base observability.Logger, attrs map[string]string) context.Context {
	if base == nil {
		base = logctx.FromOr(ctx, observability.NopLogger())
	}

	id := attrs[attrEventID]
	if id == "" {
		id = uuid.NewString()
	}
	fields := []observability.Field{observability.F(attrEventID, id)}
	fields = append(fields, logctx.TraceFields(ctx)...)

	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if k != attrEventID && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, observability.F(k, attrs[k]))
	}
	return logctx.With(ctx, base.With(fields...))
}
