package application

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-retail/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

const (
	SpanPrefix     = "UC."
	PublishPeer    = "outbox"
	PublishTimeout = 300 * time.Millisecond
)

// Instruments holds the RED metrics, tracer and base logger shared by the use
// cases of one service. Build it once in the constructor; never per call.
type Instruments struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstruments(service string, tel observability.Observability) *Instruments {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Instruments{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (in *Instruments) Logger() observability.Logger { return in.log }

// Run tracks a single use case execution from Begin to End.
type Run struct {
	in      *Instruments
	useCase string
	ctx     context.Context
	span    trace.Span
	start   time.Time
	log     observability.Logger

	outcome    string
	status     string
	fields     []observability.Field
	publishErr error
}

// Begin opens the UC span and binds a use-case logger into the returned context
// so repositories and clients log with the same fields.
func (in *Instruments) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, SpanPrefix+spanName, attrs...)

	fields := append([]observability.Field{observability.F("use_case", useCase)}, logctx.TraceFields(ctx)...)
	ctx, logger := logctx.Enrich(ctx, in.log, fields...)

	return ctx, &Run{
		in:      in,
		useCase: useCase,
		ctx:     ctx,
		span:    span,
		start:   time.Now(),
		log:     logger,
		outcome: "success",
		status:  "OK",
	}
}

func (r *Run) Logger() observability.Logger { return r.log }
func (r *Run) Span() trace.Span             { return r.span }

// Fail marks the run as failed with a machine-readable status.
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

// Status overrides the status of a successful run, e.g. "INVALID_COUPON".
func (r *Run) Status(status string) {
	r.status = status
}

// Annotate adds fields to the use_case_done line.
func (r *Run) Annotate(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

// End records metrics, closes the span and writes the use_case_done line.
func (r *Run) End(err error) {
	if err != nil && r.outcome != "error" {
		r.outcome = "error"
		if r.status == "OK" {
			r.status = "FAILED"
		}
	}
	lat := time.Since(r.start).Seconds()

	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, r.status)
	} else {
		r.span.SetStatus(codes.Ok, r.status)
	}
	r.span.End()

	r.in.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	r.in.durHistogram.Observe(lat, observability.L("use_case", r.useCase))

	fields := append([]observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}, r.fields...)
	if r.publishErr != nil {
		fields = append(fields, observability.F("event_publish_error", r.publishErr.Error()))
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.log.Info("use_case_done", fields...)
}

// Publish hands e to the publisher within PublishTimeout. A failed publish is
// recorded on the run but never fails the use case.
func (r *Run) Publish(pub domoutbox.Publisher, e domoutbox.Event) {
	if pub == nil || e == nil {
		return
	}
	endpoint := e.EventName()
	pubCtx, cancel := context.WithTimeout(r.ctx, PublishTimeout)
	defer cancel()

	start := time.Now()
	outcome := "success"
	err := pub.Publish(pubCtx, e)
	switch {
	case err != nil:
		outcome = "error"
		r.status = "EVENT_PUBLISH_FAILED"
	case pubCtx.Err() != nil:
		outcome = "canceled"
		err = pubCtx.Err()
		r.status = "EVENT_PUBLISH_TIMEOUT"
	}
	if err != nil {
		r.publishErr = err
		r.span.RecordError(err)
	}

	r.in.extCounter.Add(1,
		observability.L("peer", PublishPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	r.in.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", PublishPeer),
		observability.L("endpoint", endpoint),
	)
	r.span.AddEvent(endpoint)
}
