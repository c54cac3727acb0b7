// internal/action/template.go
// Package action wraps every interaction with a page object in a template that
// classifies failures, recovers once from stale element references and reports
// terminal failures to an event sink before returning them to the caller.
package action

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webtester/internal/events"
)

const tracerName = "github.com/xkilldash9x/webtester/internal/action"

// Target is the element bound object an operation acts upon. The template never
// owns it; it only runs operations against it and may force it to re-resolve.
type Target interface {
	// Identity is used for re-resolution and for error and event context.
	Identity() string
	// IsPresent reports whether the target currently resolves to a live element.
	IsPresent(ctx context.Context) (bool, error)
	// Invalidate drops any cached resolution so the next access resolves again.
	Invalidate()
}

// Waiter blocks until condition holds, after calling invalidate once. The
// implementation owns polling and timeouts.
type Waiter interface {
	Until(ctx context.Context, invalidate func(), condition func(ctx context.Context) (bool, error)) error
}

// EventSink receives the exception events of terminal failures.
type EventSink interface {
	Fire(e events.Event)
}

// Operation is a unit of work against a target that produces a value of type B.
// Operations without a result use Template.Do.
type Operation[B any] func(ctx context.Context, target Target) (B, error)

// Template runs operations against a single target.
type Template struct {
	target Target
	sink   EventSink
	waiter Waiter
	logger *zap.Logger
	tracer trace.Tracer
}

// Option customizes a Template.
type Option func(*Template)

// WithTracer overrides the tracer, which defaults to the global provider's.
func WithTracer(tracer trace.Tracer) Option {
	return func(t *Template) {
		if tracer != nil {
			t.tracer = tracer
		}
	}
}

// NewTemplate creates a template bound to target.
func NewTemplate(target Target, sink EventSink, waiter Waiter, logger *zap.Logger, opts ...Option) *Template {
	if target == nil {
		panic("action template created with nil target")
	}
	if sink == nil {
		panic("action template created with nil event sink")
	}
	if waiter == nil {
		panic("action template created with nil waiter")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Template{
		target: target,
		sink:   sink,
		waiter: waiter,
		logger: logger.Named("action_template"),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Target returns the target the template is bound to.
func (t *Template) Target() Target { return t.target }

// Do runs an operation that produces no value.
func (t *Template) Do(ctx context.Context, op func(ctx context.Context, target Target) error) error {
	_, err := Execute(ctx, t, func(ctx context.Context, target Target) (struct{}, error) {
		return struct{}{}, op(ctx, target)
	})
	return err
}

// Execute runs op against the template's target and returns its value.
//
// A stale failure triggers exactly one recovery: the target is invalidated, the
// waiter blocks until it is present again and op runs a second time. Any failure
// of that recovery is returned as a *StaleRecoveryError. An invisible failure is
// returned as an *InvisibleError and any other failure is returned unchanged.
// Every terminal failure fires one ExceptionEvent before it is returned.
func Execute[B any](ctx context.Context, t *Template, op Operation[B]) (B, error) {
	ctx, span := t.tracer.Start(ctx, "action.run",
		trace.WithAttributes(attribute.String("webtester.target", t.target.Identity())))
	defer span.End()

	var zero B
	value, err := op(ctx, t.target)

	kind := Classify(err)
	span.SetAttributes(attribute.String("webtester.failure_kind", kind.String()))

	switch kind {
	case KindNone:
		span.SetAttributes(attribute.Int("webtester.attempts", 1))
		return value, nil
	case KindStale:
		return recoverStale(ctx, t, op, err, span)
	case KindInvisible:
		span.SetAttributes(attribute.Int("webtester.attempts", 1))
		return zero, t.fail(span, NewInvisibleError(t.target, err))
	default:
		span.SetAttributes(attribute.Int("webtester.attempts", 1))
		return zero, t.fail(span, err)
	}
}

func recoverStale[B any](ctx context.Context, t *Template, op Operation[B], cause error, span trace.Span) (B, error) {
	var zero B
	log := t.logger.With(zap.String("target", t.target.Identity()))
	log.Debug("Trying to resolve stale element.", zap.Error(cause))

	span.SetAttributes(attribute.Int("webtester.attempts", 2))

	err := t.waiter.Until(ctx, t.target.Invalidate, t.target.IsPresent)
	if err == nil {
		var value B
		value, err = op(ctx, t.target)
		if err == nil {
			log.Debug("Succeeded in resolving stale element.")
			span.SetAttributes(attribute.Bool("webtester.recovered", true))
			return value, nil
		}
	}

	log.Debug("Failed in resolving stale element.", zap.Error(err))
	span.SetAttributes(attribute.Bool("webtester.recovered", false))
	return zero, t.fail(span, NewStaleRecoveryError(t.target, err))
}

// fail reports a terminal failure to the sink and returns it for propagation.
func (t *Template) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	t.sink.Fire(events.NewExceptionEvent(t.target, err))
	return err
}
