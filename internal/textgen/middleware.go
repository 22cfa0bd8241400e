package textgen

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// RateLimited waits on a shared token bucket before every call so bursts of
// plan requests do not trip the provider's own rate limits.
type RateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

func NewRateLimited(next Generator, limiter *rate.Limiter) *RateLimited {
	return &RateLimited{next: next, limiter: limiter}
}

func (r *RateLimited) Generate(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", &ServiceError{Provider: "ratelimit", Err: err}
	}
	return r.next.Generate(ctx, req)
}

// Traced records one span per call.
type Traced struct {
	next     Generator
	tracer   trace.Tracer
	provider string
}

func NewTraced(next Generator, tracer trace.Tracer, provider string) *Traced {
	return &Traced{next: next, tracer: tracer, provider: provider}
}

func (t *Traced) Generate(ctx context.Context, req Request) (string, error) {
	ctx, span := t.tracer.Start(ctx, "textgen.Generate", trace.WithAttributes(
		attribute.String("textgen.provider", t.provider),
		attribute.String("textgen.model", req.Model),
		attribute.Float64("textgen.temperature", req.Temperature),
		attribute.Int("textgen.messages", len(req.Messages)),
	))
	defer span.End()

	text, err := t.next.Generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("textgen.response_len", len(text)))
	return text, nil
}

// Observer receives the latency and outcome of each call.
type Observer interface {
	ObserveTextGen(provider string, d time.Duration, err error)
}

// Instrumented reports call latency to an Observer.
type Instrumented struct {
	next     Generator
	obs      Observer
	provider string
}

func NewInstrumented(next Generator, obs Observer, provider string) *Instrumented {
	return &Instrumented{next: next, obs: obs, provider: provider}
}

func (i *Instrumented) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := i.next.Generate(ctx, req)
	i.obs.ObserveTextGen(i.provider, time.Since(start), err)
	return text, err
}
