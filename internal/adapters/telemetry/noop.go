package telemetry

import (
	"context"

	"go.trai.ch/grove/internal/core/ports"
)

// NoopTracer is a no-op implementation of ports.Tracer.
type NoopTracer struct{}

// NewNoopTracer creates a new NoopTracer.
func NewNoopTracer() *NoopTracer {
	return &NoopTracer{}
}

// Start creates a new no-op span.
func (t *NoopTracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, &NoopSpan{}
}

// NoopSpan is a no-op implementation of ports.Span.
type NoopSpan struct{}

// End does nothing.
func (s *NoopSpan) End() {}

// RecordError does nothing.
func (s *NoopSpan) RecordError(_ error) {}

// Write does nothing and returns the length of p.
func (s *NoopSpan) Write(p []byte) (n int, err error) {
	return len(p), nil
}
