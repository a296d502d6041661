package ports

import (
	"context"
	"io"
)

// Tracer is the entry point for recording units of work (resolution,
// realization, publication) for progress reporting.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
}
