package progrock

import (
	"github.com/vito/progrock"
)

// Span implements ports.Span wrapping *progrock.VertexRecorder.
type Span struct {
	vertex *progrock.VertexRecorder
	err    error
}

// Write forwards progress output to the vertex's stdout stream.
func (s *Span) Write(p []byte) (int, error) {
	return s.vertex.Stdout().Write(p)
}

// RecordError remembers the error End reports on completion.
func (s *Span) RecordError(err error) {
	s.err = err
}

// End marks the vertex as finished, successfully or with the recorded error.
func (s *Span) End() {
	s.vertex.Done(s.err)
}
