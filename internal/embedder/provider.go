// Package embedder defines the embedding-provider interface used by the
// distance function and the resource manager, plus the concrete transports
// that satisfy it: an HTTP sentence-transformer-style server, a gRPC
// remote embedding service, a rate-limiting decorator, and a deterministic
// in-memory stub for tests.
package embedder

import "context"

// Provider produces a dense embedding for a piece of text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Stub is a deterministic in-memory Provider for tests and fixtures: it
// returns whatever vector was registered for a given text, and an error
// for anything unregistered, so scenario fixtures can assert exact
// distances without a real model.
type Stub struct {
	vectors map[string][]float32
	dims    int
}

// NewStub constructs a Stub with the given fixed dimensionality.
func NewStub(dims int) *Stub {
	return &Stub{vectors: make(map[string][]float32), dims: dims}
}

// Register associates text with the vector it should embed to.
func (s *Stub) Register(text string, vector []float32) {
	s.vectors[text] = vector
}

// Embed implements Provider.
func (s *Stub) Embed(_ context.Context, text string) ([]float32, error) {
	v, ok := s.vectors[text]
	if !ok {
		return nil, &unregisteredErr{text: text}
	}
	return v, nil
}

// Dimensions implements Provider.
func (s *Stub) Dimensions() int { return s.dims }

type unregisteredErr struct{ text string }

func (e *unregisteredErr) Error() string {
	return "embedder: stub has no vector registered for " + e.text
}
