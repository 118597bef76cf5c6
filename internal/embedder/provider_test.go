package embedder

import (
	"context"
	"testing"
)

func TestStubReturnsRegisteredVector(t *testing.T) {
	s := NewStub(3)
	s.Register("hello", []float32{1, 2, 3})

	vec, err := s.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 || vec[0] != 1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestStubErrorsOnUnregisteredText(t *testing.T) {
	s := NewStub(3)
	if _, err := s.Embed(context.Background(), "unregistered"); err == nil {
		t.Fatal("expected an error for unregistered text")
	}
}

func TestRetryingRetriesOnceThenSucceeds(t *testing.T) {
	calls := 0
	flaky := &countingProvider{fn: func() ([]float32, error) {
		calls++
		if calls == 1 {
			return nil, errTransient
		}
		return []float32{1}, nil
	}}
	r := NewRetrying(flaky, 0)
	vec, err := r.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 1 || calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls)
	}
}

type countingProvider struct {
	fn func() ([]float32, error)
}

func (c *countingProvider) Embed(_ context.Context, _ string) ([]float32, error) { return c.fn() }
func (c *countingProvider) Dimensions() int                                      { return 0 }

type transientErr struct{}

func (transientErr) Error() string { return "transient" }

var errTransient = transientErr{}
