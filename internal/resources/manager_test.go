package resources

import (
	"testing"

	"github.com/wannadb/matchengine/internal/embedder"
)

func TestOpenIsIdempotentAndRefCounted(t *testing.T) {
	m := &Manager{}
	stub := embedder.NewStub(2)

	release1, err := m.Open(Config{Embedder: stub})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release2, err := m.Open(Config{Embedder: stub})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := m.Embedder(); err != nil {
		t.Fatalf("expected embedder to be available while open: %v", err)
	}

	release1()
	if _, err := m.Embedder(); err != nil {
		t.Fatalf("expected embedder to remain available with one release still outstanding: %v", err)
	}

	release2()
	if _, err := m.Embedder(); err == nil {
		t.Fatal("expected embedder to be unavailable once fully closed")
	}
}

func TestEmbedderUnavailableBeforeOpen(t *testing.T) {
	m := &Manager{}
	if _, err := m.Embedder(); err == nil {
		t.Fatal("expected an error before Open is called")
	}
}

func TestStopwordSetTokenizes(t *testing.T) {
	m := &Manager{}
	release, err := m.Open(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	sw, err := m.StopwordSet()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tokens := sw.Tokenize("The CEO of the company is the boss")
	for _, tok := range tokens {
		if tok == "the" || tok == "of" || tok == "is" {
			t.Fatalf("expected stopwords to be removed, got %v", tokens)
		}
	}
}
