package extractor

import (
	"context"
	"testing"

	"github.com/wannadb/matchengine/internal/model"
)

func TestFakeExtractsWhitespaceDelimitedSpans(t *testing.T) {
	doc := model.NewDocument("d1", "Jane Smith is CEO")
	candidates, err := Fake{}.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 4 {
		t.Fatalf("expected 4 candidates, got %d: %+v", len(candidates), candidates)
	}
	if doc.Text[candidates[0].Start:candidates[0].End] != "Jane" {
		t.Fatalf("unexpected first candidate: %q", doc.Text[candidates[0].Start:candidates[0].End])
	}
}

func TestApplyAddsNuggetsWithProvenance(t *testing.T) {
	doc := model.NewDocument("d1", "Jane Smith")
	if err := Apply(context.Background(), Fake{}, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Nuggets()) != 2 {
		t.Fatalf("expected 2 nuggets, got %d", len(doc.Nuggets()))
	}
	if _, ok := doc.Nuggets()[0].Get("provenance"); !ok {
		t.Fatal("expected provenance signal on extracted nugget")
	}
}
