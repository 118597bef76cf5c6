package model

import "testing"

func TestAddNuggetRejectsInvalidSpan(t *testing.T) {
	doc := NewDocument("doc1", "hello world")
	if _, err := doc.AddNugget(-1, 5); err == nil {
		t.Fatal("expected error for negative start")
	}
	if _, err := doc.AddNugget(0, 100); err == nil {
		t.Fatal("expected error for end past text length")
	}
	if _, err := doc.AddNugget(5, 5); err == nil {
		t.Fatal("expected error for empty span")
	}
}

func TestNuggetTextAndIndex(t *testing.T) {
	doc := NewDocument("doc1", "hello world")
	n, err := doc.AddNugget(6, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := n.Text(); got != "world" {
		t.Fatalf("Text() = %q, want %q", got, "world")
	}
	if n.Index() != 0 {
		t.Fatalf("Index() = %d, want 0", n.Index())
	}
	if n.Document() != doc {
		t.Fatal("Document() does not point back to owning document")
	}
}

func TestDocumentBaseRejectsDuplicateNames(t *testing.T) {
	base := NewDocumentBase()
	if err := base.AddAttribute(NewAttribute("ceo", "chief executive officer")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := base.AddAttribute(NewAttribute("ceo", "other label")); err == nil {
		t.Fatal("expected error for duplicate attribute name")
	}

	if err := base.AddDocument(NewDocument("d1", "text")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := base.AddDocument(NewDocument("d1", "other text")); err == nil {
		t.Fatal("expected error for duplicate document name")
	}
}

func TestDocumentIndex(t *testing.T) {
	base := NewDocumentBase()
	d1 := NewDocument("d1", "a")
	d2 := NewDocument("d2", "b")
	base.AddDocument(d1)
	base.AddDocument(d2)
	if base.DocumentIndex(d2) != 1 {
		t.Fatalf("DocumentIndex(d2) = %d, want 1", base.DocumentIndex(d2))
	}
	if base.DocumentIndex(NewDocument("d3", "c")) != -1 {
		t.Fatal("expected -1 for a document not in the base")
	}
}

func TestValidateCatchesBadSpanAssembledDirectly(t *testing.T) {
	base := NewDocumentBase()
	doc := NewDocument("d1", "short")
	base.AddDocument(doc)
	doc.nuggets = append(doc.nuggets, &Nugget{doc: doc, docIndex: 0, Start: 0, End: 100})
	if err := base.Validate(); err == nil {
		t.Fatal("expected Validate to reject an out-of-range nugget span")
	}
}
