package persistence

import (
	"path/filepath"
	"testing"

	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
)

func buildSample(t *testing.T) *model.DocumentBase {
	t.Helper()
	base := model.NewDocumentBase()
	attr := model.NewAttribute("ceo", "chief executive officer")
	attr.Set("label-embedding", signal.Vector([]float32{1, 0, 0}))
	if err := base.AddAttribute(attr); err != nil {
		t.Fatal(err)
	}

	doc := model.NewDocument("d1", "Jane Smith is the CEO")
	n, err := doc.AddNugget(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	n.Set("text-embedding", signal.Vector([]float32{1, 0, 0}))
	n.Set("cached-distance", signal.Float(0.12)) // transient, should not survive round-trip
	n.Set("provenance", signal.Str("manual"))
	doc.Set("confirmed-match", signal.Ref(signal.NuggetRef{DocumentIndex: 0, NuggetIndex: 0}))
	doc.Set("currently-highest-ranked", signal.Ref(signal.NuggetRef{DocumentIndex: 0, NuggetIndex: 0})) // transient

	if err := base.AddDocument(doc); err != nil {
		t.Fatal(err)
	}
	return base
}

func TestBinaryRoundTripPreservesPersistentSignalsOnly(t *testing.T) {
	registry := signal.NewRegistry()
	base := buildSample(t)

	data, err := Encode(base, registry)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(decoded.Attributes) != 1 || decoded.Attributes[0].Name != "ceo" {
		t.Fatalf("unexpected attributes: %+v", decoded.Attributes)
	}
	if len(decoded.Documents) != 1 || decoded.Documents[0].Name != "d1" {
		t.Fatalf("unexpected documents: %+v", decoded.Documents)
	}
	doc := decoded.Documents[0]
	if doc.Has("currently-highest-ranked") {
		t.Fatal("expected transient currently-highest-ranked to be dropped")
	}
	n := doc.Nuggets()[0]
	if n.Has("cached-distance") {
		t.Fatal("expected transient cached-distance to be dropped")
	}
	if !n.Has("provenance") {
		t.Fatal("expected persistent provenance signal to survive")
	}
	if !doc.Has("confirmed-match") {
		t.Fatal("expected persistent confirmed-match signal to survive")
	}
}

func TestSaveFileAndLoadFileRoundTrip(t *testing.T) {
	registry := signal.NewRegistry()
	base := buildSample(t)
	path := filepath.Join(t.TempDir(), "base.bin")

	if err := SaveFile(path, base, registry); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	decoded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(decoded.Documents) != 1 {
		t.Fatalf("expected one document, got %d", len(decoded.Documents))
	}
}

func TestJSONRoundTrip(t *testing.T) {
	registry := signal.NewRegistry()
	base := buildSample(t)

	data, err := EncodeJSON(base, registry)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	decoded, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if decoded.Documents[0].Nuggets()[0].Text() != "Jane Smith" {
		t.Fatalf("unexpected nugget text: %q", decoded.Documents[0].Nuggets()[0].Text())
	}
}
