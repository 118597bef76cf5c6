package signal

import "testing"

func TestMapSetGetDelete(t *testing.T) {
	var m Map
	m.Set("label", Str("ceo"))
	v, ok := m.Get("label")
	if !ok || v.String != "ceo" {
		t.Fatalf("Get(label) = %+v, ok=%v", v, ok)
	}
	m.Delete("label")
	if m.Has("label") {
		t.Fatal("expected label to be deleted")
	}
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	var m Map
	m.Set("b", Int(2))
	m.Set("a", Int(1))
	m.Set("c", Int(3))
	got := m.Identifiers()
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Identifiers() = %v, want %v", got, want)
		}
	}
}

func TestRegistryKnowsTransientIdentifiers(t *testing.T) {
	r := NewRegistry()
	if !r.IsTransient("cached-distance") {
		t.Fatal("expected cached-distance to be transient")
	}
	if r.IsTransient("label") {
		t.Fatal("expected label to be persistent")
	}
	if r.IsTransient("some-unknown-signal") {
		t.Fatal("expected unknown identifiers to default to persistent")
	}
}

func TestValueEqual(t *testing.T) {
	a := Vector([]float32{1, 2, 3})
	b := Vector([]float32{1, 2, 3})
	c := Vector([]float32{1, 2, 4})
	if !a.Equal(b) {
		t.Fatal("expected equal vectors to compare equal")
	}
	if a.Equal(c) {
		t.Fatal("expected different vectors to compare unequal")
	}
}
