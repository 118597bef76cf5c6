package config

import "testing"

func TestBuildRejectsUnrecognizedIdentifier(t *testing.T) {
	doc := Document{Stages: []StageDescriptor{{Identifier: "not-a-real-stage"}}}
	_, err := Build(doc, BuildDeps{})
	if err == nil {
		t.Fatal("expected an error for an unrecognized stage identifier")
	}
}

func TestBuildResolvesDefaultPipeline(t *testing.T) {
	stages, err := Build(Default(), BuildDeps{Tau: 0.35})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stages) != 4 {
		t.Fatalf("expected 4 stages, got %d", len(stages))
	}
	if stages[0].Name() != "Embed Attribute" {
		t.Fatalf("stages[0].Name() = %q, want %q", stages[0].Name(), "Embed Attribute")
	}
}
