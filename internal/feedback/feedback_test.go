package feedback

import (
	"context"
	"testing"

	"github.com/wannadb/matchengine/internal/distance"
	"github.com/wannadb/matchengine/internal/embedder"
	"github.com/wannadb/matchengine/internal/interaction"
	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
)

func buildScenario(t *testing.T) (*model.DocumentBase, *model.Attribute, *embedder.Stub) {
	t.Helper()
	base := model.NewDocumentBase()
	attr := model.NewAttribute("ceo", "chief executive officer")
	if err := base.AddAttribute(attr); err != nil {
		t.Fatal(err)
	}

	stub := embedder.NewStub(2)
	stub.Register("chief executive officer", []float32{1, 0})

	doc1 := model.NewDocument("d1", "Jane Smith")
	base.AddDocument(doc1)
	n1, _ := doc1.AddNugget(0, 10)
	n1.Set("text-embedding", signal.Vector([]float32{1, 0}))

	doc2 := model.NewDocument("d2", "John Doe")
	base.AddDocument(doc2)
	n2, _ := doc2.AddNugget(0, 8)
	n2.Set("text-embedding", signal.Vector([]float32{0, 1}))

	return base, attr, stub
}

func TestDriverConfirmsColdLabelMatch(t *testing.T) {
	base, attr, stub := buildScenario(t)
	dist := distance.CosineLabelDistance{Embedder: stub}
	driver := New(base, attr, dist, DefaultConfig())

	cb := func(_ context.Context, req interaction.Request) (interaction.Answer, error) {
		return interaction.Answer{Kind: interaction.Confirm}, nil
	}
	if err := driver.Run(context.Background(), cb, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if driver.State() != StateDone {
		t.Fatalf("State() = %v, want StateDone", driver.State())
	}

	base1, _ := base.Documents[0].Get("confirmed-match")
	if base1.NuggetRef.NuggetIndex != 0 {
		t.Fatal("expected d1's nugget to be confirmed")
	}
}

func TestDriverRejectRemovesDocumentWithoutAffectingOthers(t *testing.T) {
	base, attr, stub := buildScenario(t)
	dist := distance.CosineLabelDistance{Embedder: stub}
	cfg := DefaultConfig()
	driver := New(base, attr, dist, cfg)

	answered := map[string]bool{}
	cb := func(_ context.Context, req interaction.Request) (interaction.Answer, error) {
		answered[req.DocumentName] = true
		if req.DocumentName == "d1" {
			return interaction.Answer{Kind: interaction.Reject}, nil
		}
		return interaction.Answer{Kind: interaction.Confirm}, nil
	}
	if err := driver.Run(context.Background(), cb, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := base.Documents[0].Get("confirmed-match"); ok {
		t.Fatal("expected d1 to remain unconfirmed after reject")
	}
	if !answered["d2"] {
		t.Fatal("expected d2 to still be asked about despite d1's rejection")
	}
}

func TestDriverStopEndsRoundEarly(t *testing.T) {
	base, attr, stub := buildScenario(t)
	dist := distance.CosineLabelDistance{Embedder: stub}
	driver := New(base, attr, dist, DefaultConfig())

	calls := 0
	cb := func(_ context.Context, req interaction.Request) (interaction.Answer, error) {
		calls++
		return interaction.Answer{Kind: interaction.Stop}, nil
	}
	if err := driver.Run(context.Background(), cb, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one question before stop, got %d", calls)
	}
	if driver.State() != StateDone {
		t.Fatal("expected driver to reach StateDone after stop")
	}
}

func TestDriverCancellationReturnsPartialResults(t *testing.T) {
	base, attr, stub := buildScenario(t)
	dist := distance.CosineLabelDistance{Embedder: stub}
	driver := New(base, attr, dist, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cb := func(_ context.Context, req interaction.Request) (interaction.Answer, error) {
		cancel()
		return interaction.Answer{Kind: interaction.Confirm}, nil
	}
	err := driver.Run(ctx, cb, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
