package pipeline

import (
	"context"
	"testing"

	"github.com/wannadb/matchengine/internal/interaction"
	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
	"github.com/wannadb/matchengine/internal/statistics"
)

type stageStub struct {
	name     string
	requires signal.Requirement
	produces signal.Requirement
	ran      *bool
}

func (s stageStub) Name() string                    { return s.name }
func (s stageStub) Requires() signal.Requirement     { return s.requires }
func (s stageStub) Produces() signal.Requirement     { return s.produces }
func (s stageStub) Run(_ context.Context, _ *model.DocumentBase, _ *model.Attribute, _ interaction.Callback, _ interaction.StatusCallback, _ *statistics.Node) error {
	if s.ran != nil {
		*s.ran = true
	}
	return nil
}

func TestRunAbortsWhenRequiredSignalNeverProduced(t *testing.T) {
	base := model.NewDocumentBase()
	base.AddAttribute(model.NewAttribute("attr", "label"))

	ran := false
	stages := []Stage{
		stageStub{
			name:     "needs-text-embedding",
			requires: signal.NewRequirement(signal.OwnerNugget, "text-embedding"),
			ran:      &ran,
		},
	}
	p := New(Config{Stages: stages})
	err := p.Run(context.Background(), base, nil, nil, statistics.NewRoot("test"))
	if err == nil {
		t.Fatal("expected a missing-signal error")
	}
	if ran {
		t.Fatal("expected the stage to never run once verification fails")
	}
}

func TestRunSucceedsWhenInitialSignalsSatisfyRequirement(t *testing.T) {
	base := model.NewDocumentBase()
	base.AddAttribute(model.NewAttribute("attr", "label"))

	ran := false
	stages := []Stage{
		stageStub{
			name:     "needs-text-embedding",
			requires: signal.NewRequirement(signal.OwnerNugget, "text-embedding"),
			ran:      &ran,
		},
	}
	p := New(Config{
		Stages:  stages,
		Initial: signal.NewRequirement(signal.OwnerNugget, "text-embedding"),
	})
	if err := p.Run(context.Background(), base, nil, nil, statistics.NewRoot("test")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("expected the stage to run once its requirement is satisfied")
	}
}

func TestRunChainsProducedSignalsBetweenStages(t *testing.T) {
	base := model.NewDocumentBase()
	base.AddAttribute(model.NewAttribute("attr", "label"))

	ran2 := false
	stages := []Stage{
		stageStub{name: "produces-embedding", produces: signal.NewRequirement(signal.OwnerNugget, "text-embedding")},
		stageStub{name: "consumes-embedding", requires: signal.NewRequirement(signal.OwnerNugget, "text-embedding"), ran: &ran2},
	}
	p := New(Config{Stages: stages})
	if err := p.Run(context.Background(), base, nil, nil, statistics.NewRoot("test")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran2 {
		t.Fatal("expected the second stage to run once the first stage's product satisfies it")
	}
}
