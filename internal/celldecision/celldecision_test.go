package celldecision

import (
	"context"
	"testing"

	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
)

func TestDecideReturnsEmptyForZeroNuggetDocument(t *testing.T) {
	doc := model.NewDocument("d1", "")
	attr := model.NewAttribute("attr", "label")
	res, err := Decide(context.Background(), doc, attr, nil, 0.35, fakeDistance{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Nugget != nil || res.WithinTau {
		t.Fatalf("expected empty cell, got %+v", res)
	}
}

func TestDecideRejectsAboveThreshold(t *testing.T) {
	doc := model.NewDocument("d1", "hello world")
	n1, _ := doc.AddNugget(0, 5)
	attr := model.NewAttribute("attr", "label")
	res, err := Decide(context.Background(), doc, attr, nil, 0.1, fakeDistance{dists: map[*model.Nugget]float64{n1: 0.5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.WithinTau {
		t.Fatal("expected distance 0.5 to exceed tau 0.1")
	}
	if res.Nugget != n1 {
		t.Fatal("expected the best candidate to still be reported even though it exceeds tau")
	}
}

func TestApplyAndFinalizeCell(t *testing.T) {
	base := model.NewDocumentBase()
	doc := model.NewDocument("d1", "hello world")
	base.AddDocument(doc)
	n1, _ := doc.AddNugget(0, 5)

	res := Result{Nugget: n1, Distance: 0.2, WithinTau: true}
	res.Apply(base, doc)

	if _, ok := n1.RequireFloat("cached-distance"); !ok {
		t.Fatal("expected cached-distance to be set on the winning nugget")
	}

	FinalizeCell(doc, base, 0.35)
	v, ok := doc.Get("confirmed-match")
	if !ok || v.Kind != signal.KindNuggetRef || v.NuggetRef.NuggetIndex != 0 {
		t.Fatalf("expected confirmed-match to accept the best guess within tau, got %+v ok=%v", v, ok)
	}
}

func TestFinalizeCellLeavesExplicitConfirmationAlone(t *testing.T) {
	base := model.NewDocumentBase()
	doc := model.NewDocument("d1", "hello world")
	base.AddDocument(doc)
	doc.AddNugget(0, 5)
	doc.Set("confirmed-match", signal.Ref(signal.NuggetRef{DocumentIndex: 0, NuggetIndex: 0}))

	FinalizeCell(doc, base, 0.0) // tau=0 would reject any guess-based acceptance
	v, ok := doc.Get("confirmed-match")
	if !ok || v.NuggetRef.NuggetIndex != 0 {
		t.Fatal("expected the explicit confirmation to survive FinalizeCell untouched")
	}
}

type fakeDistance struct {
	dists map[*model.Nugget]float64
}

func (f fakeDistance) Distance(_ context.Context, n *model.Nugget, _ *model.Attribute, _ []*model.Nugget) (float64, error) {
	return f.dists[n], nil
}
