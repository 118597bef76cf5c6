// Package celldecision implements the per-document cell decision: given a
// document, an attribute and the current confirmed set, pick the
// minimum-distance nugget and decide whether it clears the threshold.
package celldecision

import (
	"context"

	"github.com/wannadb/matchengine/internal/distance"
	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
)

// Result is the outcome of deciding one document's cell for one attribute.
type Result struct {
	Nugget    *model.Nugget // nil only if the document has no nugget left that is not rejected
	Distance  float64
	WithinTau bool
}

// Decide picks the minimum-distance nugget in doc for attr given the
// current confirmed set, and reports whether it is within tau. A
// zero-nugget document, or one whose every nugget has been rejected,
// decides to an empty cell immediately.
func Decide(ctx context.Context, doc *model.Document, attr *model.Attribute, confirmed []*model.Nugget, tau float64, f distance.Func) (Result, error) {
	if len(doc.Nuggets()) == 0 {
		return Result{}, nil
	}
	ranked, dists, err := distance.RankNuggets(ctx, doc, attr, confirmed, f)
	if err != nil {
		return Result{}, err
	}
	if len(ranked) == 0 {
		return Result{}, nil
	}
	best, bestDist := ranked[0], dists[0]
	return Result{Nugget: best, Distance: bestDist, WithinTau: bestDist <= tau}, nil
}

// Apply writes the outcome of Decide onto doc's signal map: the transient
// currently-highest-ranked pointer always reflects the best candidate
// (even when it falls outside tau, so the feedback driver can still
// present it), and cached-distance is written onto the winning nugget.
func (r Result) Apply(base *model.DocumentBase, doc *model.Document) {
	docIdx := base.DocumentIndex(doc)
	if r.Nugget == nil {
		doc.Delete("currently-highest-ranked")
		return
	}
	doc.Set("currently-highest-ranked", signal.Ref(signal.NuggetRef{DocumentIndex: docIdx, NuggetIndex: r.Nugget.Index()}))
	r.Nugget.Set("cached-distance", signal.Float(r.Distance))
}

// FinalizeCell decides the document's confirmed-match cell once the
// feedback loop is done with it: if it already has a confirmed-match
// signal (from an explicit answer), leave it; otherwise accept the current
// best guess if it is within tau, else leave the cell empty.
func FinalizeCell(doc *model.Document, base *model.DocumentBase, tau float64) {
	if doc.Has("confirmed-match") {
		return
	}
	v, ok := doc.Get("currently-highest-ranked")
	if !ok || v.Kind != signal.KindNuggetRef {
		return
	}
	nuggets := doc.Nuggets()
	if v.NuggetRef.NuggetIndex < 0 || v.NuggetRef.NuggetIndex >= len(nuggets) {
		return
	}
	n := nuggets[v.NuggetRef.NuggetIndex]
	dv, ok := n.RequireFloat("cached-distance")
	if !ok || dv > tau {
		return
	}
	doc.Set("confirmed-match", v)
}
