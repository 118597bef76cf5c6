// Package distance implements the effective-distance computation between a
// nugget and an attribute: cosine distance to the attribute's label
// embedding, tightened to the nearest confirmed-positive nugget once one
// exists.
package distance

import (
	"context"
	"math"
	"sort"

	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
)

// Func computes the distance between a nugget and an attribute, given the
// current set of confirmed-positive nuggets across the document base.
// Implementations must be pure functions of their inputs so the feedback
// driver's caching and the determinism law hold.
type Func interface {
	Distance(ctx context.Context, n *model.Nugget, a *model.Attribute, confirmed []*model.Nugget) (float64, error)
}

// Embedder produces a dense embedding for arbitrary text. It is satisfied
// by internal/embedder.Provider; distance depends only on this narrow
// interface to avoid an import cycle with the resource manager.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CosineLabelDistance is the production Func: cos_d between a nugget's
// text-embedding and its attribute's label-embedding, tightened by the
// minimum cosine distance to any confirmed-positive nugget's
// text-embedding. The label embedding is produced lazily on first use and
// cached on the attribute's signal map.
type CosineLabelDistance struct {
	Embedder Embedder
}

// Distance implements Func.
func (d CosineLabelDistance) Distance(ctx context.Context, n *model.Nugget, a *model.Attribute, confirmed []*model.Nugget) (float64, error) {
	nv, ok := n.RequireVector("text-embedding")
	if !ok {
		return 0, &missingSignalErr{owner: "nugget", identifier: "text-embedding"}
	}
	labelVec, err := d.labelEmbedding(ctx, a)
	if err != nil {
		return 0, err
	}

	best := cosD(nv, labelVec)
	for _, c := range confirmed {
		cv, ok := c.RequireVector("text-embedding")
		if !ok {
			continue
		}
		if d2 := cosD(nv, cv); d2 < best {
			best = d2
		}
	}
	return best, nil
}

func (d CosineLabelDistance) labelEmbedding(ctx context.Context, a *model.Attribute) ([]float32, error) {
	if v, ok := a.RequireVector("label-embedding"); ok {
		return v, nil
	}
	label, ok := a.Get("label")
	if !ok || label.Kind != signal.KindString {
		return nil, &missingSignalErr{owner: "attribute", identifier: "label"}
	}
	if d.Embedder == nil {
		return nil, &missingSignalErr{owner: "attribute", identifier: "label-embedding"}
	}
	vec, err := d.Embedder.Embed(ctx, label.String)
	if err != nil {
		return nil, err
	}
	a.Set("label-embedding", signal.Vector(vec))
	return vec, nil
}

// cosD is cosine distance, 1 - cosine_similarity, clamped to [0, 2].
// Mismatched-length or zero-magnitude inputs are treated as maximally
// distant rather than erroring: a distance function must be total over
// any pair of embeddings the pipeline hands it.
func cosD(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 2
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	d := 1 - sim
	if d < 0 {
		return 0
	}
	if d > 2 {
		return 2
	}
	return d
}

type missingSignalErr struct {
	owner      string
	identifier string
}

func (e *missingSignalErr) Error() string {
	return "distance: missing signal " + e.identifier + " on " + e.owner
}

// BlendedDistance averages cosine distance across whichever of
// text-embedding, context-embedding and label-embedding are present on
// both sides, normalizing by the count actually present. It is an optional
// Func for callers with richer extractor output; CosineLabelDistance
// remains the default.
type BlendedDistance struct {
	Embedder Embedder
}

// Distance implements Func.
func (d BlendedDistance) Distance(ctx context.Context, n *model.Nugget, a *model.Attribute, confirmed []*model.Nugget) (float64, error) {
	base := CosineLabelDistance{Embedder: d.Embedder}
	total, count := 0.0, 0

	if nv, ok := n.RequireVector("text-embedding"); ok {
		if lv, err := base.labelEmbedding(ctx, a); err == nil {
			total += cosD(nv, lv)
			count++
		}
	}
	if nv, ok := n.RequireVector("context-embedding"); ok {
		if lv, ok := a.RequireVector("label-embedding"); ok {
			total += cosD(nv, lv)
			count++
		}
	}
	if count == 0 {
		return base.Distance(ctx, n, a, confirmed)
	}

	mean := total / float64(count)
	for _, c := range confirmed {
		if nv, ok := n.RequireVector("text-embedding"); ok {
			if cv, ok := c.RequireVector("text-embedding"); ok {
				if d2 := cosD(nv, cv); d2 < mean {
					mean = d2
				}
			}
		}
	}
	return mean, nil
}

// RankNuggets sorts a document's nuggets by ascending distance to attr,
// breaking ties by nugget offset. Nuggets carrying the rejected signal are
// left out entirely: a user rejection of a nugget only forbids that nugget
// within its own document, never other documents' candidates for the same
// attribute. It is a shared helper for celldecision and the feedback
// driver's document-selection policy.
func RankNuggets(ctx context.Context, doc *model.Document, attr *model.Attribute, confirmed []*model.Nugget, f Func) ([]*model.Nugget, []float64, error) {
	var nuggets []*model.Nugget
	for _, n := range doc.Nuggets() {
		if v, ok := n.Get("rejected"); ok && v.Kind == signal.KindBool && v.Bool {
			continue
		}
		nuggets = append(nuggets, n)
	}
	dists := make([]float64, len(nuggets))
	for i, n := range nuggets {
		dv, err := f.Distance(ctx, n, attr, confirmed)
		if err != nil {
			return nil, nil, err
		}
		dists[i] = dv
	}
	order := make([]int, len(nuggets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if dists[order[i]] != dists[order[j]] {
			return dists[order[i]] < dists[order[j]]
		}
		return nuggets[order[i]].Start < nuggets[order[j]].Start
	})
	rankedNuggets := make([]*model.Nugget, len(order))
	rankedDists := make([]float64, len(order))
	for i, idx := range order {
		rankedNuggets[i] = nuggets[idx]
		rankedDists[i] = dists[idx]
	}
	return rankedNuggets, rankedDists, nil
}
