package pipeline

import (
	"context"

	"github.com/wannadb/matchengine/internal/celldecision"
	"github.com/wannadb/matchengine/internal/distance"
	"github.com/wannadb/matchengine/internal/feedback"
	"github.com/wannadb/matchengine/internal/interaction"
	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
	"github.com/wannadb/matchengine/internal/statistics"
)

// EmbedAttributeStage embeds every nugget's text and the attribute's label,
// for nuggets and attributes that don't already carry the signal (e.g.
// from a prior attribute's run, or from the extractor).
type EmbedAttributeStage struct {
	Embedder distance.Embedder
}

func (EmbedAttributeStage) Name() string { return "Embed Attribute" }

func (EmbedAttributeStage) Requires() signal.Requirement { return signal.Requirement{} }

func (EmbedAttributeStage) Produces() signal.Requirement {
	return signal.NewRequirement(signal.OwnerNugget, "text-embedding")
}

func (s EmbedAttributeStage) Run(ctx context.Context, base *model.DocumentBase, attr *model.Attribute, _ interaction.Callback, status interaction.StatusCallback, stats *statistics.Node) error {
	embedded := 0
	for _, doc := range base.Documents {
		for _, n := range doc.Nuggets() {
			if n.Has("text-embedding") {
				continue
			}
			vec, err := s.Embedder.Embed(ctx, n.Text())
			if err != nil {
				return err
			}
			n.Set("text-embedding", signal.Vector(vec))
			embedded++
		}
	}
	if !attr.Has("label-embedding") {
		label, _ := attr.Get("label")
		vec, err := s.Embedder.Embed(ctx, label.String)
		if err != nil {
			return err
		}
		attr.Set("label-embedding", signal.Vector(vec))
	}
	stats.Record("nuggets_embedded", embedded)
	if status != nil {
		status("Embed Attribute", 1.0, attr.Name)
	}
	return nil
}

// ComputeInitialDistancesStage computes every document's initial cell
// decision against the attribute's label, before any feedback is
// collected.
type ComputeInitialDistancesStage struct {
	Distance distance.Func
	Tau      float64
}

func (ComputeInitialDistancesStage) Name() string { return "Compute Initial Distances" }

func (ComputeInitialDistancesStage) Requires() signal.Requirement {
	return signal.NewRequirement(signal.OwnerNugget, "text-embedding")
}

func (ComputeInitialDistancesStage) Produces() signal.Requirement {
	return signal.NewRequirement(signal.OwnerNugget, "cached-distance")
}

func (s ComputeInitialDistancesStage) Run(ctx context.Context, base *model.DocumentBase, attr *model.Attribute, _ interaction.Callback, status interaction.StatusCallback, stats *statistics.Node) error {
	decided := 0
	for _, doc := range base.Documents {
		res, err := celldecision.Decide(ctx, doc, attr, nil, s.Tau, s.Distance)
		if err != nil {
			return err
		}
		res.Apply(base, doc)
		decided++
	}
	stats.Record("documents_ranked", decided)
	if status != nil {
		status("Compute Initial Distances", 1.0, attr.Name)
	}
	return nil
}

// InteractiveFeedbackLoopStage runs the feedback driver to completion for
// one attribute.
type InteractiveFeedbackLoopStage struct {
	Distance distance.Func
	Config   feedback.Config
}

func (InteractiveFeedbackLoopStage) Name() string { return "Interactive Feedback Loop" }

func (InteractiveFeedbackLoopStage) Requires() signal.Requirement {
	return signal.NewRequirement(signal.OwnerNugget, "cached-distance")
}

func (InteractiveFeedbackLoopStage) Produces() signal.Requirement {
	return signal.NewRequirement(signal.OwnerDocument, "confirmed-match")
}

func (s InteractiveFeedbackLoopStage) Run(ctx context.Context, base *model.DocumentBase, attr *model.Attribute, cb interaction.Callback, status interaction.StatusCallback, stats *statistics.Node) error {
	driver := feedback.New(base, attr, s.Distance, s.Config)
	if err := driver.Run(ctx, cb, status); err != nil {
		return err
	}
	stats.Record("final_tau", driver.Tau())
	return nil
}

// FinalizeCellsStage is a no-op by the time InteractiveFeedbackLoopStage
// has run (it already finalizes every cell before returning); it exists as
// its own named stage so the pipeline's four-stage contract from the
// specification is explicit and independently reportable in statistics,
// and so a caller assembling a custom pipeline without the feedback loop
// (e.g. a cold, no-questions-asked run) still gets cells finalized.
type FinalizeCellsStage struct {
	Tau float64
}

func (FinalizeCellsStage) Name() string { return "Finalize Cells" }

func (FinalizeCellsStage) Requires() signal.Requirement {
	return signal.NewRequirement(signal.OwnerNugget, "cached-distance")
}

func (FinalizeCellsStage) Produces() signal.Requirement {
	return signal.NewRequirement(signal.OwnerDocument, "confirmed-match")
}

func (s FinalizeCellsStage) Run(_ context.Context, base *model.DocumentBase, attr *model.Attribute, _ interaction.Callback, status interaction.StatusCallback, stats *statistics.Node) error {
	finalized := 0
	for _, doc := range base.Documents {
		celldecision.FinalizeCell(doc, base, s.Tau)
		finalized++
	}
	stats.Record("documents_finalized", finalized)
	if status != nil {
		status("Finalize Cells", 1.0, attr.Name)
	}
	return nil
}
