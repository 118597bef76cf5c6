// Package pipeline implements the pipeline driver: an ordered list of
// stages run once per attribute, each declaring the signals it requires
// and produces, verified against the population of signals available
// before any stage runs.
package pipeline

import (
	"context"

	"github.com/wannadb/matchengine/internal/errors"
	"github.com/wannadb/matchengine/internal/interaction"
	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
	"github.com/wannadb/matchengine/internal/statistics"
)

// Stage is one step of the pipeline, run once per attribute.
type Stage interface {
	Name() string
	Requires() signal.Requirement
	Produces() signal.Requirement
	Run(ctx context.Context, base *model.DocumentBase, attr *model.Attribute, cb interaction.Callback, status interaction.StatusCallback, stats *statistics.Node) error
}

// Config carries the pipeline's cross-stage configuration: the stage list
// itself, the signals assumed present before any stage runs (typically
// whatever the extractor already attached, such as nugget text-embedding
// or document text), and a determinism seed for any stage whose behavior
// could otherwise depend on sampling.
type Config struct {
	Stages  []Stage
	Initial signal.Requirement
	Seed    int64
}

// Pipeline runs Config.Stages, in order, once per attribute of a
// DocumentBase, verifying every stage's Requires() against the signals
// known to be present before invoking any stage's Run.
type Pipeline struct {
	cfg Config
}

// New constructs a Pipeline from cfg.
func New(cfg Config) *Pipeline { return &Pipeline{cfg: cfg} }

// Run verifies the stage list's signal contracts, then executes it once
// per attribute in base.Attributes, in order. A verification failure
// aborts before any stage runs and leaves base untouched.
func (p *Pipeline) Run(ctx context.Context, base *model.DocumentBase, cb interaction.Callback, status interaction.StatusCallback, stats *statistics.Node) error {
	if err := p.verify(); err != nil {
		return err
	}
	for _, attr := range base.Attributes {
		attrStats := stats.Enter(attr.Name)
		for _, st := range p.cfg.Stages {
			if err := ctx.Err(); err != nil {
				return err
			}
			stageStats := attrStats.Enter(st.Name())
			if err := st.Run(ctx, base, attr, cb, status, stageStats); err != nil {
				return err
			}
		}
	}
	return nil
}

// verify checks that every stage's Requires() is satisfied by the
// Initial signal set plus whatever prior stages in the list declare they
// Produce, without running anything.
func (p *Pipeline) verify() error {
	known := make(map[string]bool)
	for _, id := range p.cfg.Initial.Identifiers() {
		known[id] = true
	}
	for _, st := range p.cfg.Stages {
		req := st.Requires()
		for _, id := range req.Identifiers() {
			if !known[id] {
				owner, _ := req.Owner(id)
				return &errors.MissingSignal{Stage: st.Name(), Owner: owner.String(), Signal: id}
			}
		}
		prod := st.Produces()
		for _, id := range prod.Identifiers() {
			known[id] = true
		}
	}
	return nil
}
