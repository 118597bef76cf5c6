// Package feedback implements the interactive feedback-round driver: the
// state machine that ranks a single attribute's candidate nuggets, asks a
// human to confirm or correct the best proposal, and tightens the distance
// threshold as answers accumulate.
package feedback

import (
	"context"

	"github.com/wannadb/matchengine/internal/celldecision"
	"github.com/wannadb/matchengine/internal/distance"
	"github.com/wannadb/matchengine/internal/errors"
	"github.com/wannadb/matchengine/internal/interaction"
	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
	"github.com/wannadb/matchengine/internal/threshold"
)

// State is a position in the feedback-round state machine:
// INIT -> RANKED -> ASKING -> UPDATED -> (RANKED | DONE).
type State int

const (
	StateInit State = iota
	StateRanked
	StateAsking
	StateUpdated
	StateDone
)

// Config bundles the driver's tunables.
type Config struct {
	Threshold       threshold.Config
	MaxFeedback     int // stop asking after this many answered rounds; 0 means unlimited
	AdjustThreshold bool
}

// DefaultConfig returns a driver configuration with the threshold
// adaptor's defaults and unlimited feedback rounds.
func DefaultConfig() Config {
	return Config{Threshold: threshold.DefaultConfig(), MaxFeedback: 0, AdjustThreshold: true}
}

// Driver runs one attribute's matching to completion. It is not safe for
// concurrent Run calls against the same base: attributes are matched
// strictly sequentially by the pipeline driver.
type Driver struct {
	base     *model.DocumentBase
	attr     *model.Attribute
	distFunc distance.Func
	cfg      Config

	state State
	tau   float64

	remaining []*model.Document // documents not yet confirmed/rejected, cached-distance ordered lazily
	dP, dN    []float64         // confirmed-positive / confirmed-negative distances, for the threshold adaptor
	asked     int
}

// New constructs a Driver for one attribute.
func New(base *model.DocumentBase, attr *model.Attribute, distFunc distance.Func, cfg Config) *Driver {
	return &Driver{base: base, attr: attr, distFunc: distFunc, cfg: cfg, tau: cfg.Threshold.DefaultTau, state: StateInit}
}

// Tau returns the driver's current threshold.
func (d *Driver) Tau() float64 { return d.tau }

// State returns the driver's current state.
func (d *Driver) State() State { return d.state }

// Run drives the state machine to completion: ranks every document,
// repeatedly asks about the best remaining proposal via cb, and finalizes
// every document's cell once no proposal remains or MaxFeedback is
// exhausted. Cancellation is checked at the start of each round and again
// once cb returns; on cancellation, Run returns an *errors.UserCancelled
// wrapping the context error but leaves every cell decided so far intact.
func (d *Driver) Run(ctx context.Context, cb interaction.Callback, status interaction.StatusCallback) error {
	if err := d.rankAll(ctx); err != nil {
		return err
	}
	d.state = StateRanked

	for d.state != StateDone {
		if err := ctx.Err(); err != nil {
			return &errors.UserCancelled{Attribute: d.attr.Name, Err: err}
		}
		if len(d.remaining) == 0 {
			break
		}
		if d.cfg.MaxFeedback > 0 && d.asked >= d.cfg.MaxFeedback {
			break
		}

		doc := d.nextDocument()
		req, ok := d.buildRequest(doc)
		if !ok {
			d.removeRemaining(doc)
			continue
		}

		d.state = StateAsking
		if status != nil {
			status("interactive-feedback", d.progress(), "awaiting answer for "+doc.Name)
		}
		answer, err := cb(ctx, req)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return &errors.UserCancelled{Attribute: d.attr.Name, Err: err}
		}

		d.asked++
		if err := d.applyAnswer(ctx, doc, req, answer); err != nil {
			return err
		}
		if answer.Kind == interaction.Stop {
			break
		}
		d.state = StateRanked
	}

	d.state = StateDone
	for _, doc := range d.base.Documents {
		celldecision.FinalizeCell(doc, d.base, d.tau)
	}
	if status != nil {
		status("interactive-feedback", 1.0, "finalized "+d.attr.Name)
	}
	return nil
}

// rankAll computes the initial per-document cell decision for every
// document against the attribute's label, populating remaining with every
// document that has at least one nugget.
func (d *Driver) rankAll(ctx context.Context) error {
	d.remaining = d.remaining[:0]
	for _, doc := range d.base.Documents {
		if len(doc.Nuggets()) == 0 {
			continue
		}
		res, err := celldecision.Decide(ctx, doc, d.attr, d.confirmedNuggets(), d.tau, d.distFunc)
		if err != nil {
			return err
		}
		res.Apply(d.base, doc)
		if !doc.Has("confirmed-match") {
			d.remaining = append(d.remaining, doc)
		}
	}
	return nil
}

// nextDocument implements the document-selection policy: the remaining
// document whose current best candidate has the smallest distance (the
// "best still-unconfirmed proposal").
func (d *Driver) nextDocument() *model.Document {
	best := d.remaining[0]
	bestDist := d.currentDistance(best)
	for _, doc := range d.remaining[1:] {
		if dv := d.currentDistance(doc); dv < bestDist {
			best, bestDist = doc, dv
		}
	}
	return best
}

func (d *Driver) currentDistance(doc *model.Document) float64 {
	v, ok := doc.Get("currently-highest-ranked")
	if !ok || v.Kind != signal.KindNuggetRef {
		return 1 << 30
	}
	nuggets := doc.Nuggets()
	if v.NuggetRef.NuggetIndex < 0 || v.NuggetRef.NuggetIndex >= len(nuggets) {
		return 1 << 30
	}
	dv, _ := nuggets[v.NuggetRef.NuggetIndex].RequireFloat("cached-distance")
	return dv
}

func (d *Driver) buildRequest(doc *model.Document) (interaction.Request, bool) {
	v, ok := doc.Get("currently-highest-ranked")
	if !ok || v.Kind != signal.KindNuggetRef {
		return interaction.Request{}, false
	}
	nuggets := doc.Nuggets()
	if v.NuggetRef.NuggetIndex < 0 || v.NuggetRef.NuggetIndex >= len(nuggets) {
		return interaction.Request{}, false
	}
	n := nuggets[v.NuggetRef.NuggetIndex]
	dv, _ := n.RequireFloat("cached-distance")
	return interaction.Request{
		Kind:          interaction.ConfirmProposal,
		AttributeName: d.attr.Name,
		DocumentName:  doc.Name,
		DocumentText:  doc.Text,
		Start:         n.Start,
		End:           n.End,
		Distance:      dv,
	}, true
}

func findNugget(doc *model.Document, start, end int) *model.Nugget {
	for _, n := range doc.Nuggets() {
		if n.Start == start && n.End == end {
			return n
		}
	}
	return nil
}

func (d *Driver) removeRemaining(doc *model.Document) {
	for i, r := range d.remaining {
		if r == doc {
			d.remaining = append(d.remaining[:i], d.remaining[i+1:]...)
			return
		}
	}
}

// applyAnswer implements the branches of matching.py's feedback loop: a
// confirm or custom span sets the document's confirmed-match and
// invalidates every other remaining document's cached distance so it is
// recomputed against the new confirmed positive; a reject only affects the
// answered document; no-match-in-document marks an empty cell; stop ends
// the round early without touching any other document.
func (d *Driver) applyAnswer(ctx context.Context, doc *model.Document, req interaction.Request, answer interaction.Answer) error {
	switch answer.Kind {
	case interaction.Stop:
		return nil

	case interaction.NoMatchInDocument:
		doc.Delete("currently-highest-ranked")
		d.removeRemaining(doc)
		if d.cfg.AdjustThreshold {
			d.dN = append(d.dN, req.Distance)
			d.tau = threshold.Adapt(d.dP, d.dN, d.cfg.Threshold)
		}
		return nil

	case interaction.Reject:
		if n := findNugget(doc, req.Start, req.End); n != nil {
			n.Set("rejected", signal.Flag(true))
		}
		d.dN = append(d.dN, req.Distance)
		if d.cfg.AdjustThreshold {
			d.tau = threshold.Adapt(d.dP, d.dN, d.cfg.Threshold)
		}
		res, err := celldecision.Decide(ctx, doc, d.attr, d.confirmedNuggets(), d.tau, d.distFunc)
		if err != nil {
			return err
		}
		res.Apply(d.base, doc)
		if res.Nugget == nil {
			// Every nugget in doc has now been rejected: nothing left to
			// propose, so the document drops out of the round the same way
			// NoMatchInDocument does.
			d.removeRemaining(doc)
		}
		return nil

	case interaction.Confirm:
		start, end := req.Start, req.End
		if answer.Start != answer.End {
			start, end = answer.Start, answer.End
		}
		return d.confirm(ctx, doc, start, end, req.Distance)

	case interaction.CustomSpan:
		n, err := doc.AddNugget(answer.CustomStart, answer.CustomEnd)
		if err != nil {
			return err
		}
		if d.distFunc != nil {
			if emb, ok := d.embedderOf(); ok {
				if vec, err := emb.Embed(ctx, n.Text()); err == nil {
					n.Set("text-embedding", signal.Vector(vec))
				}
			}
		}
		return d.confirm(ctx, doc, n.Start, n.End, 0)
	}
	return nil
}

func (d *Driver) confirm(ctx context.Context, doc *model.Document, start, end int, observedDist float64) error {
	confirmedNugget := findNugget(doc, start, end)
	if confirmedNugget == nil {
		return nil
	}
	confirmedNugget.Set("cached-distance", signal.Float(0))
	doc.Set("confirmed-match", signal.Ref(signal.NuggetRef{DocumentIndex: d.base.DocumentIndex(doc), NuggetIndex: confirmedNugget.Index()}))
	d.removeRemaining(doc)

	if d.cfg.AdjustThreshold {
		d.dP = append(d.dP, observedDist)
		d.tau = threshold.Adapt(d.dP, d.dN, d.cfg.Threshold)
	}

	// Invalidate and recompute the remaining documents' cached distances
	// against the newly confirmed positive (and, after this point, the
	// distance function itself will naturally consider it too).
	for _, other := range d.remaining {
		res, err := celldecision.Decide(ctx, other, d.attr, d.confirmedNuggets(), d.tau, d.distFunc)
		if err != nil {
			return err
		}
		res.Apply(d.base, other)
	}
	return nil
}

func (d *Driver) confirmedNuggets() []*model.Nugget {
	return d.base.ConfirmedNuggets()
}

func (d *Driver) embedderOf() (distance.Embedder, bool) {
	if cld, ok := d.distFunc.(distance.CosineLabelDistance); ok && cld.Embedder != nil {
		return cld.Embedder, true
	}
	if bld, ok := d.distFunc.(distance.BlendedDistance); ok && bld.Embedder != nil {
		return bld.Embedder, true
	}
	return nil, false
}

func (d *Driver) progress() float64 {
	total := len(d.base.Documents)
	if total == 0 {
		return 1
	}
	done := total - len(d.remaining)
	return float64(done) / float64(total)
}
