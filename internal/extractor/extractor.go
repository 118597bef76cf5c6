// Package extractor defines the inbound extractor contract: whatever
// upstream process turns a document's raw text into candidate nuggets
// before the matching engine ever sees it. Only a deterministic test
// double ships here; a real NER/chunker extractor stage is out of scope
// for this module.
package extractor

import (
	"context"

	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
)

// Candidate is one span an Extractor proposes as a nugget.
type Candidate struct {
	Start, End int
	Provenance string
}

// Extractor proposes candidate nuggets for a document.
type Extractor interface {
	Extract(ctx context.Context, doc *model.Document) ([]Candidate, error)
}

// Fake is a deterministic Extractor used by tests and the bootstrap
// command: it finds every maximal run of characters other than space,
// newline and tab and proposes it as a candidate nugget, which is enough to
// synthesize a DocumentBase without a real NER service.
type Fake struct{}

// Extract implements Extractor.
func (Fake) Extract(_ context.Context, doc *model.Document) ([]Candidate, error) {
	var candidates []Candidate
	start := -1
	for i, r := range doc.Text {
		if r == ' ' || r == '\n' || r == '\t' {
			if start >= 0 {
				candidates = append(candidates, Candidate{Start: start, End: i, Provenance: "fake-extractor"})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		candidates = append(candidates, Candidate{Start: start, End: len(doc.Text), Provenance: "fake-extractor"})
	}
	return candidates, nil
}

// Apply runs ex over doc and appends every candidate as a nugget, tagging
// each with a provenance signal.
func Apply(ctx context.Context, ex Extractor, doc *model.Document) error {
	candidates, err := ex.Extract(ctx, doc)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		n, err := doc.AddNugget(c.Start, c.End)
		if err != nil {
			return err
		}
		n.Set("provenance", signal.Str(c.Provenance))
	}
	return nil
}
