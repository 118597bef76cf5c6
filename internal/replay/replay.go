// Package replay implements a deterministic fixture-driven harness for the
// feedback driver: a scripted sequence of answers is replayed against a
// DocumentBase built from a JSON fixture, entirely in-memory, so the
// determinism and idempotence laws are mechanically checkable, matching
// the isomorphic replay-a-fixed-interaction-sequence convention used
// elsewhere in this ecosystem for asserting pipeline determinism.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/wannadb/matchengine/internal/distance"
	"github.com/wannadb/matchengine/internal/embedder"
	"github.com/wannadb/matchengine/internal/feedback"
	"github.com/wannadb/matchengine/internal/interaction"
	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
	"github.com/wannadb/matchengine/internal/threshold"
)

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string             `json:"description"`
	Documents   []FixtureDocument  `json:"documents"`
	Attribute   FixtureAttribute   `json:"attribute"`
	Embeddings  map[string][]float32 `json:"embeddings"`
	Answers     []FixtureAnswer    `json:"answers"`
	Config      FixtureConfig      `json:"config"`
}

// FixtureDocument is one document's name and text.
type FixtureDocument struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// FixtureAttribute is the attribute under test.
type FixtureAttribute struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// FixtureAnswer is one scripted answer, matched to the document the
// feedback driver is currently asking about by name.
type FixtureAnswer struct {
	DocumentName string `json:"document_name"`
	Kind         string `json:"kind"` // "confirm" | "reject" | "custom-span" | "no-match" | "stop"
	Start        int    `json:"start,omitempty"`
	End          int    `json:"end,omitempty"`
	CustomStart  int    `json:"custom_start,omitempty"`
	CustomEnd    int    `json:"custom_end,omitempty"`
}

// FixtureConfig mirrors feedback.Config and threshold.Config with JSON
// tags.
type FixtureConfig struct {
	DefaultTau      float64 `json:"default_tau"`
	AdjustThreshold bool    `json:"adjust_threshold"`
	MaxFeedback     int     `json:"max_feedback"`
}

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("replay: parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Result captures the outcome of replaying a fixture.
type Result struct {
	FinalTau      float64
	Confirmed     map[string][2]int // document name -> [start, end), absent if no confirmed match
	AnswersServed int
}

// buildBase constructs a DocumentBase and attribute from a Fixture,
// turning every document's space-delimited tokens into nuggets so the
// fixture doesn't need to spell out offsets for every word. Run embeds
// those nuggets afterwards.
func buildBase(f *Fixture) (*model.DocumentBase, *model.Attribute, error) {
	base := model.NewDocumentBase()
	attr := model.NewAttribute(f.Attribute.Name, f.Attribute.Label)
	if err := base.AddAttribute(attr); err != nil {
		return nil, nil, err
	}
	for _, fd := range f.Documents {
		doc := model.NewDocument(fd.Name, fd.Text)
		start := -1
		for i, r := range fd.Text {
			if r == ' ' {
				if start >= 0 {
					if _, err := doc.AddNugget(start, i); err != nil {
						return nil, nil, err
					}
					start = -1
				}
				continue
			}
			if start < 0 {
				start = i
			}
		}
		if start >= 0 {
			if _, err := doc.AddNugget(start, len(fd.Text)); err != nil {
				return nil, nil, err
			}
		}
		if err := base.AddDocument(doc); err != nil {
			return nil, nil, err
		}
	}
	return base, attr, nil
}

// Run replays f's scripted answers against a freshly built DocumentBase
// and returns the final per-document confirmed matches and threshold.
func Run(ctx context.Context, f *Fixture) (Result, error) {
	base, attr, err := buildBase(f)
	if err != nil {
		return Result{}, err
	}

	stub := embedder.NewStub(0)
	for text, vec := range f.Embeddings {
		stub.Register(text, vec)
	}
	dist := distance.CosineLabelDistance{Embedder: stub}

	// Give every nugget its text-embedding from the fixture's vectors, so
	// the distance function has one to compare against the label.
	for _, doc := range base.Documents {
		for _, n := range doc.Nuggets() {
			vec, err := stub.Embed(ctx, n.Text())
			if err != nil {
				return Result{}, fmt.Errorf("replay: embed nugget %q: %w", n.Text(), err)
			}
			n.Set("text-embedding", signal.Vector(vec))
		}
	}

	cfg := feedback.Config{
		Threshold:       threshold.Config{DefaultTau: f.Config.DefaultTau},
		MaxFeedback:     f.Config.MaxFeedback,
		AdjustThreshold: f.Config.AdjustThreshold,
	}
	driver := feedback.New(base, attr, dist, cfg)

	served := 0
	cb := func(_ context.Context, req interaction.Request) (interaction.Answer, error) {
		for i := served; i < len(f.Answers); i++ {
			a := f.Answers[i]
			if a.DocumentName != req.DocumentName {
				continue
			}
			served = i + 1
			return toAnswer(a), nil
		}
		return interaction.Answer{Kind: interaction.Stop}, nil
	}

	if err := driver.Run(ctx, cb, nil); err != nil {
		return Result{}, err
	}

	result := Result{FinalTau: driver.Tau(), Confirmed: make(map[string][2]int), AnswersServed: served}
	for _, doc := range base.Documents {
		v, ok := doc.Get("confirmed-match")
		if !ok {
			continue
		}
		nuggets := doc.Nuggets()
		if v.NuggetRef.NuggetIndex < 0 || v.NuggetRef.NuggetIndex >= len(nuggets) {
			continue
		}
		n := nuggets[v.NuggetRef.NuggetIndex]
		result.Confirmed[doc.Name] = [2]int{n.Start, n.End}
	}
	return result, nil
}

func toAnswer(a FixtureAnswer) interaction.Answer {
	switch a.Kind {
	case "confirm":
		return interaction.Answer{Kind: interaction.Confirm, Start: a.Start, End: a.End}
	case "reject":
		return interaction.Answer{Kind: interaction.Reject}
	case "custom-span":
		return interaction.Answer{Kind: interaction.CustomSpan, CustomStart: a.CustomStart, CustomEnd: a.CustomEnd}
	case "no-match":
		return interaction.Answer{Kind: interaction.NoMatchInDocument}
	default:
		return interaction.Answer{Kind: interaction.Stop}
	}
}
