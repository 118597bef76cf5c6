// Package model implements the core data model: Document, Nugget,
// Attribute and DocumentBase, plus the structural invariants the matching
// engine relies on.
package model

import (
	"fmt"

	"github.com/wannadb/matchengine/internal/signal"
)

// Document is an immutable piece of text together with the nuggets
// extracted from it. The nugget slice itself is append-only: a custom span
// answered during feedback is appended, existing nuggets are never removed
// or reordered.
type Document struct {
	Name string
	Text string

	signal.Map
	nuggets []*Nugget
}

// NewDocument constructs a Document with no nuggets yet.
func NewDocument(name, text string) *Document {
	return &Document{Name: name, Text: text}
}

// Nuggets returns the document's nuggets in insertion order. The returned
// slice is owned by the Document; callers must not mutate it.
func (d *Document) Nuggets() []*Nugget { return d.nuggets }

// AddNugget appends a new nugget spanning [start, end) of the document's
// text and returns it. It rejects out-of-range or empty spans.
func (d *Document) AddNugget(start, end int) (*Nugget, error) {
	if start < 0 || end > len(d.Text) || start >= end {
		return nil, fmt.Errorf("model: invalid nugget span [%d,%d) for document %q of length %d", start, end, d.Name, len(d.Text))
	}
	n := &Nugget{doc: d, docIndex: len(d.nuggets), Start: start, End: end}
	d.nuggets = append(d.nuggets, n)
	return n, nil
}

// Nugget is a (document, start, end) span. It holds a non-owning back
// reference to its document: a Nugget never keeps a DocumentBase alive, and
// a DocumentBase never keeps a Nugget's reverse pointer inconsistent,
// because docIndex is fixed at construction and nuggets are append-only.
type Nugget struct {
	doc      *Document
	docIndex int

	signal.Map
	Start, End int
}

// Document returns the nugget's owning document.
func (n *Nugget) Document() *Document { return n.doc }

// Index returns the nugget's position within its document's nugget slice.
func (n *Nugget) Index() int { return n.docIndex }

// Text returns the nugget's surface text, derived from its span.
func (n *Nugget) Text() string {
	if n.doc == nil {
		return ""
	}
	return n.doc.Text[n.Start:n.End]
}

// Attribute is a named column of a DocumentBase, seeded by a label signal.
type Attribute struct {
	Name string
	signal.Map
}

// NewAttribute constructs an Attribute with the given label seed text.
func NewAttribute(name, label string) *Attribute {
	a := &Attribute{Name: name}
	a.Set("label", signal.Str(label))
	return a
}

// DocumentBase is an ordered set of attributes and an ordered set of
// documents. Attribute names and document names are each required to be
// unique within a base.
type DocumentBase struct {
	Attributes []*Attribute
	Documents  []*Document
}

// NewDocumentBase constructs an empty DocumentBase.
func NewDocumentBase() *DocumentBase {
	return &DocumentBase{}
}

// AddAttribute appends attr, rejecting a duplicate name.
func (b *DocumentBase) AddAttribute(attr *Attribute) error {
	for _, a := range b.Attributes {
		if a.Name == attr.Name {
			return fmt.Errorf("model: duplicate attribute name %q", attr.Name)
		}
	}
	b.Attributes = append(b.Attributes, attr)
	return nil
}

// AddDocument appends doc, rejecting a duplicate name.
func (b *DocumentBase) AddDocument(doc *Document) error {
	for _, d := range b.Documents {
		if d.Name == doc.Name {
			return fmt.Errorf("model: duplicate document name %q", doc.Name)
		}
	}
	b.Documents = append(b.Documents, doc)
	return nil
}

// DocumentIndex returns the position of doc within b.Documents, or -1 if
// doc does not belong to b.
func (b *DocumentBase) DocumentIndex(doc *Document) int {
	for i, d := range b.Documents {
		if d == doc {
			return i
		}
	}
	return -1
}

// AttributeByName returns the attribute with the given name, or nil.
func (b *DocumentBase) AttributeByName(name string) *Attribute {
	for _, a := range b.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Validate performs the single consistency pass described for the matching
// engine: every nugget's span is in range of its document's text (always
// true by construction via AddNugget, re-checked here defensively for
// bases assembled directly through the struct literal, e.g. in tests or
// after a decode), attribute and document names are unique, and every
// nugget's back-reference and docIndex match its actual document and its
// position within that document's nugget slice.
func (b *DocumentBase) Validate() error {
	seenAttr := make(map[string]bool, len(b.Attributes))
	for _, a := range b.Attributes {
		if seenAttr[a.Name] {
			return fmt.Errorf("model: duplicate attribute name %q", a.Name)
		}
		seenAttr[a.Name] = true
	}
	seenDoc := make(map[string]bool, len(b.Documents))
	for docIdx, d := range b.Documents {
		if seenDoc[d.Name] {
			return fmt.Errorf("model: duplicate document name %q", d.Name)
		}
		seenDoc[d.Name] = true
		for nuggetIdx, n := range d.nuggets {
			if n.Start < 0 || n.End > len(d.Text) || n.Start >= n.End {
				return fmt.Errorf("model: nugget %d of document %q has invalid span [%d,%d)", nuggetIdx, d.Name, n.Start, n.End)
			}
			if n.doc != d || n.docIndex != nuggetIdx {
				return fmt.Errorf("model: nugget %d of document %q has inconsistent back-reference", nuggetIdx, d.Name)
			}
		}
		_ = docIdx
	}
	return nil
}

// ConfirmedNuggets returns the confirmed-match nugget for each document in
// b that has one set, in document order. Used by the distance function to
// compute distance-to-nearest-confirmed-positive.
func (b *DocumentBase) ConfirmedNuggets() []*Nugget {
	var out []*Nugget
	for _, d := range b.Documents {
		v, ok := d.Get("confirmed-match")
		if !ok || v.Kind != signal.KindNuggetRef {
			continue
		}
		if v.NuggetRef.NuggetIndex < 0 || v.NuggetRef.NuggetIndex >= len(d.nuggets) {
			continue
		}
		out = append(out, d.nuggets[v.NuggetRef.NuggetIndex])
	}
	return out
}
