// Package signal implements the dynamic signal map attached to documents,
// nuggets and attributes: typed side-data keyed by a signal identifier,
// with a registry that declares each identifier's value kind and whether it
// survives persistence.
package signal

import "fmt"

// Kind discriminates the payload carried by a Value.
type Kind byte

const (
	KindFloat64   Kind = iota // a scalar distance or score
	KindInt64                 // a scalar count or offset
	KindVector                // a dense embedding, []float32
	KindString                // free text, e.g. a provenance tag
	KindBytes                 // opaque bytes, used for forward-compatible unknown kinds
	KindNuggetRef             // a reference to another nugget: (document index, nugget index)
	KindBool                  // a boolean flag, e.g. rejected
)

// NuggetRef identifies a nugget by its owning document's position in the
// DocumentBase and its own position within that document's nugget slice.
type NuggetRef struct {
	DocumentIndex int
	NuggetIndex   int
}

// Value is a tagged union over the signal payload kinds. Exactly one field
// is meaningful for a given Kind; the rest are zero.
type Value struct {
	Kind      Kind
	Float64   float64
	Int64     int64
	Vector    []float32
	String    string
	Bytes     []byte
	NuggetRef NuggetRef
	Bool      bool
}

func Float(v float64) Value    { return Value{Kind: KindFloat64, Float64: v} }
func Int(v int64) Value        { return Value{Kind: KindInt64, Int64: v} }
func Vector(v []float32) Value { return Value{Kind: KindVector, Vector: v} }
func Str(v string) Value       { return Value{Kind: KindString, String: v} }
func Raw(v []byte) Value       { return Value{Kind: KindBytes, Bytes: v} }
func Ref(v NuggetRef) Value    { return Value{Kind: KindNuggetRef, NuggetRef: v} }
func Flag(v bool) Value        { return Value{Kind: KindBool, Bool: v} }

// Equal reports whether two values carry the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindFloat64:
		return v.Float64 == other.Float64
	case KindInt64:
		return v.Int64 == other.Int64
	case KindVector:
		return vectorEqual(v.Vector, other.Vector)
	case KindString:
		return v.String == other.String
	case KindBytes:
		return string(v.Bytes) == string(other.Bytes)
	case KindNuggetRef:
		return v.NuggetRef == other.NuggetRef
	case KindBool:
		return v.Bool == other.Bool
	default:
		return false
	}
}

func vectorEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Owner is the kind of entity a signal identifier is declared on.
type Owner byte

const (
	OwnerDocument Owner = iota
	OwnerNugget
	OwnerAttribute
)

// Descriptor declares the metadata the registry tracks for one signal
// identifier.
type Descriptor struct {
	Identifier string
	Owner      Owner
	Kind       Kind
	Transient  bool // dropped by persistence.Encode
}

// Registry recognizes a fixed set of well-known signal identifiers plus
// whatever additional identifiers callers declare. Unknown identifiers
// encountered on a Map are passed through persistence unchanged, per the
// forward-compatibility requirement: the registry only decides transience
// for identifiers it knows about, everything else defaults to persistent.
type Registry struct {
	descriptors map[string]Descriptor
}

// NewRegistry returns a registry pre-populated with the well-known
// identifiers used by the matching engine itself.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[string]Descriptor)}
	for _, d := range []Descriptor{
		{Identifier: "label", Owner: OwnerAttribute, Kind: KindString, Transient: false},
		{Identifier: "text-embedding", Owner: OwnerNugget, Kind: KindVector, Transient: false},
		{Identifier: "context-embedding", Owner: OwnerNugget, Kind: KindVector, Transient: false},
		{Identifier: "label-embedding", Owner: OwnerAttribute, Kind: KindVector, Transient: false},
		{Identifier: "cached-distance", Owner: OwnerNugget, Kind: KindFloat64, Transient: true},
		{Identifier: "currently-highest-ranked", Owner: OwnerDocument, Kind: KindNuggetRef, Transient: true},
		{Identifier: "confirmed-match", Owner: OwnerDocument, Kind: KindNuggetRef, Transient: false},
		{Identifier: "provenance", Owner: OwnerNugget, Kind: KindString, Transient: false},
		{Identifier: "rejected", Owner: OwnerNugget, Kind: KindBool, Transient: true},
	} {
		r.descriptors[d.Identifier] = d
	}
	return r
}

// Declare registers an additional identifier, e.g. one an extractor
// introduces. Declaring an already-known identifier replaces its
// descriptor, whatever its kind; no conflict is reported.
func (r *Registry) Declare(d Descriptor) { r.descriptors[d.Identifier] = d }

// Lookup returns the descriptor for an identifier and whether it is known.
func (r *Registry) Lookup(identifier string) (Descriptor, bool) {
	d, ok := r.descriptors[identifier]
	return d, ok
}

// IsTransient reports whether a signal identifier should be dropped at
// persistence time. Unknown identifiers are treated as persistent.
func (r *Registry) IsTransient(identifier string) bool {
	d, ok := r.descriptors[identifier]
	return ok && d.Transient
}

// Map is the signal container embedded in Document, Nugget and Attribute.
// It is a thin ordered wrapper over a map so Identifiers reports signals
// in insertion order.
type Map struct {
	values map[string]Value
	order  []string
}

// Set stores a value under identifier, overwriting any existing value.
func (m *Map) Set(identifier string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, exists := m.values[identifier]; !exists {
		m.order = append(m.order, identifier)
	}
	m.values[identifier] = v
}

// Get returns the value stored under identifier and whether it is present.
func (m *Map) Get(identifier string) (Value, bool) {
	v, ok := m.values[identifier]
	return v, ok
}

// Has reports whether identifier is present.
func (m *Map) Has(identifier string) bool {
	_, ok := m.values[identifier]
	return ok
}

// Delete removes identifier, if present.
func (m *Map) Delete(identifier string) {
	if _, ok := m.values[identifier]; !ok {
		return
	}
	delete(m.values, identifier)
	for i, id := range m.order {
		if id == identifier {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Identifiers returns the signal identifiers present, in insertion order.
func (m *Map) Identifiers() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len reports the number of signals present.
func (m *Map) Len() int { return len(m.values) }

// RequireFloat is a convenience accessor used by the distance and
// celldecision packages; it returns a MissingSignal-shaped error via the
// caller rather than panicking, by returning ok=false.
func (m *Map) RequireFloat(identifier string) (float64, bool) {
	v, ok := m.Get(identifier)
	if !ok || v.Kind != KindFloat64 {
		return 0, false
	}
	return v.Float64, true
}

// RequireVector returns the []float32 stored under identifier, if present
// and of the right kind.
func (m *Map) RequireVector(identifier string) ([]float32, bool) {
	v, ok := m.Get(identifier)
	if !ok || v.Kind != KindVector {
		return nil, false
	}
	return v.Vector, true
}

// Requirement is a set of (owner, identifier) pairs a pipeline stage needs
// present (Requires) or promises to add (Produces).
type Requirement struct {
	pairs map[string]Owner
}

// NewRequirement builds a Requirement from a variadic list of identifiers,
// all declared against the same owner kind.
func NewRequirement(owner Owner, identifiers ...string) Requirement {
	r := Requirement{pairs: make(map[string]Owner, len(identifiers))}
	for _, id := range identifiers {
		r.pairs[id] = owner
	}
	return r
}

// Identifiers returns the identifiers named by the requirement.
func (r Requirement) Identifiers() []string {
	out := make([]string, 0, len(r.pairs))
	for id := range r.pairs {
		out = append(out, id)
	}
	return out
}

// Owner returns the owner kind declared for identifier.
func (r Requirement) Owner(identifier string) (Owner, bool) {
	o, ok := r.pairs[identifier]
	return o, ok
}

func (o Owner) String() string {
	switch o {
	case OwnerDocument:
		return "document"
	case OwnerNugget:
		return "nugget"
	case OwnerAttribute:
		return "attribute"
	default:
		return fmt.Sprintf("owner(%d)", o)
	}
}
