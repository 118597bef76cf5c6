// Package persistence implements the DocumentBase codec: a self-describing
// binary container such that decode(encode(x)) == x modulo transient
// signals. Signals travel as Go maps, so the order in which the binary
// format writes an entity's signals is not fixed from one Encode to the
// next; the JSON variant writes them sorted by identifier. No BSON, msgpack or cbor library is available in this
// module's dependency set, so the binary format is built on encoding/gob,
// matching the gob-based persistence approach used elsewhere in this
// ecosystem for the same kind of problem (a self-describing, schema-free
// container for a changing set of signal kinds).
package persistence

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wannadb/matchengine/internal/errors"
	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/signal"
)

// wireBase is the top-level shape of both the binary and JSON formats:
// attributes then documents, each carrying their own signals.
type wireBase struct {
	Attributes []wireAttribute `json:"attributes"`
	Documents  []wireDocument  `json:"documents"`
}

type wireAttribute struct {
	Name    string                  `json:"name"`
	Signals map[string]signal.Value `json:"signals"`
}

type wireDocument struct {
	Name    string                  `json:"name"`
	Text    string                  `json:"text"`
	Signals map[string]signal.Value `json:"signals"`
	Nuggets []wireNugget            `json:"nuggets"`
}

type wireNugget struct {
	Start   int                     `json:"start"`
	End     int                     `json:"end"`
	Signals map[string]signal.Value `json:"signals"`
}

// Encode serializes base into the binary round-trip format, dropping every
// signal the registry marks transient.
func Encode(base *model.DocumentBase, registry *signal.Registry) ([]byte, error) {
	wb := toWire(base, registry)
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wb); err != nil {
		return nil, &errors.PersistenceError{Op: "encode", Err: err}
	}
	return buf.Bytes(), nil
}

// Decode parses the binary format produced by Encode into a fresh
// DocumentBase.
func Decode(data []byte) (*model.DocumentBase, error) {
	var wb wireBase
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wb); err != nil {
		return nil, &errors.PersistenceError{Op: "decode", Err: err}
	}
	return fromWire(wb)
}

// EncodeJSON serializes base into the human-readable JSON variant, used by
// the inspect command and for authoring fixtures. It is not the binary
// format of record.
func EncodeJSON(base *model.DocumentBase, registry *signal.Registry) ([]byte, error) {
	wb := toWire(base, registry)
	data, err := json.MarshalIndent(wb, "", "  ")
	if err != nil {
		return nil, &errors.PersistenceError{Op: "encode", Err: err}
	}
	return data, nil
}

// DecodeJSON parses the JSON variant produced by EncodeJSON.
func DecodeJSON(data []byte) (*model.DocumentBase, error) {
	var wb wireBase
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, &errors.PersistenceError{Op: "decode", Err: err}
	}
	return fromWire(wb)
}

// SaveFile encodes base and atomically writes it to path: it writes to a
// temp file in the same directory first, then renames, so a crash mid-write
// never leaves a corrupt file at path.
func SaveFile(path string, base *model.DocumentBase, registry *signal.Registry) error {
	data, err := Encode(base, registry)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".documentbase-*.tmp")
	if err != nil {
		return &errors.PersistenceError{Op: "encode", Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &errors.PersistenceError{Op: "encode", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &errors.PersistenceError{Op: "encode", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &errors.PersistenceError{Op: "encode", Err: err}
	}
	return nil
}

// LoadFile reads and decodes the file at path.
func LoadFile(path string) (*model.DocumentBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.PersistenceError{Op: "decode", Err: fmt.Errorf("read %s: %w", path, err)}
	}
	return Decode(data)
}

func toWire(base *model.DocumentBase, registry *signal.Registry) wireBase {
	wb := wireBase{
		Attributes: make([]wireAttribute, len(base.Attributes)),
		Documents:  make([]wireDocument, len(base.Documents)),
	}
	for i, a := range base.Attributes {
		wb.Attributes[i] = wireAttribute{Name: a.Name, Signals: persistentSignals(&a.Map, registry)}
	}
	for i, d := range base.Documents {
		nuggets := d.Nuggets()
		wn := make([]wireNugget, len(nuggets))
		for j, n := range nuggets {
			wn[j] = wireNugget{Start: n.Start, End: n.End, Signals: persistentSignals(&n.Map, registry)}
		}
		wb.Documents[i] = wireDocument{Name: d.Name, Text: d.Text, Signals: persistentSignals(&d.Map, registry), Nuggets: wn}
	}
	return wb
}

func persistentSignals(m *signal.Map, registry *signal.Registry) map[string]signal.Value {
	out := make(map[string]signal.Value)
	for _, id := range m.Identifiers() {
		if registry != nil && registry.IsTransient(id) {
			continue
		}
		v, _ := m.Get(id)
		out[id] = v
	}
	return out
}

func fromWire(wb wireBase) (*model.DocumentBase, error) {
	base := model.NewDocumentBase()
	for _, wa := range wb.Attributes {
		attr := &model.Attribute{Name: wa.Name}
		for id, v := range wa.Signals {
			attr.Set(id, v)
		}
		if err := base.AddAttribute(attr); err != nil {
			return nil, &errors.PersistenceError{Op: "decode", Err: err}
		}
	}
	for _, wd := range wb.Documents {
		doc := model.NewDocument(wd.Name, wd.Text)
		for id, v := range wd.Signals {
			doc.Set(id, v)
		}
		for _, wn := range wd.Nuggets {
			n, err := doc.AddNugget(wn.Start, wn.End)
			if err != nil {
				return nil, &errors.PersistenceError{Op: "decode", Err: err}
			}
			for id, v := range wn.Signals {
				n.Set(id, v)
			}
		}
		if err := base.AddDocument(doc); err != nil {
			return nil, &errors.PersistenceError{Op: "decode", Err: err}
		}
	}
	if err := base.Validate(); err != nil {
		return nil, &errors.PersistenceError{Op: "decode", Err: err}
	}
	return base, nil
}
