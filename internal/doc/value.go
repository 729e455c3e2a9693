// Package doc holds parsed YAML/JSON content as an ordered tagged value tree.
//
// Every value is exactly one of Scalar, Sequence or *Mapping. Mappings keep
// the key order of the source document, which is the order registers, masks
// and schema properties are displayed in. Accessors report absence with a
// boolean instead of panicking or returning zero values.
package doc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is a node of a parsed document.
type Value interface {
	Kind() Kind
	// Native returns the Go form of the value: the decoded scalar,
	// []any for sequences and the *Mapping itself for mappings.
	Native() any
	isValue()
}

// Scalar is a leaf value. Data is the decoded form (string, int, uint64,
// float64, bool or nil) and Raw the source text.
type Scalar struct {
	Raw  string
	Data any
}

// NewScalar wraps a Go value as a Scalar.
func NewScalar(data any) Scalar {
	raw := ""
	if data != nil {
		raw = fmt.Sprint(data)
	}
	return Scalar{Raw: raw, Data: data}
}

func (Scalar) Kind() Kind       { return KindScalar }
func (s Scalar) Native() any    { return s.Data }
func (s Scalar) String() string { return s.Raw }
func (Scalar) isValue()         {}

// IsNull reports whether the scalar is an explicit or implicit null.
func (s Scalar) IsNull() bool { return s.Data == nil }

// Sequence is an ordered list of values.
type Sequence []Value

func (Sequence) Kind() Kind { return KindSequence }
func (Sequence) isValue()   {}

func (s Sequence) Native() any {
	out := make([]any, 0, len(s))
	for _, item := range s {
		out = append(out, item.Native())
	}
	return out
}

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// Mapping is an insertion-ordered string-keyed map. The zero value is an
// empty mapping ready to use, and a nil *Mapping behaves as empty on reads.
type Mapping struct {
	entries []Entry
	index   map[string]int
}

// NewMapping builds a mapping from entries. A repeated key replaces the
// earlier value but keeps the earlier position.
func NewMapping(entries ...Entry) *Mapping {
	m := &Mapping{}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

func (*Mapping) Kind() Kind     { return KindMapping }
func (m *Mapping) Native() any { return m }
func (*Mapping) isValue()      {}

// Set stores value under key.
func (m *Mapping) Set(key string, value Value) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Has reports whether key is present, including keys with null values.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Keys returns the keys in document order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Entries returns a copy of the entries in document order.
func (m *Mapping) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// String renders the mapping in YAML flow style.
func (m *Mapping) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range m.Entries() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", e.Key, e.Value.Native())
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON encodes the mapping as a JSON object in document order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(JSONValue(e.Value.Native()))
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", e.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSONValue returns the native value v with NaN and infinities replaced by
// their text form ("NaN", "+Inf", "-Inf"), which JSON cannot carry.
func JSONValue(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = JSONValue(item)
		}
		return out
	}
	return v
}

// MarshalYAML encodes the mapping as a YAML mapping node in document order.
func (m *Mapping) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range m.Entries() {
		var val yaml.Node
		if err := val.Encode(e.Value.Native()); err != nil {
			return nil, fmt.Errorf("encode %q: %w", e.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			&val,
		)
	}
	return node, nil
}

// AsMapping returns v as a mapping when it is one.
func AsMapping(v Value) (*Mapping, bool) {
	m, ok := v.(*Mapping)
	return m, ok && m != nil
}

// AsSequence returns v as a sequence when it is one.
func AsSequence(v Value) (Sequence, bool) {
	s, ok := v.(Sequence)
	return s, ok
}

// AsScalar returns v as a scalar when it is one.
func AsScalar(v Value) (Scalar, bool) {
	s, ok := v.(Scalar)
	return s, ok
}

// String returns a scalar's text, or false for anything else.
func String(v Value) (string, bool) {
	s, ok := AsScalar(v)
	if !ok || s.IsNull() {
		return "", false
	}
	if str, ok := s.Data.(string); ok {
		return str, true
	}
	return s.Raw, true
}
