package doc

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// maxAliasDepth bounds alias expansion so self-referencing anchors fail
// instead of recursing forever.
const maxAliasDepth = 64

// Parse parses YAML (or JSON) text into a Value. Empty input yields a null
// scalar.
func Parse(data []byte) (Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return FromNode(&root)
}

// Read parses all of r.
func Read(r io.Reader) (Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

// FromNode converts a yaml.v3 node tree into a Value.
func FromNode(n *yaml.Node) (Value, error) {
	return convert(n, 0)
}

func convert(n *yaml.Node, aliasDepth int) (Value, error) {
	if n == nil {
		return Scalar{}, nil
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Scalar{}, nil
		}
		return convert(n.Content[0], aliasDepth)
	case yaml.AliasNode:
		if aliasDepth >= maxAliasDepth {
			return nil, fmt.Errorf("line %d: alias *%s nested too deeply", n.Line, n.Value)
		}
		return convert(n.Alias, aliasDepth+1)
	case yaml.ScalarNode:
		return convertScalar(n)
	case yaml.SequenceNode:
		seq := make(Sequence, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := convert(item, aliasDepth)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	case yaml.MappingNode:
		return convertMapping(n, aliasDepth)
	case 0:
		return Scalar{}, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

func convertScalar(n *yaml.Node) (Value, error) {
	var data any
	if err := n.Decode(&data); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return Scalar{Raw: n.Value, Data: data}, nil
}

func convertMapping(n *yaml.Node, aliasDepth int) (Value, error) {
	if len(n.Content)%2 != 0 {
		return nil, errors.New("malformed mapping node")
	}

	m := &Mapping{}
	var merged []*Mapping
	for i := 0; i < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == "!!merge" {
			sources, err := mergeSources(valNode, aliasDepth)
			if err != nil {
				return nil, err
			}
			merged = append(merged, sources...)
			continue
		}

		key, err := mappingKey(keyNode)
		if err != nil {
			return nil, err
		}
		val, err := convert(valNode, aliasDepth)
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
	}

	// Merged keys never override keys written directly in the mapping.
	for _, src := range merged {
		for _, e := range src.Entries() {
			if !m.Has(e.Key) {
				m.Set(e.Key, e.Value)
			}
		}
	}
	return m, nil
}

func mergeSources(n *yaml.Node, aliasDepth int) ([]*Mapping, error) {
	v, err := convert(n, aliasDepth)
	if err != nil {
		return nil, err
	}
	if m, ok := AsMapping(v); ok {
		return []*Mapping{m}, nil
	}
	seq, ok := AsSequence(v)
	if !ok {
		return nil, fmt.Errorf("line %d: merge value must be a mapping or list of mappings", n.Line)
	}
	out := make([]*Mapping, 0, len(seq))
	for _, item := range seq {
		m, ok := AsMapping(item)
		if !ok {
			return nil, fmt.Errorf("line %d: merge list must contain only mappings", n.Line)
		}
		out = append(out, m)
	}
	return out, nil
}

func mappingKey(n *yaml.Node) (string, error) {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: mapping keys must be scalars", n.Line)
	}
	return n.Value, nil
}
