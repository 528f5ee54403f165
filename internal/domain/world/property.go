package world

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Property is one value of an object's property map. It is either a leaf
// (bool, float64, string, nil or a list) or a nested tree of named properties.
type Property struct {
	Leaf any
	Tree map[string]Property
}

func Leaf(v any) Property {
	return Property{Leaf: normalizeLeaf(v)}
}

func Tree(m map[string]Property) Property {
	if m == nil {
		m = map[string]Property{}
	}
	return Property{Tree: m}
}

func (p Property) IsTree() bool {
	return p.Tree != nil
}

// FromValue converts a decoded JSON value into a Property, turning every
// object into a nested tree.
func FromValue(v any) Property {
	if m, ok := v.(map[string]any); ok {
		tree := make(map[string]Property, len(m))
		for k, child := range m {
			tree[k] = FromValue(child)
		}
		return Property{Tree: tree}
	}
	return Leaf(v)
}

// Value returns the plain JSON form of the property.
func (p Property) Value() any {
	if p.Tree == nil {
		return p.Leaf
	}
	out := make(map[string]any, len(p.Tree))
	for k, child := range p.Tree {
		out[k] = child.Value()
	}
	return out
}

func (p Property) Clone() Property {
	if p.Tree == nil {
		if list, ok := p.Leaf.([]any); ok {
			cp := make([]any, len(list))
			copy(cp, list)
			return Property{Leaf: cp}
		}
		return p
	}
	tree := make(map[string]Property, len(p.Tree))
	for k, child := range p.Tree {
		tree[k] = child.Clone()
	}
	return Property{Tree: tree}
}

func (p Property) Keys() []string {
	keys := make([]string, 0, len(p.Tree))
	for k := range p.Tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p Property) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Value())
}

func (p *Property) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decode property: %w", err)
	}
	*p = FromValue(v)
	return nil
}

func normalizeLeaf(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

func cloneProps(props map[string]Property) map[string]Property {
	out := make(map[string]Property, len(props))
	for k, v := range props {
		out[k] = v.Clone()
	}
	return out
}
