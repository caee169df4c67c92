package deps

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"
)

// member is one key/value pair of an ordered mapping.
type member struct {
	Key   string
	Value any
}

// object is a mapping decoded with its key order intact.
type object []member

func (o object) get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Declarations holds the raw "dependencies" value of a manifest. Decoded
// values are one of: nil, object, []any, or a scalar string.
type Declarations struct {
	value any
}

// NewDeclarations wraps an in-memory value (a map, a list, a Filter, or
// []Filter) so it can be normalized or written to a manifest.
func NewDeclarations(v any) Declarations {
	return Declarations{value: v}
}

// IsZero reports whether no dependencies were declared.
func (d Declarations) IsZero() bool {
	return d.value == nil
}

// Filters returns the normalized dependency list.
func (d Declarations) Filters() []Filter {
	return Normalize(d.value)
}

// MarshalJSON writes the normalized list form, which reads back unchanged.
func (d Declarations) MarshalJSON() ([]byte, error) {
	filters := d.Filters()
	if filters == nil {
		filters = []Filter{}
	}
	return json.Marshal(filters)
}

// MarshalYAML writes the normalized list form.
func (d Declarations) MarshalYAML() (any, error) {
	return d.Filters(), nil
}

// UnmarshalJSON decodes any JSON value, preserving object key order.
func (d *Declarations) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeOrdered(dec)
	if err != nil {
		return fmt.Errorf("decoding dependencies: %w", err)
	}
	d.value = v
	return nil
}

// UnmarshalYAML decodes any YAML node, preserving mapping key order.
func (d *Declarations) UnmarshalYAML(node *yaml.Node) error {
	v, err := fromNode(node)
	if err != nil {
		return fmt.Errorf("decoding dependencies: %w", err)
	}
	d.value = v
	return nil
}

func decodeOrdered(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := object{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeOrdered(dec)
				if err != nil {
					return nil, err
				}
				obj = append(obj, member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := decodeOrdered(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case json.Number:
		return t.String(), nil
	case bool:
		return fmt.Sprint(t), nil
	default:
		// string or nil
		return t, nil
	}
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		obj := object{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			val, err := fromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj = append(obj, member{Key: n.Content[i].Value, Value: val})
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := []any{}
		for _, c := range n.Content {
			val, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return n.Value, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}
