package deps

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Wildcard is the tag value meaning "no constraint".
const Wildcard = "*"

// Tags is a list of framework or platform tags as written in a manifest.
// It accepts a list, a comma-separated string, or the wildcard.
type Tags []string

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (t *Tags) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = SplitTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tags must be a string or a list of strings: %w", err)
	}
	*t = list
	return nil
}

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (t *Tags) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = SplitTags(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = list
		return nil
	default:
		return fmt.Errorf("line %d: tags must be a string or a list of strings", node.Line)
	}
}

// SplitTags splits a comma-separated tag string into trimmed, non-empty tags.
// The wildcard yields nil.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == Wildcard {
		return nil
	}
	return splitList(s)
}

// splitList splits on commas, trims, and drops empty tokens.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
