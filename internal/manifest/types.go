package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/embedlib/embedlib/internal/deps"
	"go.yaml.in/yaml/v3"
)

// Library is a library manifest. ID, URL, and Requirements are only set in
// installed manifests.
type Library struct {
	ID           int               `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string            `json:"name" yaml:"name"`
	Version      string            `json:"version,omitempty" yaml:"version,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords     deps.Tags         `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Authors      Authors           `json:"authors,omitempty" yaml:"authors,omitempty"`
	Homepage     string            `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	License      string            `json:"license,omitempty" yaml:"license,omitempty"`
	Repository   *Repository       `json:"repository,omitempty" yaml:"repository,omitempty"`
	Frameworks   deps.Tags         `json:"frameworks,omitempty" yaml:"frameworks,omitempty"`
	Platforms    deps.Tags         `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	Dependencies deps.Declarations `json:"dependencies,omitzero" yaml:"dependencies,omitempty"`
	URL          string            `json:"url,omitempty" yaml:"url,omitempty"`
	Requirements string            `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// HasDependencies reports whether the manifest declares a dependencies field.
func (l *Library) HasDependencies() bool {
	return !l.Dependencies.IsZero()
}

// Repository points at the library's source repository.
type Repository struct {
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	URL  string `json:"url" yaml:"url"`
}

// Author is one library author.
type Author struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Authors accepts a comma-separated string, a single author object, or a
// list of strings and objects.
type Authors []Author

// Names returns the author names in order.
func (a Authors) Names() []string {
	names := make([]string, 0, len(a))
	for _, author := range a {
		names = append(names, author.Name)
	}
	return names
}

// UnmarshalJSON decodes any of the accepted author shapes.
func (a *Authors) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = authorsFromString(s)
		return nil
	}
	var one Author
	if err := json.Unmarshal(data, &one); err == nil {
		*a = Authors{one}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("authors must be a string, an object, or a list: %w", err)
	}
	out := make(Authors, 0, len(items))
	for _, item := range items {
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, Author{Name: s})
			continue
		}
		var author Author
		if err := json.Unmarshal(item, &author); err != nil {
			return fmt.Errorf("decoding author: %w", err)
		}
		out = append(out, author)
	}
	*a = out
	return nil
}

// UnmarshalYAML decodes any of the accepted author shapes.
func (a *Authors) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*a = authorsFromString(node.Value)
		return nil
	case yaml.MappingNode:
		var one Author
		if err := node.Decode(&one); err != nil {
			return err
		}
		*a = Authors{one}
		return nil
	case yaml.SequenceNode:
		out := make(Authors, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode {
				out = append(out, Author{Name: item.Value})
				continue
			}
			var author Author
			if err := item.Decode(&author); err != nil {
				return err
			}
			out = append(out, author)
		}
		*a = out
		return nil
	default:
		return fmt.Errorf("line %d: authors must be a string, an object, or a list", node.Line)
	}
}

func authorsFromString(s string) Authors {
	var out Authors
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, Author{Name: name})
		}
	}
	return out
}
