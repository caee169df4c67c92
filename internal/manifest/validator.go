package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaName = "library.schema.json"

//go:embed schema/library.schema.json
var schemaBytes []byte

var printer = message.NewPrinter(language.English)

// librarySchema compiles the embedded library schema on first use.
var librarySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", schemaName, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaName, doc); err != nil {
		return nil, fmt.Errorf("registering %s: %w", schemaName, err)
	}
	sch, err := c.Compile(schemaName)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", schemaName, err)
	}
	return sch, nil
})

// ValidationResult lists what is wrong with a library manifest.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	Path    string // JSON pointer into the manifest, e.g. "/dependencies/Servo"
	Message string
	Keyword string // failing schema keyword, e.g. "required"
}

// Validate checks a library.json or library.yaml document. format is
// "json" or "yaml". An error means the document could not be read at all;
// a readable manifest that breaks the schema yields Valid false.
func Validate(data []byte, format string) (*ValidationResult, error) {
	sch, err := librarySchema()
	if err != nil {
		return nil, err
	}

	if format != "json" {
		if data, err = yamlToJSON(data); err != nil {
			return nil, err
		}
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	err = sch.Validate(doc)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("validating manifest: %w", err)
	}
	return &ValidationResult{Issues: collectIssues(verr)}, nil
}

// ValidateFile validates the manifest at path, picking the format from its
// extension.
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(data, formatOf(path))
}

// Summary joins the issues into one line for log output.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		if issue.Path != "" {
			parts = append(parts, issue.Path+": "+issue.Message)
		} else {
			parts = append(parts, issue.Message)
		}
	}
	return strings.Join(parts, "; ")
}

// unionKeywords only group other failures. A dependencies or authors value
// that matches no oneOf branch is reported through the branch failures.
var unionKeywords = map[string]bool{"oneOf": true, "anyOf": true, "allOf": true, "$ref": true}

func collectIssues(root *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	seen := make(map[ValidationIssue]bool)

	var walk func(*jsonschema.ValidationError)
	walk = func(ve *jsonschema.ValidationError) {
		for _, cause := range ve.Causes {
			walk(cause)
		}
		if len(ve.Causes) > 0 || ve.ErrorKind == nil {
			return
		}
		kw := ve.ErrorKind.KeywordPath()
		if len(kw) == 0 || unionKeywords[kw[len(kw)-1]] {
			return
		}

		issue := ValidationIssue{
			Message: ve.ErrorKind.LocalizedString(printer),
			Keyword: kw[len(kw)-1],
		}
		if len(ve.InstanceLocation) > 0 {
			issue.Path = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		if !seen[issue] {
			seen[issue] = true
			issues = append(issues, issue)
		}
	}
	walk(root)

	if len(issues) == 0 {
		return []ValidationIssue{{Message: root.Error()}}
	}
	return issues
}

// yamlToJSON re-encodes a YAML manifest as JSON so the same schema applies.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing YAML manifest: %w", err)
	}
	out, err := json.Marshal(jsonValue(v))
	if err != nil {
		return nil, fmt.Errorf("re-encoding YAML manifest: %w", err)
	}
	return out, nil
}

// jsonValue replaces the map[any]any that YAML produces for non-string keys.
func jsonValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = jsonValue(item)
		}
		return val
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = jsonValue(item)
		}
		return m
	case []any:
		for i, item := range val {
			val[i] = jsonValue(item)
		}
		return val
	default:
		return v
	}
}
