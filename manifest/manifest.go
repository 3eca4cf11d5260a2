// Package manifest defines the validated metadata contract that accompanies
// every tool module on disk.
//
// A manifest.json file declares the tool's name, description, and the JSON
// Schema of its argument object. Manifests are parsed and validated before a
// tool becomes registerable; a malformed manifest excludes the bundle from
// discovery but never aborts it.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// Filename is the manifest file expected alongside every tool module.
const Filename = "manifest.json"

// DefaultVersion is assumed when a manifest omits the version field.
// Unrecognized versions are accepted but not interpreted.
const DefaultVersion = "1"

// MaxNameLength bounds tool names, matching function-calling API limits.
const MaxNameLength = 64

// ErrInvalid is the sentinel for all manifest validation failures.
// Use errors.Is(err, ErrInvalid) to classify; errors.As with *FieldError
// recovers the violated field.
var ErrInvalid = errors.New("manifest: invalid manifest")

// FieldError reports which manifest field failed validation and why.
type FieldError struct {
	// Field is the manifest field that failed validation.
	Field string

	// Reason describes the violation in human-readable form.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

// Error returns the field and reason.
func (e *FieldError) Error() string {
	return fmt.Sprintf("manifest: invalid field %q: %s", e.Field, e.Reason)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches ErrInvalid.
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalid
}

// Manifest is the immutable metadata for one tool.
type Manifest struct {
	// Name is the unique tool identifier: lowercase letters, digits, and
	// underscores, at most MaxNameLength characters. Safe to use as a
	// registry key and as a filesystem path segment.
	Name string `json:"name"`

	// Description is shown to the calling agent for tool selection.
	Description string `json:"description"`

	// Version is the manifest format version. Defaults to DefaultVersion.
	Version string `json:"version,omitempty"`

	// Parameters is the JSON Schema of the tool's argument object.
	// Must be an object schema with a properties mapping.
	Parameters map[string]any `json:"parameters"`

	// Homepage is an optional source or documentation URL.
	Homepage string `json:"homepage,omitempty"`
}

// Parse decodes and validates a manifest from raw JSON.
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, &FieldError{Field: "(document)", Reason: "not valid JSON", Err: err}
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Load reads and parses a manifest file.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Validate checks all manifest invariants.
func (m Manifest) Validate() error {
	if !ValidName(m.Name) {
		return &FieldError{
			Field:  "name",
			Reason: "must be snake_case (lowercase letters, digits, underscores), 1-64 chars",
		}
	}
	if m.Description == "" {
		return &FieldError{Field: "description", Reason: "must not be empty"}
	}
	if err := validateParameters(m.Parameters); err != nil {
		return err
	}
	return nil
}

// ValidName reports whether name is a legal tool identifier.
func ValidName(name string) bool {
	if name == "" || len(name) > MaxNameLength {
		return false
	}
	for _, c := range name {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

// validateParameters checks the structural schema: an object type with a
// properties mapping, a required list referencing only declared properties,
// and a schema that compiles.
func validateParameters(params map[string]any) error {
	if params == nil {
		return &FieldError{Field: "parameters", Reason: "must be present"}
	}

	typ, ok := params["type"].(string)
	if !ok || typ != "object" {
		return &FieldError{Field: "parameters.type", Reason: `must be "object"`}
	}

	props, ok := params["properties"].(map[string]any)
	if !ok {
		return &FieldError{Field: "parameters.properties", Reason: "must be an object"}
	}

	if rawRequired, present := params["required"]; present {
		required, ok := rawRequired.([]any)
		if !ok {
			return &FieldError{Field: "parameters.required", Reason: "must be an array of strings"}
		}
		for _, entry := range required {
			name, ok := entry.(string)
			if !ok {
				return &FieldError{Field: "parameters.required", Reason: "must be an array of strings"}
			}
			if _, declared := props[name]; !declared {
				return &FieldError{
					Field:  "parameters.required",
					Reason: fmt.Sprintf("references undeclared property %q", name),
				}
			}
		}
	}

	// Compile to catch schema errors beyond the structural checks above.
	if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(params)); err != nil {
		return &FieldError{Field: "parameters", Reason: "schema does not compile", Err: err}
	}
	return nil
}
