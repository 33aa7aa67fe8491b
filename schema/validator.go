// Package schema validates JSON documents against JSON Schemas.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Violation is one failed schema rule.
type Violation struct {
	// Path is the JSON pointer of the offending value, "" for the root.
	Path    string
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// ValidationError lists every rule a document broke. Its message fits on
// one line so it can be shown as a DAP error.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "schema validation failed: " + strings.Join(parts, "; ")
}

// Validator validates documents against a compiled JSON Schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the given schema document. name is the resource
// name used in error locations.
func NewValidator(name string, schemaData []byte) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schemaData)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource %s: %w", name, err)
	}

	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	return &Validator{schema: compiled}, nil
}

// Validate checks data, which may be any JSON-marshalable value. Rule
// failures are reported as *ValidationError.
func (v *Validator) Validate(data interface{}) error {
	doc, err := toJSONValue(data)
	if err != nil {
		return err
	}

	err = v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	result := &ValidationError{}
	collect(validationErr, &result.Violations)
	if len(result.Violations) == 0 {
		result.Violations = append(result.Violations, Violation{Path: validationErr.InstanceLocation, Message: validationErr.Message})
	}
	return result
}

// toJSONValue converts data into the plain maps and slices the compiled
// schema walks. YAML and struct input both go through encoding/json.
func toJSONValue(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document to JSON for validation: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON for validation: %w", err)
	}
	return doc, nil
}

// collect gathers the leaf causes, which carry the specific messages.
func collect(err *jsonschema.ValidationError, out *[]Violation) {
	if len(err.Causes) == 0 {
		*out = append(*out, Violation{Path: err.InstanceLocation, Message: err.Message})
		return
	}
	for _, cause := range err.Causes {
		collect(cause, out)
	}
}
