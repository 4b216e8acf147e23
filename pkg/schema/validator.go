// Package schema validates caller-supplied user data against a wizard's
// user-data schema contract before any browser work starts. The contract
// is a draft-07 JSON Schema generated by the discovery agent; field ids
// in the schema match field ids in the wizard structure, so data that
// passes here joins cleanly onto selectors.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Violation describes one failed constraint.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Result is the outcome of validating user data against a contract.
type Result struct {
	Valid         bool        `json:"valid"`
	MissingFields []string    `json:"missing_fields,omitempty"`
	InvalidFields []Violation `json:"invalid_fields,omitempty"`
}

// Compile parses a user-data schema contract. The contract is pinned to
// draft-07, matching what the discovery agent emits.
func Compile(schemaJSON []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource("contract.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("invalid schema contract: %w", err)
	}
	compiled, err := compiler.Compile("contract.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema contract: %w", err)
	}
	return compiled, nil
}

// Validate checks user data against a compiled contract and translates
// schema errors into a field-oriented result the caller can act on.
func Validate(compiled *jsonschema.Schema, userData map[string]any) *Result {
	err := compiled.Validate(userData)
	if err == nil {
		return &Result{Valid: true}
	}

	result := &Result{Valid: false}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		result.InvalidFields = append(result.InvalidFields, Violation{Reason: err.Error()})
		return result
	}

	for _, leaf := range leafErrors(validationErr) {
		if missing, ok := missingProperties(leaf); ok {
			result.MissingFields = append(result.MissingFields, missing...)
			continue
		}
		result.InvalidFields = append(result.InvalidFields, Violation{
			Field:  instanceField(leaf.InstanceLocation),
			Reason: leaf.Message,
		})
	}

	return result
}

// ValidateJSON compiles and validates in one call.
func ValidateJSON(schemaJSON []byte, userData map[string]any) (*Result, error) {
	compiled, err := Compile(schemaJSON)
	if err != nil {
		return nil, err
	}
	return Validate(compiled, userData), nil
}

// leafErrors flattens a validation error tree to its most specific
// causes, which carry the per-field messages.
func leafErrors(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		leaves = append(leaves, leafErrors(cause)...)
	}
	return leaves
}

// instanceField extracts the top-level field name from a JSON pointer
// instance location like "/parent_income".
func instanceField(location string) string {
	trimmed := strings.TrimPrefix(location, "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

// missingProperties recognizes required-keyword errors and pulls out the
// property names. Message shape: missing properties: 'birth_month', 'birth_day'
func missingProperties(err *jsonschema.ValidationError) ([]string, bool) {
	if !strings.HasSuffix(err.KeywordLocation, "/required") {
		return nil, false
	}
	parts := strings.Split(err.Message, "'")
	var names []string
	// Quoted names sit at the odd indexes of the split
	for i := 1; i < len(parts); i += 2 {
		if name := strings.TrimSpace(parts[i]); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, false
	}
	return names, true
}
