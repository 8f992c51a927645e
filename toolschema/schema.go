// Package toolschema generates and validates the JSON Schema carried by
// agent.Tool.ParametersSchema(), so tool authors can derive a schema from a
// Go struct instead of hand-writing one, and the runtime can validate
// model-produced tool-call arguments before a tool ever sees them.
package toolschema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	jsonschemav6 "github.com/santhosh-tekuri/jsonschema/v6"
)

// Generate reflects a JSON Schema for v, a pointer to the struct describing
// a tool's parameters. Field names follow the "json" tag, matching how the
// same struct would be unmarshaled from a tool call's arguments.
func Generate(v any) ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:               "json",
		DoNotReference:             true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: false,
	}
	schema := r.Reflect(v)
	out, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("toolschema: marshal schema: %w", err)
	}
	return out, nil
}

// Validator validates argument payloads against one compiled JSON Schema.
type Validator struct {
	schema *jsonschemav6.Schema
}

// NewValidator compiles schemaJSON (as produced by Generate or hand-authored)
// into a reusable Validator.
func NewValidator(schemaJSON []byte) (*Validator, error) {
	var doc any
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		return nil, fmt.Errorf("toolschema: decode schema: %w", err)
	}
	c := jsonschemav6.NewCompiler()
	if err := c.AddResource("tool.schema.json", doc); err != nil {
		return nil, fmt.Errorf("toolschema: add schema resource: %w", err)
	}
	compiled, err := c.Compile("tool.schema.json")
	if err != nil {
		return nil, fmt.Errorf("toolschema: compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// ValidateJSON validates argumentsJSON — untrusted model output — against
// the compiled schema.
func (v *Validator) ValidateJSON(argumentsJSON string) error {
	var doc any
	if err := json.Unmarshal([]byte(argumentsJSON), &doc); err != nil {
		return fmt.Errorf("toolschema: arguments are not valid JSON: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("toolschema: arguments do not match schema: %w", err)
	}
	return nil
}

var cacheMu sync.Mutex
var cache = map[string]*Validator{}

// CachedValidator compiles schemaJSON once per distinct schema body and
// reuses the result, avoiding recompilation on every tool invocation.
func CachedValidator(schemaJSON []byte) (*Validator, error) {
	key := string(schemaJSON)
	cacheMu.Lock()
	if v, ok := cache[key]; ok {
		cacheMu.Unlock()
		return v, nil
	}
	cacheMu.Unlock()

	v, err := NewValidator(schemaJSON)
	if err != nil {
		return nil, err
	}
	cacheMu.Lock()
	cache[key] = v
	cacheMu.Unlock()
	return v, nil
}
