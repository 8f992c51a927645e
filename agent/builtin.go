package agent

import (
	"encoding/json"

	"github.com/sagentic-ai/sagentic-af/provider"
	"github.com/sagentic-ai/sagentic-af/toolschema"
)

// builtinOperationSchema is generated once from provider.BuiltinOperation so
// that malformed builtin tool-call arguments are rejected before dispatch
// rather than silently coerced into a zero value.
var builtinOperationSchema = mustGenerateSchema(&provider.BuiltinOperation{})

func mustGenerateSchema(v any) []byte {
	s, err := toolschema.Generate(v)
	if err != nil {
		panic(err)
	}
	return s
}

// decodeBuiltinOperation defensively parses a builtin tool call's raw
// argument JSON into a BuiltinOperation. Input that fails schema validation
// or JSON decoding yields a zero value rather than an error — the resulting
// dispatch will simply fail with an unknown-operation message, which is
// reported back to the model like any other tool failure.
func decodeBuiltinOperation(argumentsJSON string) provider.BuiltinOperation {
	var op provider.BuiltinOperation
	validator, err := toolschema.CachedValidator(builtinOperationSchema)
	if err != nil {
		return op
	}
	if err := validator.ValidateJSON(argumentsJSON); err != nil {
		return op
	}
	_ = json.Unmarshal([]byte(argumentsJSON), &op)
	return op
}
