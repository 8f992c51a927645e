package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sagentic-ai/sagentic-af/provider"
)

// stubAdapter is a provider.Adapter that never calls a real vendor API. It
// drives three deterministic scenarios by inspecting the last message in
// the conversation: a plain greeting, an "add" tool round trip, and an
// apply_patch builtin tool call followed by a confirmation reply.
type stubAdapter struct{}

func (stubAdapter) Complete(_ context.Context, req *provider.Request) (*provider.Response, provider.Headers, error) {
	last := req.Messages[len(req.Messages)-1]

	switch {
	case last.Role == provider.RoleTool:
		return textResponse("done: " + last.Text), provider.Headers{}, nil
	case hasTool(req, "add"):
		return &provider.Response{Messages: []provider.Message{{
			Role: provider.RoleAssistant,
			ToolCalls: []provider.ToolCall{{
				ID:   "call-add-1",
				Kind: "function",
				Function: provider.ToolCallFunction{
					Name:          "add",
					ArgumentsJSON: `{"a":2,"b":3}`,
				},
			}},
		}}}, provider.Headers{}, nil
	case strings.HasPrefix(last.Text, "apply-patch: create "):
		path := strings.TrimPrefix(last.Text, "apply-patch: create ")
		op := provider.BuiltinOperation{
			Type: "create_file",
			Path: path,
			Diff: "hello from sagentic-demo",
		}
		argsJSON, _ := json.Marshal(op)
		return &provider.Response{Messages: []provider.Message{{
			Role: provider.RoleAssistant,
			ToolCalls: []provider.ToolCall{{
				ID:   "call-patch-1",
				Kind: "apply_patch",
				Function: provider.ToolCallFunction{
					ArgumentsJSON: string(argsJSON),
				},
			}},
		}}}, provider.Headers{}, nil
	default:
		return textResponse("Hello, " + strings.TrimPrefix(last.Text, "Greet ") + "!"), provider.Headers{}, nil
	}
}

func (stubAdapter) ClassifyError(err error) provider.RetryClass {
	return provider.ClassUnknown
}

func textResponse(text string) *provider.Response {
	return &provider.Response{Messages: []provider.Message{{Role: provider.RoleAssistant, Text: text}}}
}

func hasTool(req *provider.Request, name string) bool {
	for _, t := range req.Options.Tools {
		if t.Name == name {
			return true
		}
	}
	return false
}
