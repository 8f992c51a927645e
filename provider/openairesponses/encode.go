package openairesponses

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/responses"

	"github.com/sagentic-ai/sagentic-af/provider"
)

func encodeInput(msgs []provider.Message) (responses.ResponseInputParam, error) {
	var out responses.ResponseInputParam
	for _, m := range msgs {
		switch m.Role {
		case provider.RoleSystem:
			out = append(out, responses.ResponseInputItemParamOfMessage(m.Text, responses.EasyInputMessageRoleSystem))
		case provider.RoleUser:
			item, err := encodeUserItem(m)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		case provider.RoleAssistant:
			out = append(out, encodeAssistantItems(m)...)
		case provider.RoleTool:
			for _, r := range m.BuiltinToolResults {
				out = append(out, responses.ResponseInputItemParamOfFunctionCallOutput(r.CallID, r.Output))
			}
			if m.ToolCallID != "" {
				out = append(out, responses.ResponseInputItemParamOfFunctionCallOutput(m.ToolCallID, m.Text))
			}
		default:
			return nil, fmt.Errorf("openairesponses: unsupported role %q", m.Role)
		}
	}
	return out, nil
}

func encodeUserItem(m provider.Message) (responses.ResponseInputItemUnionParam, error) {
	if !m.IsMultipart {
		return responses.ResponseInputItemParamOfMessage(m.Text, responses.EasyInputMessageRoleUser), nil
	}
	content := make(responses.ResponseInputMessageContentListParam, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Kind {
		case provider.ContentText:
			content = append(content, responses.ResponseInputContentParamOfInputText(p.Text))
		case provider.ContentImageURL:
			if len(p.ImageURL) > 5 && p.ImageURL[:5] == "data:" {
				return responses.ResponseInputItemUnionParam{}, errors.New("openairesponses: base64/data image transport is not implemented")
			}
			content = append(content, responses.ResponseInputContentParamOfInputImage(responses.ResponseInputContentInputImageDetail(p.Detail)))
		default:
			return responses.ResponseInputItemUnionParam{}, fmt.Errorf("openairesponses: unsupported content part kind %q", p.Kind)
		}
	}
	msg := responses.ResponseInputItemParamOfInputMessage(content)
	return msg, nil
}

func encodeAssistantItems(m provider.Message) []responses.ResponseInputItemUnionParam {
	var out []responses.ResponseInputItemUnionParam
	if m.Text != "" {
		out = append(out, responses.ResponseInputItemParamOfMessage(m.Text, responses.EasyInputMessageRoleAssistant))
	}
	for _, c := range m.ToolCalls {
		out = append(out, responses.ResponseInputItemParamOfFunctionCall(c.Function.ArgumentsJSON, c.ID, c.Function.Name))
	}
	for _, c := range m.BuiltinToolCalls {
		out = append(out, responses.ResponseInputItemParamOfFunctionCall(c.Operation.Diff, c.CallID, c.Type))
	}
	return out
}

func encodeTools(defs []provider.ToolDefinition) ([]responses.ToolUnionParam, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make([]responses.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		var schema map[string]any
		if err := json.Unmarshal(d.Parameters, &schema); err != nil {
			return nil, fmt.Errorf("openairesponses: tool %q: invalid parameters schema: %w", d.Name, err)
		}
		out = append(out, responses.ToolParamOfFunction(d.Name, schema, true))
	}
	return out, nil
}

// translateResponse decodes the Responses output list into the neutral
// Response shape, splitting plain function calls from builtin (server-hosted)
// tool calls like apply_patch_call.
func translateResponse(resp *responses.Response) (*provider.Response, error) {
	if resp == nil {
		return nil, errors.New("openairesponses: response is nil")
	}
	var assistant provider.Message
	assistant.Role = provider.RoleAssistant
	for _, item := range resp.Output {
		switch item.Type {
		case "message":
			for _, c := range item.Content {
				if c.Type == "output_text" {
					if assistant.Text != "" {
						assistant.Text += "\n"
					}
					assistant.Text += c.Text
				}
			}
		case "function_call":
			assistant.ToolCalls = append(assistant.ToolCalls, provider.ToolCall{
				ID:   item.CallID,
				Kind: "function",
				Function: provider.ToolCallFunction{
					Name:          item.Name,
					ArgumentsJSON: item.Arguments,
				},
			})
		default:
			// Server-hosted builtin tool calls (e.g. apply_patch_call) surface
			// under provider-specific item types; decode defensively.
			var op provider.BuiltinOperation
			_ = json.Unmarshal([]byte(item.RawJSON()), &op)
			assistant.BuiltinToolCalls = append(assistant.BuiltinToolCalls, provider.BuiltinToolCall{
				ID:        item.ID,
				CallID:    item.CallID,
				Type:      string(item.Type),
				Operation: op,
			})
		}
	}

	out := &provider.Response{Messages: []provider.Message{assistant}}
	out.Usage = provider.Usage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}
	return out, nil
}
