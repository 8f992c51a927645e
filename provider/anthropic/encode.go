package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/sagentic-ai/sagentic-af/provider"
)

// encodeMessages splits the neutral message list into Anthropic's turn list
// plus a separate system prompt (Anthropic has no "system" role message).
// canonToProv renames tool_use/tool_result block names that were sanitized
// by encodeTools.
func encodeMessages(msgs []provider.Message, canonToProv map[string]string) ([]sdk.MessageParam, string, error) {
	var system string
	var out []sdk.MessageParam
	for _, m := range msgs {
		switch m.Role {
		case provider.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Text
		case provider.RoleUser:
			blocks, err := encodeUserBlocks(m)
			if err != nil {
				return nil, "", err
			}
			out = append(out, sdk.NewUserMessage(blocks...))
		case provider.RoleAssistant:
			blocks, err := encodeAssistantBlocks(m, canonToProv)
			if err != nil {
				return nil, "", err
			}
			out = append(out, sdk.NewAssistantMessage(blocks...))
		case provider.RoleTool:
			out = append(out, sdk.NewUserMessage(
				sdk.NewToolResultBlock(m.ToolCallID, m.Text, false),
			))
		default:
			return nil, "", fmt.Errorf("anthropic: unsupported role %q", m.Role)
		}
	}
	return out, system, nil
}

func encodeUserBlocks(m provider.Message) ([]sdk.ContentBlockParamUnion, error) {
	if !m.IsMultipart {
		return []sdk.ContentBlockParamUnion{sdk.NewTextBlock(m.Text)}, nil
	}
	blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Kind {
		case provider.ContentText:
			blocks = append(blocks, sdk.NewTextBlock(p.Text))
		case provider.ContentImageURL:
			return nil, errors.New("anthropic: image content parts are not supported")
		default:
			return nil, fmt.Errorf("anthropic: unsupported content part kind %q", p.Kind)
		}
	}
	return blocks, nil
}

func encodeAssistantBlocks(m provider.Message, canonToProv map[string]string) ([]sdk.ContentBlockParamUnion, error) {
	if len(m.ToolCalls) == 0 {
		return []sdk.ContentBlockParamUnion{sdk.NewTextBlock(m.Text)}, nil
	}
	blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.ToolCalls)+1)
	if m.Text != "" {
		blocks = append(blocks, sdk.NewTextBlock(m.Text))
	}
	for _, c := range m.ToolCalls {
		name := c.Function.Name
		if prov, ok := canonToProv[name]; ok {
			name = prov
		}
		var input any
		if err := json.Unmarshal([]byte(c.Function.ArgumentsJSON), &input); err != nil {
			input = map[string]any{}
		}
		blocks = append(blocks, sdk.NewToolUseBlock(c.ID, input, name))
	}
	return blocks, nil
}

// encodeTools sanitizes tool names to Anthropic's [a-zA-Z0-9_-] vocabulary
// and returns both translation directions alongside the encoded definitions.
func encodeTools(defs []provider.ToolDefinition) ([]sdk.ToolUnionParam, map[string]string, map[string]string, error) {
	if len(defs) == 0 {
		return nil, nil, nil, nil
	}
	canonToProv := make(map[string]string, len(defs))
	provToCanon := make(map[string]string, len(defs))
	out := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		prov := sanitizeToolName(d.Name)
		canonToProv[d.Name] = prov
		provToCanon[prov] = d.Name

		var schema map[string]any
		if err := json.Unmarshal(d.Parameters, &schema); err != nil {
			return nil, nil, nil, fmt.Errorf("anthropic: tool %q: invalid parameters schema: %w", d.Name, err)
		}
		props, _ := schema["properties"].(map[string]any)
		var required []string
		if r, ok := schema["required"].([]any); ok {
			for _, v := range r {
				if s, ok := v.(string); ok {
					required = append(required, s)
				}
			}
		}
		out = append(out, sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{
			Properties: props,
			Required:   required,
		}, prov))
	}
	return out, canonToProv, provToCanon, nil
}

func sanitizeToolName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func encodeToolChoice(choice *provider.ToolChoice, canonToProv map[string]string) (*sdk.ToolChoiceUnionParam, error) {
	if choice == nil {
		return nil, nil
	}
	switch choice.Mode {
	case provider.ToolChoiceAuto, "":
		tc := sdk.ToolChoiceParamOfAuto()
		return &tc, nil
	case provider.ToolChoiceNone:
		tc := sdk.ToolChoiceUnionParam{OfNone: &sdk.ToolChoiceNoneParam{}}
		return &tc, nil
	case provider.ToolChoiceRequired:
		tc := sdk.ToolChoiceUnionParam{OfAny: &sdk.ToolChoiceAnyParam{}}
		return &tc, nil
	case provider.ToolChoiceFunction:
		name := choice.FunctionName
		if prov, ok := canonToProv[name]; ok {
			name = prov
		}
		tc := sdk.ToolChoiceUnionParam{OfTool: &sdk.ToolChoiceToolParam{Name: name}}
		return &tc, nil
	default:
		return nil, fmt.Errorf("anthropic: unsupported tool choice mode %q", choice.Mode)
	}
}

// translateResponse decodes an Anthropic message into the neutral Response
// shape. A hallucinated tool name not present in provToCanon is surfaced
// as-is; the runtime reports an unknown-tool error result for it.
func translateResponse(msg *sdk.Message, provToCanon map[string]string) (*provider.Response, error) {
	if msg == nil {
		return nil, errors.New("anthropic: response message is nil")
	}
	var assistant provider.Message
	assistant.Role = provider.RoleAssistant
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if assistant.Text != "" {
				assistant.Text += "\n"
			}
			assistant.Text += block.Text
		case "tool_use":
			name := block.Name
			if canon, ok := provToCanon[name]; ok {
				name = canon
			}
			argsJSON, err := json.Marshal(block.Input)
			if err != nil {
				return nil, fmt.Errorf("anthropic: marshal tool_use input: %w", err)
			}
			assistant.ToolCalls = append(assistant.ToolCalls, provider.ToolCall{
				ID:   block.ID,
				Kind: "function",
				Function: provider.ToolCallFunction{
					Name:          name,
					ArgumentsJSON: string(argsJSON),
				},
			})
		}
	}

	resp := &provider.Response{Messages: []provider.Message{assistant}}
	u := msg.Usage
	resp.Usage = provider.Usage{
		PromptTokens:     int(u.InputTokens),
		CompletionTokens: int(u.OutputTokens),
	}
	return resp, nil
}
