package bedrock

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/sagentic-ai/sagentic-af/provider"
)

// encodeMessages splits the neutral message list into Bedrock's
// conversational turns plus a separate system block list (Bedrock, like
// Anthropic, has no "system" role turn).
func encodeMessages(msgs []provider.Message, canonToProv map[string]string) ([]brtypes.Message, []brtypes.SystemContentBlock, error) {
	var system []brtypes.SystemContentBlock
	var out []brtypes.Message
	for _, m := range msgs {
		switch m.Role {
		case provider.RoleSystem:
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: m.Text})
		case provider.RoleUser:
			blocks, err := encodeUserBlocks(m)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, brtypes.Message{Role: brtypes.ConversationRoleUser, Content: blocks})
		case provider.RoleAssistant:
			blocks := encodeAssistantBlocks(m, canonToProv)
			out = append(out, brtypes.Message{Role: brtypes.ConversationRoleAssistant, Content: blocks})
		case provider.RoleTool:
			out = append(out, brtypes.Message{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberToolResult{Value: brtypes.ToolResultBlock{
						ToolUseId: &m.ToolCallID,
						Content:   []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberText{Value: m.Text}},
					}},
				},
			})
		default:
			return nil, nil, fmt.Errorf("bedrock: unsupported role %q", m.Role)
		}
	}
	return out, system, nil
}

func encodeUserBlocks(m provider.Message) ([]brtypes.ContentBlock, error) {
	if !m.IsMultipart {
		return []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Text}}, nil
	}
	blocks := make([]brtypes.ContentBlock, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Kind {
		case provider.ContentText:
			blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: p.Text})
		case provider.ContentImageURL:
			return nil, errors.New("bedrock: image content parts are not supported")
		default:
			return nil, fmt.Errorf("bedrock: unsupported content part kind %q", p.Kind)
		}
	}
	return blocks, nil
}

func encodeAssistantBlocks(m provider.Message, canonToProv map[string]string) []brtypes.ContentBlock {
	var blocks []brtypes.ContentBlock
	if m.Text != "" {
		blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: m.Text})
	}
	for _, c := range m.ToolCalls {
		name := c.Function.Name
		if prov, ok := canonToProv[name]; ok {
			name = prov
		}
		var input any
		_ = json.Unmarshal([]byte(c.Function.ArgumentsJSON), &input)
		blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{Value: brtypes.ToolUseBlock{
			ToolUseId: &c.ID,
			Name:      &name,
			Input:     document.NewLazyDocument(input),
		}})
	}
	return blocks
}

// encodeTools mirrors provider name sanitization into Bedrock's tool
// configuration, returning both translation directions.
func encodeTools(defs []provider.ToolDefinition) ([]brtypes.Tool, map[string]string, map[string]string, error) {
	if len(defs) == 0 {
		return nil, nil, nil, nil
	}
	canonToProv := make(map[string]string, len(defs))
	provToCanon := make(map[string]string, len(defs))
	out := make([]brtypes.Tool, 0, len(defs))
	for _, d := range defs {
		canonToProv[d.Name] = d.Name
		provToCanon[d.Name] = d.Name

		var schema any
		if err := json.Unmarshal(d.Parameters, &schema); err != nil {
			return nil, nil, nil, fmt.Errorf("bedrock: tool %q: invalid parameters schema: %w", d.Name, err)
		}
		name, desc := d.Name, d.Description
		out = append(out, &brtypes.ToolMemberToolSpec{Value: brtypes.ToolSpecification{
			Name:        &name,
			Description: &desc,
			InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
		}})
	}
	return out, canonToProv, provToCanon, nil
}

// translateResponse decodes a Converse output message into the neutral
// Response shape.
func translateResponse(output *bedrockruntime.ConverseOutput, provToCanon map[string]string) (*provider.Response, error) {
	if output == nil {
		return nil, errors.New("bedrock: response is nil")
	}
	var assistant provider.Message
	assistant.Role = provider.RoleAssistant
	if msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			switch v := block.(type) {
			case *brtypes.ContentBlockMemberText:
				if assistant.Text != "" {
					assistant.Text += "\n"
				}
				assistant.Text += v.Value
			case *brtypes.ContentBlockMemberToolUse:
				name := ""
				if v.Value.Name != nil {
					name = *v.Value.Name
					if canon, ok := provToCanon[name]; ok {
						name = canon
					}
				}
				var id string
				if v.Value.ToolUseId != nil {
					id = *v.Value.ToolUseId
				}
				argsJSON := decodeDocument(v.Value.Input)
				assistant.ToolCalls = append(assistant.ToolCalls, provider.ToolCall{
					ID:   id,
					Kind: "function",
					Function: provider.ToolCallFunction{
						Name:          name,
						ArgumentsJSON: string(argsJSON),
					},
				})
			}
		}
	}

	resp := &provider.Response{Messages: []provider.Message{assistant}}
	if usage := output.Usage; usage != nil {
		resp.Usage = provider.Usage{
			PromptTokens:     int(ptrValue(usage.InputTokens)),
			CompletionTokens: int(ptrValue(usage.OutputTokens)),
		}
	}
	return resp, nil
}

func decodeDocument(doc document.Interface) json.RawMessage {
	if doc == nil {
		return nil
	}
	data, err := doc.MarshalSmithyDocument()
	if err != nil || len(data) == 0 {
		return nil
	}
	return json.RawMessage(data)
}

func ptrValue[T ~int32 | ~int64](ptr *T) T {
	if ptr == nil {
		return 0
	}
	return *ptr
}
