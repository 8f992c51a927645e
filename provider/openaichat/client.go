// Package openaichat adapts the OpenAI Chat Completions API to
// provider.Adapter using github.com/sashabaranov/go-openai.
package openaichat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sagentic-ai/sagentic-af/provider"
)

// ChatClient captures the subset of the go-openai client this adapter needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures a Client.
type Options struct {
	Client       ChatClient
	DefaultModel string
}

// Client adapts the Chat Completions API.
type Client struct {
	chat  ChatClient
	model string
}

// New builds a Client from an already-configured ChatClient.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("openaichat: client is required")
	}
	modelID := strings.TrimSpace(opts.DefaultModel)
	if modelID == "" {
		return nil, errors.New("openaichat: default model is required")
	}
	return &Client{chat: opts.Client, model: modelID}, nil
}

// NewFromAPIKey constructs a Client using the default go-openai HTTP
// transport.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openaichat: api key is required")
	}
	return New(Options{Client: openai.NewClient(apiKey), DefaultModel: defaultModel})
}

// Complete implements provider.Adapter.
func (c *Client) Complete(ctx context.Context, req *provider.Request) (*provider.Response, provider.Headers, error) {
	if len(req.Messages) == 0 {
		return nil, provider.Headers{}, errors.New("openaichat: messages are required")
	}
	modelID := strings.TrimSpace(req.ModelID)
	if modelID == "" {
		modelID = c.model
	}

	messages, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, provider.Headers{}, err
	}
	tools, err := encodeTools(req.Options.Tools)
	if err != nil {
		return nil, provider.Headers{}, err
	}

	request := openai.ChatCompletionRequest{
		Model:    modelID,
		Messages: messages,
		Tools:    tools,
	}
	if req.Options.Temperature != nil {
		request.Temperature = float32(*req.Options.Temperature)
	}
	if req.Options.MaxTokens != nil {
		request.MaxTokens = *req.Options.MaxTokens
	}
	if req.Options.ResponseFormatJSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	if tc := encodeToolChoice(req.Options.ToolChoice); tc != nil {
		request.ToolChoice = tc
	}

	resp, err := c.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, headersFromError(err), fmt.Errorf("openaichat: chat completion: %w", err)
	}
	return translateResponse(resp), provider.Headers{}, nil
}

func encodeMessages(msgs []provider.Message) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case provider.RoleSystem:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Text})
		case provider.RoleUser:
			msg, err := encodeUserMessage(m)
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		case provider.RoleAssistant:
			out = append(out, encodeAssistantMessage(m))
		case provider.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Text,
				ToolCallID: m.ToolCallID,
			})
		default:
			return nil, fmt.Errorf("openaichat: unsupported role %q", m.Role)
		}
	}
	return out, nil
}

func encodeUserMessage(m provider.Message) (openai.ChatCompletionMessage, error) {
	if !m.IsMultipart {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Text}, nil
	}
	parts := make([]openai.ChatMessagePart, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Kind {
		case provider.ContentText:
			parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text})
		case provider.ContentImageURL:
			if strings.HasPrefix(p.ImageURL, "data:") {
				return openai.ChatCompletionMessage{}, errors.New("openaichat: base64/data image transport is not implemented")
			}
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL, Detail: openai.ImageURLDetail(p.Detail)},
			})
		default:
			return openai.ChatCompletionMessage{}, fmt.Errorf("openaichat: unsupported content part kind %q", p.Kind)
		}
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}, nil
}

func encodeAssistantMessage(m provider.Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Text}
	for _, c := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   c.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      c.Function.Name,
				Arguments: c.Function.ArgumentsJSON,
			},
		})
	}
	return out
}

func encodeTools(defs []provider.ToolDefinition) ([]openai.Tool, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	tools := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  json.RawMessage(def.Parameters),
			},
		})
	}
	return tools, nil
}

func encodeToolChoice(choice *provider.ToolChoice) any {
	if choice == nil {
		return nil
	}
	switch choice.Mode {
	case provider.ToolChoiceAuto, "":
		return "auto"
	case provider.ToolChoiceNone:
		return "none"
	case provider.ToolChoiceRequired:
		return "required"
	case provider.ToolChoiceFunction:
		return openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: choice.FunctionName},
		}
	default:
		return nil
	}
}

// translateResponse decodes the first choice's message into the neutral
// Response shape. parseToolArguments is defensive: arguments that are not
// valid JSON are wrapped as {"raw": ...} rather than failing the call.
func translateResponse(resp openai.ChatCompletionResponse) *provider.Response {
	out := &provider.Response{
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}
	if len(resp.Choices) == 0 {
		return out
	}
	msg := resp.Choices[0].Message
	assistant := provider.Message{Role: provider.RoleAssistant, Text: msg.Content}
	for _, call := range msg.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, provider.ToolCall{
			ID:   call.ID,
			Kind: "function",
			Function: provider.ToolCallFunction{
				Name:          call.Function.Name,
				ArgumentsJSON: parseToolArguments(call.Function.Arguments),
			},
		})
	}
	out.Messages = []provider.Message{assistant}
	return out
}

// parseToolArguments validates that raw is well-formed JSON before handing
// it onward; malformed arguments are wrapped so the tool-call loop reports a
// clear failure instead of a downstream unmarshal panic.
func parseToolArguments(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "{}"
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		wrapped, _ := json.Marshal(map[string]string{"raw": raw})
		return string(wrapped)
	}
	return raw
}

// headersFromError returns the rate-limit Headers for a failed call. go-openai
// exposes no response headers, neither on success nor on *openai.APIError, so
// the result carries no limit, remaining or reset values in any case.
func headersFromError(err error) provider.Headers {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return provider.Headers{}
	}
	var headers provider.Headers
	if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		headers.RequestRemaining = 0
	}
	return headers
}
