// Package openairesponses adapts the OpenAI Responses API to
// provider.Adapter using github.com/openai/openai-go. This dialect is not
// distinguished from the Chat Completions dialect upstream; it is kept
// separate here because the two have materially different wire shapes
// (Responses supports server-hosted builtin tools such as apply_patch).
package openairesponses

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/sagentic-ai/sagentic-af/provider"
)

// ResponsesClient is the subset of *oai.ResponseService this adapter needs.
type ResponsesClient interface {
	New(ctx context.Context, params responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

// Options configures a Client.
type Options struct {
	DefaultModel string
}

// Client adapts the Responses API.
type Client struct {
	resp  ResponsesClient
	model string
}

// New builds a Client around an already-configured ResponsesClient.
func New(resp ResponsesClient, opts Options) (*Client, error) {
	if resp == nil {
		return nil, errors.New("openairesponses: responses client is required")
	}
	modelID := strings.TrimSpace(opts.DefaultModel)
	if modelID == "" {
		return nil, errors.New("openairesponses: default model is required")
	}
	return &Client{resp: resp, model: modelID}, nil
}

// NewFromAPIKey builds a Client from a raw API key using the default SDK
// transport.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	c := oai.NewClient(option.WithAPIKey(apiKey))
	return New(&c.Responses, Options{DefaultModel: defaultModel})
}

// Complete implements provider.Adapter.
func (c *Client) Complete(ctx context.Context, req *provider.Request) (*provider.Response, provider.Headers, error) {
	if len(req.Messages) == 0 {
		return nil, provider.Headers{}, errors.New("openairesponses: messages are required")
	}
	modelID := req.ModelID
	if modelID == "" {
		modelID = c.model
	}

	input, err := encodeInput(req.Messages)
	if err != nil {
		return nil, provider.Headers{}, err
	}
	tools, err := encodeTools(req.Options.Tools)
	if err != nil {
		return nil, provider.Headers{}, err
	}

	params := responses.ResponseNewParams{
		Model: oai.ChatModel(modelID),
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: input},
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	if req.Options.Temperature != nil {
		params.Temperature = oai.Float(*req.Options.Temperature)
	}
	if req.Options.MaxCompletionTokens != nil {
		params.MaxOutputTokens = oai.Int(int64(*req.Options.MaxCompletionTokens))
	}
	if req.Options.ReasoningEffort != "" {
		params.Reasoning = oai.ReasoningParam{Effort: oai.ReasoningEffort(req.Options.ReasoningEffort)}
	}

	var raw *http.Response
	resp, err := c.resp.New(ctx, params, option.WithResponseInto(&raw))
	headers := headersFromResponse(raw)
	if err != nil {
		return nil, headers, fmt.Errorf("openairesponses: responses.new: %w", err)
	}

	out, err := translateResponse(resp)
	if err != nil {
		return nil, headers, err
	}
	return out, headers, nil
}

func headersFromResponse(raw *http.Response) provider.Headers {
	if raw == nil {
		return provider.Headers{}
	}
	h := raw.Header
	var headers provider.Headers
	if v, ok := provider.ParseIntHeader(h.Get("x-ratelimit-limit-requests")); ok {
		headers.RequestLimit = v
	}
	if v, ok := provider.ParseIntHeader(h.Get("x-ratelimit-remaining-requests")); ok {
		headers.RequestRemaining = v
	}
	if d, ok := provider.ParseResetDuration(h.Get("x-ratelimit-reset-requests"), time.Now()); ok {
		headers.RequestResetDuration, headers.HasRequestReset = d, true
	}
	if v, ok := provider.ParseIntHeader(h.Get("x-ratelimit-limit-tokens")); ok {
		headers.TokenLimit = v
	}
	if v, ok := provider.ParseIntHeader(h.Get("x-ratelimit-remaining-tokens")); ok {
		headers.TokenRemaining = v
	}
	if d, ok := provider.ParseResetDuration(h.Get("x-ratelimit-reset-tokens"), time.Now()); ok {
		headers.TokenResetDuration, headers.HasTokenReset = d, true
	}
	return headers
}

// ClassifyError implements provider.Adapter.
func (c *Client) ClassifyError(err error) provider.RetryClass {
	if err == nil {
		return provider.ClassUnknown
	}
	var apiErr *oai.Error
	if !errors.As(err, &apiErr) {
		return provider.ClassUnknown
	}
	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		return provider.ClassTooManyRequests
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return provider.ClassBadRequest
	case http.StatusPaymentRequired:
		return provider.ClassInsufficientQuota
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return provider.ClassTimeout
	}
	if apiErr.StatusCode >= 500 {
		return provider.ClassServerError
	}
	return provider.ClassUnknown
}
