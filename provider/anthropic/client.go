// Package anthropic adapts the Anthropic Messages API to provider.Adapter.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sagentic-ai/sagentic-af/provider"
)

// MessagesClient is the subset of *sdk.MessageService this adapter needs,
// narrowed to make it mockable in tests.
type MessagesClient interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures a Client.
type Options struct {
	// DefaultModel is used when a Request does not name one.
	DefaultModel string
	// MaxTokens bounds completions that do not specify their own limit.
	MaxTokens int
	// Temperature is the fallback sampling temperature.
	Temperature float64
}

// Client adapts the Anthropic Messages API.
type Client struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int
	temperature  float64
}

// New constructs a Client around an already-configured MessagesClient.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("anthropic: default model is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{
		msg:          msg,
		defaultModel: opts.DefaultModel,
		maxTokens:    maxTokens,
		temperature:  opts.Temperature,
	}, nil
}

// NewFromAPIKey builds a Client from a raw API key using the default SDK
// transport.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	c := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&c.Messages, Options{DefaultModel: defaultModel})
}

// Complete implements provider.Adapter.
func (c *Client) Complete(ctx context.Context, req *provider.Request) (*provider.Response, provider.Headers, error) {
	if len(req.Messages) == 0 {
		return nil, provider.Headers{}, errors.New("anthropic: messages are required")
	}
	modelID := req.ModelID
	if modelID == "" {
		modelID = c.defaultModel
	}

	tools, canonToProv, provToCanon, err := encodeTools(req.Options.Tools)
	if err != nil {
		return nil, provider.Headers{}, err
	}

	msgs, system, err := encodeMessages(req.Messages, canonToProv)
	if err != nil {
		return nil, provider.Headers{}, err
	}

	params := sdk.MessageNewParams{
		MaxTokens: int64(c.maxTokens),
		Messages:  msgs,
		Model:     sdk.Model(modelID),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	temp := c.temperature
	if req.Options.Temperature != nil {
		temp = *req.Options.Temperature
	}
	if temp > 0 {
		params.Temperature = sdk.Float(temp)
	}
	if choice, err := encodeToolChoice(req.Options.ToolChoice, canonToProv); err != nil {
		return nil, provider.Headers{}, err
	} else if choice != nil {
		params.ToolChoice = *choice
	}

	var raw *http.Response
	msg, err := c.msg.New(ctx, params, option.WithResponseInto(&raw))
	headers := headersFromResponse(raw)
	if err != nil {
		return nil, headers, fmt.Errorf("anthropic: messages.new: %w", err)
	}

	resp, err := translateResponse(msg, provToCanon)
	if err != nil {
		return nil, headers, err
	}
	return resp, headers, nil
}

// headersFromResponse normalizes Anthropic's rate-limit headers. Anthropic
// reports requests and input-tokens windows separately; this adapter maps
// them directly onto the scheduler's request/token pool vocabulary.
func headersFromResponse(raw *http.Response) provider.Headers {
	if raw == nil {
		return provider.Headers{}
	}
	h := raw.Header
	var headers provider.Headers
	if v, ok := provider.ParseIntHeader(h.Get("anthropic-ratelimit-requests-limit")); ok {
		headers.RequestLimit = v
	}
	if v, ok := provider.ParseIntHeader(h.Get("anthropic-ratelimit-requests-remaining")); ok {
		headers.RequestRemaining = v
	}
	if d, ok := provider.ParseResetDuration(h.Get("anthropic-ratelimit-requests-reset"), time.Now()); ok {
		headers.RequestResetDuration, headers.HasRequestReset = d, true
	}
	if v, ok := provider.ParseIntHeader(h.Get("anthropic-ratelimit-input-tokens-limit")); ok {
		headers.TokenLimit = v
	}
	if v, ok := provider.ParseIntHeader(h.Get("anthropic-ratelimit-input-tokens-remaining")); ok {
		headers.TokenRemaining = v
	}
	if d, ok := provider.ParseResetDuration(h.Get("anthropic-ratelimit-input-tokens-reset"), time.Now()); ok {
		headers.TokenResetDuration, headers.HasTokenReset = d, true
	}
	return headers
}

// ClassifyError implements provider.Adapter.
func (c *Client) ClassifyError(err error) provider.RetryClass {
	if err == nil {
		return provider.ClassUnknown
	}
	var apiErr *sdk.Error
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
