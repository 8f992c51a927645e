// Package bedrock adapts the AWS Bedrock Converse API to provider.Adapter.
package bedrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/sagentic-ai/sagentic-af/provider"
)

// RuntimeClient mirrors the subset of the AWS Bedrock runtime client this
// adapter needs, matching *bedrockruntime.Client so callers can pass either
// the real client or a mock in tests.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures a Client.
type Options struct {
	Runtime      RuntimeClient
	DefaultModel string
	MaxTokens    int
	Temperature  float32
}

// Client adapts the Bedrock Converse API.
type Client struct {
	runtime      RuntimeClient
	defaultModel string
	maxTokens    int
	temperature  float32
}

// New constructs a Client around an already-configured RuntimeClient.
func New(opts Options) (*Client, error) {
	if opts.Runtime == nil {
		return nil, errors.New("bedrock: runtime client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("bedrock: default model is required")
	}
	return &Client{
		runtime:      opts.Runtime,
		defaultModel: opts.DefaultModel,
		maxTokens:    opts.MaxTokens,
		temperature:  opts.Temperature,
	}, nil
}

// Complete implements provider.Adapter.
func (c *Client) Complete(ctx context.Context, req *provider.Request) (*provider.Response, provider.Headers, error) {
	if len(req.Messages) == 0 {
		return nil, provider.Headers{}, errors.New("bedrock: messages are required")
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

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(modelID),
		Messages: msgs,
	}
	if len(system) > 0 {
		input.System = system
	}
	if tools != nil {
		input.ToolConfig = &brtypes.ToolConfiguration{Tools: tools}
	}
	maxTokens := c.maxTokens
	if req.Options.MaxTokens != nil {
		maxTokens = *req.Options.MaxTokens
	}
	temp := c.temperature
	if req.Options.Temperature != nil {
		temp = float32(*req.Options.Temperature)
	}
	cfg := &brtypes.InferenceConfiguration{}
	if maxTokens > 0 {
		cfg.MaxTokens = aws.Int32(int32(maxTokens))
	}
	if temp > 0 {
		cfg.Temperature = aws.Float32(temp)
	}
	input.InferenceConfig = cfg

	output, err := c.runtime.Converse(ctx, input)
	if err != nil {
		return nil, provider.Headers{}, fmt.Errorf("bedrock: converse: %w", err)
	}
	// Bedrock's Converse API reports no rate-limit headers; the scheduler
	// falls back to its timer for this adapter.
	resp, err := translateResponse(output, provToCanon)
	if err != nil {
		return nil, provider.Headers{}, err
	}
	return resp, provider.Headers{}, nil
}

// isRateLimited reports whether err represents a throttling condition,
// matching both the Converse API's typed ThrottlingException and a raw HTTP
// 429 response.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 429 {
		return true
	}
	return false
}

// ClassifyError implements provider.Adapter.
func (c *Client) ClassifyError(err error) provider.RetryClass {
	if err == nil {
		return provider.ClassUnknown
	}
	if isRateLimited(err) {
		return provider.ClassTooManyRequests
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ValidationException", "AccessDeniedException", "ResourceNotFoundException":
			return provider.ClassBadRequest
		case "ServiceQuotaExceededException":
			return provider.ClassInsufficientQuota
		case "ModelTimeoutException":
			return provider.ClassTimeout
		case "InternalServerException", "ServiceUnavailableException":
			return provider.ClassServerError
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		switch {
		case status == 400 || status == 401 || status == 403 || status == 404:
			return provider.ClassBadRequest
		case status >= 500:
			return provider.ClassServerError
		}
	}
	return provider.ClassUnknown
}
