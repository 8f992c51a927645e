package openaichat

import (
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sagentic-ai/sagentic-af/provider"
)

// ClassifyError implements provider.Adapter.
func (c *Client) ClassifyError(err error) provider.RetryClass {
	if err == nil {
		return provider.ClassUnknown
	}
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return provider.ClassUnknown
	}
	switch apiErr.HTTPStatusCode {
	case http.StatusTooManyRequests:
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			return provider.ClassInsufficientQuota
		}
		return provider.ClassTooManyRequests
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return provider.ClassBadRequest
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return provider.ClassTimeout
	}
	if apiErr.HTTPStatusCode >= 500 {
		return provider.ClassServerError
	}
	return provider.ClassUnknown
}
