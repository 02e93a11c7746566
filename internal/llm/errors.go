package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// Transport failure classes. The orchestrator treats all three identically
// as retryable; they are kept distinct for diagnostics and run log warnings.
var (
	ErrRateLimited = errors.New("llm: rate limited")
	ErrTimeout     = errors.New("llm: request timed out")
	ErrProvider    = errors.New("llm: provider error")
)

// IsTransport reports whether err is a retryable transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrProvider)
}

// classifyError maps raw client/HTTP errors onto the transport classes.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("%w: %v", ErrProvider, err)
}

// classifyStatus maps an HTTP status code onto the transport classes.
func classifyStatus(status int, err error) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
}
