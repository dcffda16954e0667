// internal/providers/provider.go
//
// Package providers contains the adapters that execute a single query text
// against one AI provider. Every adapter satisfies AIProvider and reports
// failures as *ProviderError so the run orchestrator can make retry decisions
// without knowing which SDK produced the error.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error kinds carried on ProviderError.
const (
	ErrKindRateLimited    = "rate_limited"
	ErrKindTimeout        = "timeout"
	ErrKindServerError    = "server_error"
	ErrKindInvalidRequest = "invalid_request"
	ErrKindUnknown        = "unknown"
)

// Result is the normalized outcome of one successful provider call.
type Result struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// AIProvider executes one query against one AI model.
type AIProvider interface {
	Name() string
	Execute(ctx context.Context, queryText, model string) (*Result, error)
}

// ProviderError classifies a failed provider call. Retryable mirrors Kind:
// rate_limited, timeout and server_error are retryable, everything else is
// not.
type ProviderError struct {
	Provider  string
	Kind      string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// newProviderError builds a ProviderError for the given kind, deriving
// Retryable from the kind.
func newProviderError(provider, kind string, err error) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Kind:      kind,
		Retryable: kind == ErrKindRateLimited || kind == ErrKindTimeout || kind == ErrKindServerError,
		Err:       err,
	}
}

// classifyStatus maps an HTTP status code from a provider API to an error
// kind.
func classifyStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrKindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrKindTimeout
	case status >= 500:
		return ErrKindServerError
	case status >= 400:
		return ErrKindInvalidRequest
	default:
		return ErrKindUnknown
	}
}

// classifyTransportErr maps a transport-level error (no HTTP status available)
// to an error kind.
func classifyTransportErr(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrKindTimeout
	}
	return ErrKindUnknown
}
