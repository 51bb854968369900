package openai

import (
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hireloop/matchrank/internal/domain"
)

// classifyAPIError maps provider failures onto the domain error taxonomy:
// 429 is a rate limit, 5xx and network faults are transient, 401/403 are
// auth failures, remaining 4xx are malformed requests.
func classifyAPIError(err error) error {
	status := 0

	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	}

	sentinel := sentinelForStatus(status)
	if status == 0 {
		return fmt.Errorf("provider request failed: %v: %w", err, sentinel)
	}
	return fmt.Errorf("provider API error %d: %v: %w", status, err, sentinel)
}

func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case status >= 500:
		return domain.ErrProviderTransient
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrAuthFailed
	case status >= 400:
		return domain.ErrMalformedRequest
	default:
		// No HTTP status at all means the request never completed.
		return domain.ErrProviderTransient
	}
}

// errorClass is the metrics label for a classified error.
func errorClass(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrAuthFailed):
		return "auth"
	case errors.Is(err, domain.ErrMalformedRequest):
		return "malformed"
	default:
		return "transient"
	}
}
