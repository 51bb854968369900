package domain

import "errors"

var (
	// ErrRateLimited signals a rate limit hit, locally or at the provider (HTTP 429).
	ErrRateLimited = errors.New("rate limited")
	// ErrProviderTransient signals a retryable provider failure (network, 5xx).
	ErrProviderTransient = errors.New("transient provider error")
	// ErrAuthFailed signals rejected provider credentials (401/403). Never retried.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrMalformedRequest signals a request the provider rejected as invalid (other 4xx). Never retried.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrDimensionMismatch signals a vector length that differs from the configured dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingUnavailable signals that no embedding can be produced right now.
	// Callers degrade to lexical ranking instead of failing.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrCompletionUnavailable signals a terminal completion provider failure.
	ErrCompletionUnavailable = errors.New("completion unavailable")
	// ErrScopeNotFound signals a scope key with no ingested documents.
	ErrScopeNotFound = errors.New("scope not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidDocument signals an ingested document missing required fields.
	ErrInvalidDocument = errors.New("invalid document")
)

// Retryable reports whether an embedding or completion error is worth
// another attempt. Only rate limits and transient provider failures qualify;
// auth and malformed-request errors are permanent.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderTransient)
}
