package openai

import (
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hireloop/matchrank/internal/domain"
)

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "429 is rate limited",
			err:  &openai.APIError{HTTPStatusCode: 429, Message: "quota"},
			want: domain.ErrRateLimited,
		},
		{
			name: "500 is transient",
			err:  &openai.APIError{HTTPStatusCode: 500, Message: "oops"},
			want: domain.ErrProviderTransient,
		},
		{
			name: "503 is transient",
			err:  &openai.RequestError{HTTPStatusCode: 503},
			want: domain.ErrProviderTransient,
		},
		{
			name: "401 is auth",
			err:  &openai.APIError{HTTPStatusCode: 401, Message: "bad key"},
			want: domain.ErrAuthFailed,
		},
		{
			name: "403 is auth",
			err:  &openai.RequestError{HTTPStatusCode: 403},
			want: domain.ErrAuthFailed,
		},
		{
			name: "400 is malformed",
			err:  &openai.APIError{HTTPStatusCode: 400, Message: "bad input"},
			want: domain.ErrMalformedRequest,
		},
		{
			name: "network error without status is transient",
			err:  errors.New("dial tcp: connection refused"),
			want: domain.ErrProviderTransient,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyAPIError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Fatalf("classifyAPIError(%v) = %v, want sentinel %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryableMatchesTaxonomy(t *testing.T) {
	if !domain.Retryable(classifyAPIError(&openai.APIError{HTTPStatusCode: 429})) {
		t.Fatal("rate limit must be retryable")
	}
	if !domain.Retryable(classifyAPIError(&openai.APIError{HTTPStatusCode: 502})) {
		t.Fatal("5xx must be retryable")
	}
	if domain.Retryable(classifyAPIError(&openai.APIError{HTTPStatusCode: 401})) {
		t.Fatal("auth errors must not be retryable")
	}
	if domain.Retryable(classifyAPIError(&openai.APIError{HTTPStatusCode: 422})) {
		t.Fatal("malformed requests must not be retryable")
	}
}

func TestErrorClassLabels(t *testing.T) {
	tests := map[string]error{
		"rate_limited": domain.ErrRateLimited,
		"auth":         domain.ErrAuthFailed,
		"malformed":    domain.ErrMalformedRequest,
		"transient":    domain.ErrProviderTransient,
	}
	for label, sentinel := range tests {
		if got := errorClass(sentinel); got != label {
			t.Errorf("errorClass(%v) = %q, want %q", sentinel, got, label)
		}
	}
}
