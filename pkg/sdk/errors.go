package matchrank

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors mapped from API response codes. Test with errors.Is.
var (
	ErrUnauthorized          = errors.New("matchrank: unauthorized")
	ErrNotFound              = errors.New("matchrank: not found")
	ErrBadRequest            = errors.New("matchrank: bad request")
	ErrRateLimited           = errors.New("matchrank: rate limited")
	ErrServiceUnavailable    = errors.New("matchrank: service unavailable")
	ErrCompletionUnavailable = errors.New("matchrank: completion unavailable")
)

// APIError carries the raw error body of a failed request.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("matchrank: %s (%d): %s", e.Code, e.Status, e.Message)
}

// Unwrap maps the response onto a sentinel for errors.Is checks.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusServiceUnavailable:
		return ErrServiceUnavailable
	case http.StatusBadGateway:
		return ErrCompletionUnavailable
	default:
		return nil
	}
}

func apiErrorFrom(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}
	return apiErr
}
