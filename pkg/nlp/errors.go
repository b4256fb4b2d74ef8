package nlp

import "errors"

// Common client errors.
var (
	// ErrRateLimit indicates the rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrEmptyResponse indicates the model returned no usable content.
	ErrEmptyResponse = errors.New("empty response from language model")
)

// RateLimitError is returned when the provider throttles requests.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return ErrRateLimit.Error()
	}
	return e.Message
}

// Is matches any *RateLimitError and ErrRateLimit.
func (e *RateLimitError) Is(target error) bool {
	if target == ErrRateLimit {
		return true
	}
	_, ok := target.(*RateLimitError)
	return ok
}

// NewRateLimitError creates a rate limit error with an optional message.
func NewRateLimitError(message ...string) *RateLimitError {
	err := &RateLimitError{}
	if len(message) > 0 {
		err.Message = message[0]
	}
	return err
}

// EmptyResponseError reports a completion with no content.
type EmptyResponseError struct {
	Model string
}

func (e *EmptyResponseError) Error() string {
	if e.Model == "" {
		return ErrEmptyResponse.Error()
	}
	return ErrEmptyResponse.Error() + " (" + e.Model + ")"
}

// Is matches any *EmptyResponseError and ErrEmptyResponse.
func (e *EmptyResponseError) Is(target error) bool {
	if target == ErrEmptyResponse {
		return true
	}
	_, ok := target.(*EmptyResponseError)
	return ok
}
