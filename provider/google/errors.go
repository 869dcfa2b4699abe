package google

import (
	"errors"
	"fmt"

	"github.com/textloom/loom"
	"google.golang.org/genai"
)

// BlockedError indicates the request was blocked by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

// wrapError wraps a Google GenAI error with loom error categorization.
// Google's genai.APIError doesn't expose headers, so Retry-After is not
// available.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		// Not an API error, return as-is (likely a network error)
		return err
	}

	code := apiErr.Code
	category := categorizeStatusCode(code)
	msg := err.Error()

	switch category {
	case loom.ErrorTransient:
		return loom.NewTransientError(msg, code, err)
	case loom.ErrorPermanent:
		return loom.NewPermanentError(msg, code, err)
	case loom.ErrorUserInput:
		return loom.NewUserInputError(msg, code, err)
	default:
		return err
	}
}

// categorizeStatusCode determines the error category from an HTTP status code.
func categorizeStatusCode(code int) loom.ErrorCategory {
	switch {
	case code == 429:
		return loom.ErrorTransient // Rate limited
	case code >= 500 && code < 600:
		return loom.ErrorTransient // Server error
	case code == 401 || code == 403:
		return loom.ErrorPermanent // Authentication/authorization
	case code == 400 || code == 404 || code == 422:
		return loom.ErrorUserInput // Bad request or not found
	default:
		return loom.ErrorPermanent // Default to permanent for unknown codes
	}
}
