package llm

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/api/googleapi"
)

// ErrUnauthorized is returned when a provider refuses the API key.
var ErrUnauthorized = errors.New("llm provider rejected the API key")

// StatusCode returns the HTTP status carried by a provider error, or 0 when
// err did not come from a provider response.
func StatusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	var aerr *anthropic.Error
	if errors.As(err, &aerr) {
		return aerr.StatusCode
	}
	return 0
}

// IsAuthError reports whether err is the provider refusing the credentials.
// Such a failure belongs to the key, not to the provider.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	switch StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	// Gemini answers a bad key with 400 and an API_KEY_INVALID reason
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
		return strings.Contains(gerr.Body, "API_KEY_INVALID") || strings.Contains(gerr.Message, "API key not valid")
	}
	return false
}
