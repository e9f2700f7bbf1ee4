package errors

import "errors"

// IsConfigError reports whether err is a configuration failure.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNetworkError reports whether err is a transport failure. Timeouts count
// as network failures for user-facing reporting.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	return IsTimeoutError(err)
}

// IsTimeoutError reports whether err is an exceeded deadline.
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsProviderError reports whether err is a provider-side failure.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// GetHTTPStatus extracts the HTTP status code from structured errors.
// Returns 0 when the error carries no status.
func GetHTTPStatus(err error) int {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}

// GetResponseBody extracts the provider response body from structured
// errors, if one was captured.
func GetResponseBody(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Body
	}
	return ""
}
