// Package errors provides the error types surfaced by the kai assistant.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrConfigInvalid   = errors.New("configuration is invalid")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrNetwork         = errors.New("network failure")
	ErrTimeout         = errors.New("request timed out")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNoContent       = errors.New("no content in response")
)

// ConfigError reports a configuration that cannot be loaded or validated.
// It is fatal to opening the dialog.
type ConfigError struct {
	Path    string // config file path, if known
	Key     string // offending key, if any
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Key != "":
		return fmt.Sprintf("config error: %s (key %q)", e.Message, e.Key)
	case e.Path != "":
		return fmt.Sprintf("config error: %s (%s)", e.Message, e.Path)
	default:
		return fmt.Sprintf("config error: %s", e.Message)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is allows comparison with the ErrConfigInvalid sentinel
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok
}

// NewConfigError creates a new ConfigError
func NewConfigError(path, key, message string, err error) *ConfigError {
	return &ConfigError{Path: path, Key: key, Message: message, Err: err}
}

// AuthError represents a rejected or missing API key
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed: check your API key"
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *AuthError) Is(target error) bool {
	if target == ErrAuthFailed {
		return true
	}
	_, ok := target.(*AuthError)
	return ok
}

// NewAuthError creates a new AuthError
func NewAuthError(statusCode int, message string) *AuthError {
	return &AuthError{StatusCode: statusCode, Message: message}
}

// NetworkError represents an unreachable endpoint or transport failure
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("network failure: %v", e.Err)
	}
	return fmt.Sprintf("network failure reaching %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is allows comparison with sentinel errors
func (e *NetworkError) Is(target error) bool {
	if target == ErrNetwork {
		return true
	}
	_, ok := target.(*NetworkError)
	return ok
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(endpoint string, err error) *NetworkError {
	return &NetworkError{Endpoint: endpoint, Err: err}
}

// TimeoutError represents an exceeded request deadline
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *TimeoutError) Is(target error) bool {
	if target == ErrTimeout {
		return true
	}
	_, ok := target.(*TimeoutError)
	return ok
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// ProviderError represents a non-2xx status or unusable response payload
// from the assistant endpoint
type ProviderError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Body       string // truncated response body for diagnostics
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("provider error at %s: %s", e.Endpoint, e.Message)
}

// Is allows comparison with sentinel errors
func (e *ProviderError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ProviderError)
	return ok
}

// NewProviderError creates a new ProviderError
func NewProviderError(statusCode int, endpoint, message, body string) *ProviderError {
	return &ProviderError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Body:       body,
	}
}
