// Package server hosts the uaparser HTTP service: error codes here, the
// runtime in app, routing and middleware in httpx, handlers in api.
package server

import (
	"errors"
	"fmt"
)

const (
	errorCodeInvalidPort   = "SERVER_INVALID_PORT"
	errorCodeInvalidConfig = "SERVER_INVALID_CONFIG"
	errorCodeAppInitFailed = "SERVER_INIT_FAILED"
	errorCodeRuntimeFailed = "SERVER_RUNTIME_FAILED"
)

var (
	// ErrInvalidPort indicates an invalid port flag value.
	ErrInvalidPort = errors.New("invalid port")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with a server error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// NewInvalidPortError formats an invalid port error with context.
func NewInvalidPortError(port int) error {
	return WithErrorCode(fmt.Errorf("%w: invalid port %d: must be between 1 and 65535", ErrInvalidPort, port), errorCodeInvalidPort)
}

// WrapInvalidConfig annotates server config validation errors.
func WrapInvalidConfig(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("invalid server configuration: %w", err), errorCodeInvalidConfig)
}

// WrapAppInit annotates server app creation failures.
func WrapAppInit(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeAppInitFailed)
}

// WrapRuntime annotates server runtime failures.
func WrapRuntime(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeRuntimeFailed)
}

// ErrorCode resolves a server error to its error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	if errors.Is(err, ErrInvalidPort) {
		return errorCodeInvalidPort
	}
	return errorCodeRuntimeFailed
}

// ExitCode maps server errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrInvalidPort),
		ErrorCode(err) == errorCodeInvalidConfig:
		return 2
	case ErrorCode(err) == errorCodeAppInitFailed:
		return 7
	default:
		return 1
	}
}

// Suggestions provides CLI hints for server errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeInvalidPort:
		return []string{
			"Use a port between 1 and 65535",
			"Example:                 uaparser serve --server.port 8080",
		}
	case errorCodeInvalidConfig:
		return []string{
			"Check server.* values in the config file or UAPARSER_SERVER_* variables",
			"Retry with --debug for detailed validation errors",
		}
	case errorCodeAppInitFailed:
		return []string{
			"Retry with verbose logging: uaparser serve --debug",
			"Validate the rule file:     uaparser rules validate <file>",
		}
	case errorCodeRuntimeFailed:
		return []string{
			"Check server logs for runtime errors",
			"Ensure no other process is using the selected port",
		}
	default:
		return nil
	}
}
