// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrExtractionTimeout   = errors.New("element did not appear in time")
	ErrNavigationFailure   = errors.New("page failed to load")
	ErrImageDownload       = errors.New("image download failed")
	ErrParseError          = errors.New("failed to parse page")
	ErrSessionClosed       = errors.New("browser session closed")
	ErrBrowserLaunchFailed = errors.New("browser launch failed")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeExtractionTimeout ErrorCode = "EXTRACTION_TIMEOUT"
	ErrCodeNavigation        ErrorCode = "NAVIGATION_FAILURE"
	ErrCodeImageDownload     ErrorCode = "IMAGE_DOWNLOAD_FAILURE"
	ErrCodeBrowserLaunch     ErrorCode = "BROWSER_LAUNCH"
	ErrCodeParseError        ErrorCode = "PARSE_ERROR"
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is matches another EngineError by code, or the sentinel for this code.
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	if s := sentinelFor(e.Code); s != nil && target == s {
		return true
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// ExtractionTimeout reports that selector never became visible.
func ExtractionTimeout(selector string, err error) *EngineError {
	return NewEngineError(ErrCodeExtractionTimeout, fmt.Sprintf("waiting for %q", selector), err).
		WithDetail("selector", selector)
}

// NavigationFailure reports that url could not be loaded.
func NavigationFailure(url string, err error) *EngineError {
	return NewEngineError(ErrCodeNavigation, fmt.Sprintf("navigating to %s", url), err).
		WithDetail("url", url)
}

// ImageDownloadFailure reports a single failed image fetch.
func ImageDownloadFailure(url string, err error) *EngineError {
	return NewEngineError(ErrCodeImageDownload, fmt.Sprintf("downloading %s", url), err).
		WithDetail("url", url)
}

// IsTimeout reports whether err is an extraction timeout or a deadline expiry.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrExtractionTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// CodeOf returns the engine error code carried by err, or "" when there is none.
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

func sentinelFor(code ErrorCode) error {
	switch code {
	case ErrCodeExtractionTimeout:
		return ErrExtractionTimeout
	case ErrCodeNavigation:
		return ErrNavigationFailure
	case ErrCodeImageDownload:
		return ErrImageDownload
	case ErrCodeBrowserLaunch:
		return ErrBrowserLaunchFailed
	case ErrCodeParseError:
		return ErrParseError
	}
	return nil
}
