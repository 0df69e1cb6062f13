package errors

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNavigation  ErrorType = "navigation"
	ErrorTypeAuthExpired ErrorType = "auth_expired"
	ErrorTypeSession     ErrorType = "session"
	ErrorTypeExtraction  ErrorType = "extraction"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeBrowser     ErrorType = "browser"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a scraping error with type information
type Error struct {
	Type    ErrorType
	Message string
	URL     string
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s error at %s: %s", e.Type, e.URL, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a typed error
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// NewAt creates a typed error bound to a page URL
func NewAt(errorType ErrorType, url, message string) *Error {
	return &Error{Type: errorType, Message: message, URL: url}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNavigation, ErrorTypeBrowser:
		return true
	case ErrorTypeAuthExpired, ErrorTypeSession, ErrorTypeNotFound, ErrorTypeExtraction:
		return false
	default:
		return false
	}
}

// IsFatal reports whether an error invalidates the whole authenticated
// session. Fatal errors must propagate to the orchestration layer instead
// of being absorbed as per-item sentinel data: continuing on an expired
// session would silently produce "not found" for every subsequent item.
func IsFatal(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeAuthExpired, ErrorTypeSession:
		return true
	default:
		return false
	}
}
