package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents different types of errors
type ErrorType int

const (
	ErrInvalidFormat ErrorType = iota
	ErrUpstream
	ErrNetwork
	ErrResolutionFailed
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// ResolutionReason says why no download link could be produced
type ResolutionReason int

const (
	ReasonNone ResolutionReason = iota
	ReasonNotFound
	ReasonExhausted
)

// TeraboxError represents a share-service error with detailed information
type TeraboxError struct {
	Code       int                    `json:"errno"`
	Message    string                 `json:"errmsg"`
	Type       ErrorType              `json:"type"`
	Severity   ErrorSeverity          `json:"severity"`
	Reason     ResolutionReason       `json:"reason,omitempty"`
	URL        string                 `json:"url,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Err        error                  `json:"-"`
}

// Error implements the error interface
func (e *TeraboxError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("terabox error (code: %d, type: %s)", e.Code, e.Type.String())
}

// Unwrap exposes the underlying cause
func (e *TeraboxError) Unwrap() error {
	return e.Err
}

// DetailedError returns a detailed error message with all available information
func (e *TeraboxError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s Error", e.Severity.String(), e.Type.String()))

	if e.Code != 0 {
		parts = append(parts, fmt.Sprintf("Code: %d", e.Code))
	}
	if e.Message != "" {
		parts = append(parts, fmt.Sprintf("Message: %s", e.Message))
	}
	if e.Reason != ReasonNone {
		parts = append(parts, fmt.Sprintf("Reason: %s", e.Reason.String()))
	}

	// URL is redacted, upstream links carry signatures in the query
	if e.URL != "" {
		parts = append(parts, fmt.Sprintf("URL: %s", redactSensitiveURL(e.URL)))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Err != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", e.Err))
	}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("\nSuggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, "\n")
}

// HTTPStatus maps the error to the status the facade answers with
func (e *TeraboxError) HTTPStatus() int {
	switch e.Type {
	case ErrInvalidFormat:
		return http.StatusBadRequest
	case ErrUpstream:
		return http.StatusBadGateway
	case ErrNetwork:
		return http.StatusGatewayTimeout
	case ErrResolutionFailed:
		if e.Reason == ReasonNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// String returns the string representation of ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrInvalidFormat:
		return "InvalidFormat"
	case ErrUpstream:
		return "Upstream"
	case ErrNetwork:
		return "Network"
	case ErrResolutionFailed:
		return "ResolutionFailed"
	default:
		return "Unknown"
	}
}

// String returns the string representation of ErrorSeverity
func (es ErrorSeverity) String() string {
	switch es {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// String returns the string representation of ResolutionReason
func (r ResolutionReason) String() string {
	switch r {
	case ReasonNotFound:
		return "NotFound"
	case ReasonExhausted:
		return "Exhausted"
	default:
		return "None"
	}
}

// NewTeraboxError creates a new TeraboxError with detailed information
func NewTeraboxError(code int, message string, errorType ErrorType) *TeraboxError {
	return &TeraboxError{
		Code:       code,
		Message:    message,
		Type:       errorType,
		Severity:   getDefaultSeverity(errorType),
		Suggestion: getDefaultSuggestion(errorType),
		Context:    make(map[string]interface{}),
	}
}

// WithSuggestion adds a custom suggestion to the error
func (e *TeraboxError) WithSuggestion(suggestion string) *TeraboxError {
	e.Suggestion = suggestion
	return e
}

// WithURL adds URL context to the error (will be redacted in logs)
func (e *TeraboxError) WithURL(url string) *TeraboxError {
	e.URL = url
	return e
}

// WithCause records the underlying error
func (e *TeraboxError) WithCause(err error) *TeraboxError {
	e.Err = err
	return e
}

// WithContext adds context information to the error
func (e *TeraboxError) WithContext(key string, value interface{}) *TeraboxError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field      string                 `json:"field"`
	Message    string                 `json:"message"`
	Value      interface{}            `json:"value,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := []string{fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, " - ")
}

// DetailedError returns a detailed validation error message
func (e *ValidationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Validation Error for field '%s'", e.Field))
	parts = append(parts, fmt.Sprintf("Message: %s", e.Message))

	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("Provided value: %v", e.Value))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("\nSuggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, "\n")
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewValidationErrorWithValue creates a ValidationError with the invalid value
func NewValidationErrorWithValue(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Context: make(map[string]interface{}),
	}
}

// WithSuggestion adds a suggestion to the validation error
func (e *ValidationError) WithSuggestion(suggestion string) *ValidationError {
	e.Suggestion = suggestion
	return e
}

// WithContext adds context to the validation error
func (e *ValidationError) WithContext(key string, value interface{}) *ValidationError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func getDefaultSuggestion(errorType ErrorType) string {
	switch errorType {
	case ErrInvalidFormat:
		return "Provide a share link such as https://terabox.com/s/1AbC123 or the bare share code"
	case ErrUpstream:
		return "The share service rejected the request. Check that the share still exists and the cookie is valid"
	case ErrNetwork:
		return "The share service did not answer in time. Try again later"
	case ErrResolutionFailed:
		return "Verify the fs_id belongs to this share and that the cookie has download permission"
	default:
		return "Please check the error details and try again"
	}
}

func getDefaultSeverity(errorType ErrorType) ErrorSeverity {
	switch errorType {
	case ErrNetwork:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// redactSensitiveURL redacts sensitive information from URLs
func redactSensitiveURL(url string) string {
	if i := strings.Index(url, "?"); i >= 0 {
		return url[:i] + "?[REDACTED]"
	}
	return url
}

// Common error constructors

// NewInvalidFormatError reports an input that is not a share reference
func NewInvalidFormatError(input string) *TeraboxError {
	return NewTeraboxError(0, "Invalid TeraBox URL format", ErrInvalidFormat).
		WithContext("input", input)
}

// NewUpstreamError carries a non-zero errno envelope verbatim
func NewUpstreamError(code int, message string) *TeraboxError {
	if message == "" {
		message = fmt.Sprintf("API Error: %d", code)
	}
	return NewTeraboxError(code, message, ErrUpstream)
}

// NewNetworkError wraps a transport failure
func NewNetworkError(operation string, err error) *TeraboxError {
	return NewTeraboxError(0, fmt.Sprintf("network error during %s", operation), ErrNetwork).
		WithCause(err)
}

// NewResolutionFailedError reports that every download-link strategy failed
func NewResolutionFailedError(reason ResolutionReason) *TeraboxError {
	message := "Could not get download link"
	if reason == ReasonNotFound {
		message = "File not found"
	}
	err := NewTeraboxError(0, message, ErrResolutionFailed)
	err.Reason = reason
	return err
}

// AsTeraboxError extracts a TeraboxError from an error chain
func AsTeraboxError(err error) (*TeraboxError, bool) {
	var te *TeraboxError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsErrorType reports whether err carries a TeraboxError of the given type
func IsErrorType(err error, errorType ErrorType) bool {
	te, ok := AsTeraboxError(err)
	return ok && te.Type == errorType
}
