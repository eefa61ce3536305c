package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication and authorization errors (AUTH-001 to AUTH-099)
	ErrCodeUnauthorized       ErrorCode = "AUTH-001"
	ErrCodeProfileFetchFailed ErrorCode = "AUTH-002"
	ErrCodeNotAuthenticated   ErrorCode = "AUTH-003"
	ErrCodeForbidden          ErrorCode = "AUTH-004"

	// Transport errors (NET-001 to NET-099)
	ErrCodeNetwork ErrorCode = "NET-001"

	// API errors (API-001 to API-099)
	ErrCodeAPI      ErrorCode = "API-001"
	ErrCodeNotFound ErrorCode = "API-002"

	// Query errors (QUERY-001 to QUERY-099)
	ErrCodeValidation ErrorCode = "QUERY-001"

	// Document errors (DOC-001 to DOC-099)
	ErrCodeInvalidDocument ErrorCode = "DOC-001"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
)

// DocError is an error carrying a code, remediation hints and an optional cause.
type DocError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *DocError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *DocError) Unwrap() error {
	return e.Cause
}

// New creates a new DocError
func New(code ErrorCode, message string) *DocError {
	return &DocError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new DocError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *DocError {
	return &DocError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *DocError) WithSuggestion(suggestion string) *DocError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *DocError) WithDocs(url string) *DocError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the outermost DocError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var docErr *DocError
	if stderrors.As(err, &docErr) {
		return docErr.Code, true
	}
	return "", false
}

// IsCode reports whether any DocError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var docErr *DocError
		if !stderrors.As(err, &docErr) {
			return false
		}
		if docErr.Code == code {
			return true
		}
		err = docErr.Cause
	}
	return false
}

// Category returns the prefix of a code, e.g. "AUTH" for "AUTH-001".
func (c ErrorCode) Category() string {
	if i := strings.IndexByte(string(c), '-'); i > 0 {
		return string(c[:i])
	}
	return string(c)
}

// NewUnauthorizedError reports rejected credentials.
func NewUnauthorizedError(cause error) *DocError {
	return Wrap(ErrCodeUnauthorized, "invalid email or password", cause).
		WithSuggestion("Check your credentials and run 'docreview auth login' again")
}

// NewProfileFetchError reports that the token is held but the profile could not be loaded.
func NewProfileFetchError(cause error) *DocError {
	return Wrap(ErrCodeProfileFetchFailed, "logged in, but the user profile could not be loaded", cause).
		WithSuggestion("Run 'docreview auth status' to retry loading your profile")
}

// NewNotAuthenticatedError reports a missing session token.
func NewNotAuthenticatedError() *DocError {
	return New(ErrCodeNotAuthenticated, "not logged in").
		WithSuggestion("Run 'docreview auth login --email <email>'")
}

// NewForbiddenError reports an action the current role may not perform.
func NewForbiddenError(action string) *DocError {
	return New(ErrCodeForbidden, fmt.Sprintf("your role does not permit: %s", action)).
		WithSuggestion("Ask a reviewer to perform this action")
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(cause error) *DocError {
	return Wrap(ErrCodeNetwork, "request could not be completed", cause).
		WithSuggestion("Check that the API is reachable (config key api.base_url)")
}

// NewValidationError reports a malformed query or argument.
func NewValidationError(details string) *DocError {
	return New(ErrCodeValidation, details)
}

// NewInvalidDocumentError reports a document that cannot be used for the requested action.
func NewInvalidDocumentError(details string) *DocError {
	return New(ErrCodeInvalidDocument, details)
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *DocError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct")
}
