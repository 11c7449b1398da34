package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeEmptyDocument       = "EMPTY_DOCUMENT"
	ErrCodeNoExtractableText   = "NO_EXTRACTABLE_TEXT"
	ErrCodeNoMeaningfulContent = "NO_MEANINGFUL_CONTENT"
	ErrCodeEmbeddingService    = "EMBEDDING_SERVICE_ERROR"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Document processing errors. Any of these rejects the upload and leaves
// the previously indexed document, if any, untouched.
var (
	ErrEmptyDocument       = NewDomainError(ErrCodeEmptyDocument, "document text is empty")
	ErrNoExtractableText   = NewDomainError(ErrCodeNoExtractableText, "no text could be extracted from any page")
	ErrNoMeaningfulContent = NewDomainError(ErrCodeNoMeaningfulContent, "no meaningful text chunks could be created")
)

// Lookup errors
var (
	ErrSessionNotFound = NewDomainError(ErrCodeNotFound, "session not found")
)

// NewEmbeddingServiceError wraps a failure from the embedding collaborator.
func NewEmbeddingServiceError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeEmbeddingService, "embedding service call failed", err)
}
