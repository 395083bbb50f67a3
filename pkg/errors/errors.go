package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates the operation clashes with one in progress
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeFeatureDisabled indicates a feature has no usable credentials
	ErrorTypeFeatureDisabled ErrorType = "FEATURE_DISABLED"

	// ErrorTypeNotInitialized indicates the AI client was used before it was configured
	ErrorTypeNotInitialized ErrorType = "NOT_INITIALIZED"

	// AI provider failures.
	ErrorTypeInvalidCredentials ErrorType = "INVALID_CREDENTIALS"
	ErrorTypeQuotaExceeded      ErrorType = "QUOTA_EXCEEDED"
	ErrorTypeRateLimited        ErrorType = "RATE_LIMITED"
	ErrorTypeSafetyBlocked      ErrorType = "SAFETY_BLOCKED"
	ErrorTypeRecitationBlocked  ErrorType = "RECITATION_BLOCKED"
	ErrorTypeUnknown            ErrorType = "UNKNOWN"

	// ErrorTypeEmptyResponse indicates the AI provider returned no usable text
	ErrorTypeEmptyResponse ErrorType = "EMPTY_RESPONSE"

	// ErrorTypeMalformedAnalysisJSON indicates no JSON object could be recovered from model output
	ErrorTypeMalformedAnalysisJSON ErrorType = "MALFORMED_ANALYSIS_JSON"

	// ErrorTypePlaceLookupFailed indicates the places provider did not return OK
	ErrorTypePlaceLookupFailed ErrorType = "PLACE_LOOKUP_FAILED"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	// Status is the upstream status string for PLACE_LOOKUP_FAILED errors.
	Status string
	Err    error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an error of the given type.
func New(errType ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return New(ErrorTypeNotFound, message, nil)
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message, nil)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return New(ErrorTypeConflict, message, nil)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return New(ErrorTypeInternal, message, err)
}

// NewFeatureDisabledError reports a feature switched off for lack of credentials
func NewFeatureDisabledError(feature string) *AppError {
	return New(ErrorTypeFeatureDisabled, feature+" is not configured", nil)
}

// NewNotInitializedError creates the error returned by an unconfigured AI client
func NewNotInitializedError() *AppError {
	return New(ErrorTypeNotInitialized, "gemini client is not initialized", nil)
}

// NewPlaceLookupError wraps a non-OK status from the places provider
func NewPlaceLookupError(operation, status string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypePlaceLookupFailed,
		Message: fmt.Sprintf("%s returned %s", operation, status),
		Status:  status,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of the first AppError in err's chain,
// or an empty string if there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Is reports whether err carries an AppError of the given type.
func Is(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
