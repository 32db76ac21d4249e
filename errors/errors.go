package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithFieldError records a per-field validation message under details.fields.
func (e *AppError) WithFieldError(field, message string) *AppError {
	fields, _ := e.Details["fields"].(map[string]string)
	if fields == nil {
		fields = make(map[string]string)
	}
	fields[field] = message
	return e.WithDetail("fields", fields)
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// NotFound creates an error for a resource that does not exist.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// Conflict creates an error for a request that clashes with current state.
func Conflict(reason string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: reason, HTTPStatus: http.StatusConflict}
}

// Validation creates a generic 400 error with the given message.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message, HTTPStatus: http.StatusBadRequest}
}

// InvalidInput creates a 400 error attributed to a single field.
func InvalidInput(field, reason string) *AppError {
	err := &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest,
	}
	if field != "" {
		err.WithFieldError(field, reason)
	}
	return err
}

// MissingField creates a 400 error for a required field that was not supplied.
func MissingField(field, message string) *AppError {
	if message == "" {
		message = fmt.Sprintf("Missing required field: %s", field)
	}
	return (&AppError{
		Code: ErrCodeMissingField, Message: message, HTTPStatus: http.StatusBadRequest,
	}).WithFieldError(field, message)
}

// FileTooLarge creates a 400 error for an upload above the configured limit.
func FileTooLarge(field string, limit int64) *AppError {
	msg := fmt.Sprintf("The file is too large. Allowed maximum size is %s.", humanSize(limit))
	return (&AppError{
		Code: ErrCodeFileTooLarge, Message: msg, HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{"max_size_bytes": limit},
	}).WithFieldError(field, msg)
}

// UnsupportedType creates a 400 error for an upload whose media type is not allowed.
func UnsupportedType(field, mimeType string, allowed []string) *AppError {
	msg := fmt.Sprintf("The mime type of the file is invalid (%q).", mimeType)
	return (&AppError{
		Code: ErrCodeUnsupportedType, Message: msg, HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{"mime_type": mimeType, "allowed": allowed},
	}).WithFieldError(field, msg)
}

// Unauthorized creates a 401 error.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{Code: ErrCodeUnauthorized, Message: reason, HTTPStatus: http.StatusUnauthorized}
}

// Forbidden creates a 403 error.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You don't have permission to perform this action."
	}
	return &AppError{Code: ErrCodeForbidden, Message: reason, HTTPStatus: http.StatusForbidden}
}

// TokenExpired creates a 401 error for an expired bearer token.
func TokenExpired() *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: "Your session has expired. Please log in again.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InvalidToken creates a 401 error for a malformed or unverifiable bearer token.
func InvalidToken() *AppError {
	return &AppError{
		Code: ErrCodeInvalidToken, Message: "Invalid authentication token. Please log in again.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Internal creates a 500 error wrapping an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// DatabaseError creates a retryable 500 error for metadata store failures.
func DatabaseError(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDatabaseError, Message: "A database error occurred. Please try again.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true, Cause: cause,
	}
}

// StorageFailure creates a retryable 500 error for blob store failures.
// op names the failed operation (write, read, presign).
func StorageFailure(op string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorage, Message: "The file storage is unavailable. Please try again.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"operation": op}, Cause: cause,
	}
}

func humanSize(n int64) string {
	const unit = 1024
	switch {
	case n >= unit*unit*unit:
		return trimSize(float64(n)/(unit*unit*unit)) + " GB"
	case n >= unit*unit:
		return trimSize(float64(n)/(unit*unit)) + " MB"
	case n >= unit:
		return trimSize(float64(n)/unit) + " KB"
	}
	return fmt.Sprintf("%d bytes", n)
}

func trimSize(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.1f", f)
}
