package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Domain error codes. Every caller-facing failure maps to exactly one of
// these; anything else is ErrInternal and must never be presented as a
// guard failure.
const (
	ErrDuplicateAccount      ErrorCode = "DUPLICATE_ACCOUNT"
	ErrInvalidProfile        ErrorCode = "INVALID_PROFILE"
	ErrCodeExpired           ErrorCode = "CODE_EXPIRED"
	ErrCodeMismatch          ErrorCode = "CODE_MISMATCH"
	ErrNoPendingVerification ErrorCode = "NO_PENDING_VERIFICATION"
	ErrInvalidCredential     ErrorCode = "INVALID_CREDENTIAL"
	ErrNotVerified           ErrorCode = "NOT_VERIFIED"
	ErrAccountInactive       ErrorCode = "ACCOUNT_INACTIVE"
	ErrInvalidTransition     ErrorCode = "INVALID_TRANSITION"
	ErrAlreadyFinalized      ErrorCode = "ALREADY_FINALIZED"
	ErrForbidden             ErrorCode = "FORBIDDEN"
	ErrInvalidBloodGroup     ErrorCode = "INVALID_BLOOD_GROUP"
	ErrNotFound              ErrorCode = "NOT_FOUND"
	ErrTooManyRequests       ErrorCode = "TOO_MANY_REQUESTS"
	ErrInternal              ErrorCode = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps a domain code onto the wire status. Guard failures are
// always 4xx; only ErrInternal produces a 5xx.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrDuplicateAccount:
		return http.StatusConflict
	case ErrInvalidProfile, ErrInvalidBloodGroup:
		return http.StatusBadRequest
	case ErrCodeExpired, ErrCodeMismatch, ErrNoPendingVerification:
		return http.StatusBadRequest
	case ErrInvalidCredential:
		return http.StatusUnauthorized
	case ErrNotVerified, ErrAccountInactive, ErrForbidden:
		return http.StatusForbidden
	case ErrInvalidTransition, ErrAlreadyFinalized:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	case ErrTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// New creates an AppError with an explicit code and message
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates an AppError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a coded error
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Common error constructors
func NotFound(resource string) *AppError {
	return Newf(ErrNotFound, "%s not found", resource)
}

func Forbidden(message string) *AppError {
	return New(ErrForbidden, message)
}

func InvalidTransition(from, to string) *AppError {
	return Newf(ErrInvalidTransition, "cannot transition request from %s to %s", from, to)
}

func AlreadyFinalized(current string) *AppError {
	return Newf(ErrAlreadyFinalized, "request already finalized in state %s", current)
}

func Internal(err error) *AppError {
	return &AppError{Code: ErrInternal, Message: "internal server error", Err: err}
}

// Code extracts the domain code from any error chain; unknown errors are
// reported as ErrInternal.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given domain code.
func Is(err error, code ErrorCode) bool {
	return Code(err) == code
}
