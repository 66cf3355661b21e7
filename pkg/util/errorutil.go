package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-checkable failure codes surfaced to clients.
const (
	CodeAuthInvalid           = "AUTH_INVALID"
	CodeAuthForbidden         = "AUTH_FORBIDDEN"
	CodeSessionRevoked        = "SESSION_REVOKED"
	CodeSessionExpired        = "SESSION_EXPIRED"
	CodeSessionNotFound       = "SESSION_NOT_FOUND"
	CodeOTPExpired            = "OTP_EXPIRED"
	CodeOTPMismatch           = "OTP_MISMATCH"
	CodeAlreadyVerified       = "ALREADY_VERIFIED"
	CodeResetInvalidOrExpired = "RESET_INVALID_OR_EXPIRED"
	CodeWeakPassword          = "WEAK_PASSWORD"
	CodeRateLimited           = "RATE_LIMITED"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeNotFound              = "NOT_FOUND"
	CodeConflict              = "CONFLICT"
	CodeStoreUnavailable      = "STORE_UNAVAILABLE"
	CodeInternalError         = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches DomainErrors by code so callers can assert failure kinds with
// errors.Is against the constructors below.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeAuthInvalid, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeAuthForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, nil)
}

func NewSessionRevoked() error {
	return NewDomainError(CodeSessionRevoked, "session revoked", http.StatusUnauthorized, nil)
}

func NewSessionExpired() error {
	return NewDomainError(CodeSessionExpired, "session expired", http.StatusUnauthorized, nil)
}

func NewSessionNotFound() error {
	return NewDomainError(CodeSessionNotFound, "session not found", http.StatusUnauthorized, nil)
}

func NewOTPExpired() error {
	return NewDomainError(CodeOTPExpired, "no verification code pending or code expired", http.StatusBadRequest, nil)
}

func NewOTPMismatch() error {
	return NewDomainError(CodeOTPMismatch, "invalid code", http.StatusBadRequest, nil)
}

func NewAlreadyVerified() error {
	return NewDomainError(CodeAlreadyVerified, "account already verified", http.StatusBadRequest, nil)
}

func NewResetInvalidOrExpired() error {
	return NewDomainError(CodeResetInvalidOrExpired, "reset token invalid or expired", http.StatusBadRequest, nil)
}

func NewWeakPassword(message string) error {
	return NewDomainError(CodeWeakPassword, message, http.StatusBadRequest, nil)
}

func NewRateLimited() error {
	return NewDomainError(CodeRateLimited, "too many requests", http.StatusTooManyRequests, nil)
}

func NewStoreUnavailable(err error) error {
	return &DomainError{
		Code:       CodeStoreUnavailable,
		Message:    "storage unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Unrecognized errors
// collapse to INTERNAL_ERROR so no internal detail leaks to clients.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
