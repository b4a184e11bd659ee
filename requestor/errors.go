package requestor

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAlreadyReleased is returned by Result.Close when the result's
// resources were already released.
var ErrAlreadyReleased = errors.New("requestor: result already released")

// ErrorCode classifies request attempt errors.
type ErrorCode int

const (
	// ErrCodeAuthUnavailable indicates the credential backend could not
	// supply a token. Always retryable.
	ErrCodeAuthUnavailable ErrorCode = iota
	// ErrCodeServer indicates a non-200 HTTP response.
	ErrCodeServer
	// ErrCodeTimeout indicates the attempt exceeded the configured
	// duration without an explicit cancellation.
	ErrCodeTimeout
	// ErrCodeCertTrust indicates the local platform rejected the
	// configured certificate trust. Not retryable.
	ErrCodeCertTrust
	// ErrCodeTransport indicates any other low-level network failure.
	ErrCodeTransport
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeAuthUnavailable:
		return "auth_unavailable"
	case ErrCodeServer:
		return "server"
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeCertTrust:
		return "cert_trust"
	case ErrCodeTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is a structured request attempt error with classification.
// Cancellation is never represented as an Error value; it propagates
// as the context's error.
type Error struct {
	// StatusCode is the HTTP status code the attempt surfaced as.
	StatusCode int
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Retryable indicates whether the attempt can be retried.
	Retryable bool
	// Body is the error response body, when one was read.
	Body []byte
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("requestor: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("requestor: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewAuthUnavailableError creates an error for a credential backend
// that could not supply a token.
func NewAuthUnavailableError(err error) *Error {
	return &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrCodeAuthUnavailable,
		Message:    err.Error(),
		Retryable:  true,
		Err:        err,
	}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{
		StatusCode: http.StatusRequestTimeout,
		Code:       ErrCodeTimeout,
		Message:    err.Error(),
		Retryable:  true,
		Err:        err,
	}
}

// NewCertTrustError creates a certificate-trust rejection error.
func NewCertTrustError(err error) *Error {
	return &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrCodeCertTrust,
		Message:    err.Error(),
		Retryable:  false,
		Err:        err,
	}
}

// NewTransportError creates an error for an unclassified transport
// failure. Unclassified failures are retried by default.
func NewTransportError(err error) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrCodeTransport,
		Message:    err.Error(),
		Retryable:  true,
		Err:        err,
	}
}

// IsAuthUnavailable checks if an error is a credential-unavailable error.
func IsAuthUnavailable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeAuthUnavailable
}

// IsServerError checks if an error is a classified HTTP response error.
func IsServerError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeServer
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsCertTrust checks if an error is a certificate-trust rejection.
func IsCertTrust(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCertTrust
}

// IsTransport checks if an error is an unclassified transport failure.
func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTransport
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
