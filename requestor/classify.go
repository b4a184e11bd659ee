package requestor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Classify maps a non-200 HTTP status code to a retry recommendation
// and a human-readable message. anonymous and backingOff are the
// credential backend's flags as observed at classification time; they
// are passed in rather than captured so classification stays a pure
// function.
func Classify(statusCode int, anonymous, backingOff bool) *Error {
	retry := statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusUnauthorized ||
		statusCode >= 500

	message := fmt.Sprintf("Server returned error code %d (%s)", statusCode, http.StatusText(statusCode))

	switch {
	case statusCode == http.StatusUnauthorized && anonymous:
		// Retrying cannot help without credentials.
		retry = false
		message = "Anonymous request was rejected with a 401"
	case isCredentialStatus(statusCode):
		if backingOff {
			message = fmt.Sprintf(
				"Server returned error code %d (%s), and we are unable to obtain a new credential. You may not have access to this repo",
				statusCode, http.StatusText(statusCode))
		} else {
			message = fmt.Sprintf(
				"Server returned error code %d (%s). Your credential may no longer be valid and we are asking for a new one",
				statusCode, http.StatusText(statusCode))
		}
	}

	return &Error{
		StatusCode: statusCode,
		Code:       ErrCodeServer,
		Message:    message,
		Retryable:  retry,
	}
}

// isCredentialStatus reports whether a status indicates the credential
// itself was rejected: unauthorized, bad request, or a redirect to an
// interactive auth page the server was told to suppress.
func isCredentialStatus(statusCode int) bool {
	return statusCode == http.StatusUnauthorized ||
		statusCode == http.StatusBadRequest ||
		(statusCode >= 300 && statusCode < 400)
}

// classifyTransportError maps a transport-level failure (no status
// code exists yet) to a typed error. Cancellation is not handled here;
// the caller re-raises ctx.Err() before classifying.
func classifyTransportError(err error) *Error {
	var certVerify *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &certVerify) || errors.As(err, &unknownAuthority) {
		return NewCertTrustError(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}

	// Everything else (DNS failure, connection refused, mid-stream
	// reset) stays a single retryable kind.
	return NewTransportError(err)
}
