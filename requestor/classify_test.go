package requestor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestClassifyRetryableStatuses(t *testing.T) {
	codes := []int{408, 401}
	for code := 500; code < 600; code++ {
		codes = append(codes, code)
	}

	for _, code := range codes {
		err := Classify(code, false, false)
		if !err.Retryable {
			t.Errorf("status %d: expected retryable", code)
		}
		if err.StatusCode != code {
			t.Errorf("status %d: got StatusCode %d", code, err.StatusCode)
		}
	}
}

func TestClassifyNonRetryableStatuses(t *testing.T) {
	for _, code := range []int{400, 403, 404, 409, 429} {
		err := Classify(code, false, false)
		if err.Retryable {
			t.Errorf("status %d: expected not retryable", code)
		}
	}
}

func TestClassifyBaselineMessage(t *testing.T) {
	err := Classify(503, false, false)
	if !strings.Contains(err.Message, "Server returned error code 503") {
		t.Errorf("unexpected message: %q", err.Message)
	}
}

func TestClassifyAnonymous401(t *testing.T) {
	err := Classify(401, true, false)
	if err.Retryable {
		t.Error("anonymous 401 must not be retryable")
	}
	if err.Message != "Anonymous request was rejected with a 401" {
		t.Errorf("unexpected message: %q", err.Message)
	}
}

func TestClassifyStaleCredentialMessage(t *testing.T) {
	for _, code := range []int{400, 401, 302} {
		err := Classify(code, false, false)
		if !strings.Contains(err.Message, "asking for a new one") {
			t.Errorf("status %d: expected renewal message, got %q", code, err.Message)
		}
	}
}

func TestClassifyBackingOffMessage(t *testing.T) {
	err := Classify(401, false, true)
	if !strings.Contains(err.Message, "You may not have access to this repo") {
		t.Errorf("expected backoff message, got %q", err.Message)
	}
	if !err.Retryable {
		t.Error("401 stays retryable while backing off")
	}
}

func TestClassifyRedirectNotAnonymousOverride(t *testing.T) {
	// Redirects rewrite the message but stay non-retryable.
	err := Classify(302, false, false)
	if err.Retryable {
		t.Error("302 must not be retryable")
	}
}

func TestClassifyTransportErrorKinds(t *testing.T) {
	t.Run("deadline exceeded becomes timeout", func(t *testing.T) {
		err := classifyTransportError(context.DeadlineExceeded)
		if err.Code != ErrCodeTimeout {
			t.Errorf("expected timeout, got %s", err.Code)
		}
		if err.StatusCode != http.StatusRequestTimeout {
			t.Errorf("expected 408, got %d", err.StatusCode)
		}
		if !err.Retryable {
			t.Error("timeout must be retryable")
		}
	})

	t.Run("unknown failure retries by default", func(t *testing.T) {
		err := classifyTransportError(errors.New("connection refused"))
		if err.Code != ErrCodeTransport {
			t.Errorf("expected transport, got %s", err.Code)
		}
		if err.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", err.StatusCode)
		}
		if !err.Retryable {
			t.Error("unclassified transport failure must be retryable")
		}
	})
}

func TestErrorPredicates(t *testing.T) {
	base := errors.New("boom")

	if !IsTimeout(NewTimeoutError(base)) {
		t.Error("IsTimeout")
	}
	if !IsCertTrust(NewCertTrustError(base)) {
		t.Error("IsCertTrust")
	}
	if IsRetryable(NewCertTrustError(base)) {
		t.Error("cert trust rejection must not be retryable")
	}
	if !IsTransport(NewTransportError(base)) {
		t.Error("IsTransport")
	}
	if !IsAuthUnavailable(NewAuthUnavailableError(base)) {
		t.Error("IsAuthUnavailable")
	}
	if !IsRetryable(NewAuthUnavailableError(base)) {
		t.Error("auth unavailable must be retryable")
	}
	if !errors.Is(NewTransportError(base), base) {
		t.Error("expected Unwrap to reach the underlying error")
	}
}

func TestErrorString(t *testing.T) {
	err := Classify(503, false, false)
	got := err.Error()
	if !strings.Contains(got, "server") || !strings.Contains(got, "503") {
		t.Errorf("unexpected error string: %q", got)
	}
}
