package requestor

import (
	"io"
	"sync/atomic"
)

// Result is the outcome of a single request attempt. On success it
// owns the response body stream and the throttle slot; Close returns
// both. Failure results are released before they are returned, so
// Close on them only guards against double release.
type Result struct {
	// StatusCode is the HTTP status the attempt surfaced as.
	StatusCode int

	// ContentType is the response Content-Type header, when present.
	ContentType string

	// Body is the response stream. Non-nil only on success; it is not
	// buffered, and the caller owns it until Close.
	Body io.ReadCloser

	// Err carries the classified failure. Nil on success.
	Err *Error

	// Retryable is the classifier's recommendation for the caller's
	// retry loop.
	Retryable bool

	release  func()
	released atomic.Bool
}

// Succeeded reports whether the attempt returned a 200.
func (r *Result) Succeeded() bool {
	return r.Err == nil
}

// Close releases the result's resources: it disposes the transport
// response and returns the throttle slot. It must be called exactly
// once; a second call returns ErrAlreadyReleased.
func (r *Result) Close() error {
	if !r.released.CompareAndSwap(false, true) {
		return ErrAlreadyReleased
	}
	if r.release != nil {
		r.release()
	}
	return nil
}

// failureResult builds a Result for a classified failure. Any slot
// the attempt held has already been returned by the caller.
func failureResult(err *Error) *Result {
	return &Result{
		StatusCode: err.StatusCode,
		Err:        err,
		Retryable:  err.Retryable,
	}
}
