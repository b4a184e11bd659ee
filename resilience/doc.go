// Package resilience provides the concurrency and retry primitives for
// the objfetch request layer.
//
// This package includes:
//   - Throttle: a process-wide counting gate bounding concurrent
//     outbound HTTP attempts
//   - Retry: retries failed attempts with exponential backoff, driven
//     by the retryable hint each attempt returns
//
// The throttle is constructed once per process and passed to every
// requestor instance so total connection fan-out stays bounded no
// matter how many logical clients exist:
//
//	throttle := resilience.NewThrottle(0) // 0 = platform parallelism
//	r, err := requestor.New(cfg, creds, throttle)
//
//	result, err := resilience.Retry(ctx, policy, func() (*requestor.Result, error) {
//	    res, err := r.Do(ctx, req)
//	    if err != nil {
//	        return nil, err // cancellation, never retried
//	    }
//	    if !res.Succeeded() {
//	        _ = res.Close()
//	        return nil, res.Err
//	    }
//	    return res, nil
//	})
package resilience
