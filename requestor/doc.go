// Package requestor implements an authenticated, retry-aware HTTP
// request layer for clients that fetch large binary payloads from a
// remote version-control server.
//
// A Requestor performs one request attempt end-to-end: it obtains a
// credential from the backend, acquires a slot from a process-wide
// connection throttle, sends the request, classifies the outcome, and
// coordinates credential confirm/revoke. The retry loop itself lives
// above this package; each attempt returns a Result carrying a retry
// recommendation.
//
//	throttle := resilience.NewThrottle(0)
//	req, err := requestor.New(cfg, creds, throttle)
//	if err != nil {
//		return err
//	}
//	defer req.Close()
//
//	res, err := req.Do(ctx, requestor.Request{Method: http.MethodGet, URL: url})
//	if err != nil {
//		return err // cancellation only
//	}
//	defer res.Close()
//	if res.Succeeded() {
//		io.Copy(dst, res.Body)
//	}
//
// On success the Result owns the response stream and the throttle
// slot; the caller must Close it exactly once. Failure results are
// fully released before they are returned.
package requestor
