package requestor

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http2"

	"github.com/kbukum/objfetch/logger"
	"github.com/kbukum/objfetch/observability"
	"github.com/kbukum/objfetch/resilience"
	"github.com/kbukum/objfetch/security"
	"github.com/kbukum/objfetch/version"
)

// headerAuthRedirect tells the server to answer with a plain 401
// instead of redirecting to an interactive auth page.
const (
	headerAuthRedirect      = "X-TFS-FedAuthRedirect"
	headerAuthRedirectValue = "Suppress"
	headerCacheHint         = "X-Cache"
)

// Request describes a single outbound request attempt.
type Request struct {
	// Method is the HTTP method.
	Method string
	// URL is the absolute request URL.
	URL string
	// Body, when non-nil, is JSON encoded as the UTF-8 request body.
	Body any
	// Accept, when non-empty, is sent as the Accept header.
	Accept string
}

// Requestor performs authenticated single request attempts against
// the object server. It is safe for concurrent use; all instances in
// a process should share one Throttle so total connection fan-out
// stays bounded.
type Requestor struct {
	client   *http.Client
	config   Config
	creds    CredentialSource
	throttle *resilience.Throttle
	resolver *security.CertResolver
	log      *logger.Logger
	metrics  *observability.Metrics

	userAgent string
}

// attemptCounter is process-wide, like the throttle: telemetry ids
// stay monotonic and unique across all instances sharing one gate.
var attemptCounter atomic.Int64

// Option customizes a Requestor.
type Option func(*Requestor)

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *Requestor) { r.log = log }
}

// WithMetrics attaches metric instruments recorded per attempt.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Requestor) { r.metrics = m }
}

// WithResolver overrides the certificate resolver.
func WithResolver(res *security.CertResolver) Option {
	return func(r *Requestor) { r.resolver = res }
}

// New creates a Requestor. The client certificate, if configured, is
// resolved once here and attached to every connection the instance
// makes; resolution failures degrade to no client certificate. creds
// must not be nil. A nil throttle gets a private default-capacity
// gate, but sharing one process-wide gate is the intended use.
func New(cfg Config, creds CredentialSource, throttle *resilience.Throttle, opts ...Option) (*Requestor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, fmt.Errorf("requestor: credential source is required")
	}
	if throttle == nil {
		throttle = resilience.NewThrottle(0)
	}

	r := &Requestor{
		config:    cfg,
		creds:     creds,
		throttle:  throttle,
		userAgent: version.UserAgent(cfg.Product),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get("requestor")
	}
	if r.resolver == nil {
		r.resolver = security.NewCertResolver(cfg.Cert.StoreDir, r.log)
	}

	transport, err := r.buildTransport(cfg)
	if err != nil {
		return nil, err
	}

	var timeout time.Duration
	if cfg.Retry != nil {
		timeout = cfg.Retry.Timeout
	}

	r.client = &http.Client{
		Transport: transport,
		Timeout:   timeout,
		// Redirects are part of the wire contract: a 3xx means the
		// credential was rejected and must surface to the classifier.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return r, nil
}

// buildTransport clones the default transport and applies TLS trust,
// the client certificate, and HTTP/2.
func (r *Requestor) buildTransport(cfg Config) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	var tlsCfg *tls.Config
	if cfg.TLS != nil {
		built, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		tlsCfg = built
	} else {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if cfg.Cert.ID != "" {
		var password security.PasswordFunc
		if cfg.Cert.PasswordProtected {
			password = security.NewAskpass(cfg.Cert.AskpassProgram).Func(cfg.Cert.ID)
		}
		if cert := r.resolver.Resolve(context.Background(), cfg.Cert.ID, password, cfg.Cert.RequireValid); cert != nil {
			tlsCfg.Certificates = []tls.Certificate{*cert}
		}
	}

	transport.TLSClientConfig = tlsCfg
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("requestor: configuring http2: %w", err)
	}
	return transport, nil
}

// Do performs one request attempt. Failures are returned as values
// inside the Result; the error return is reserved for cancellation,
// which propagates as the context's error, and for malformed requests.
//
// The caller must Close the Result when done with it. On success the
// Result holds the open body stream and the throttle slot until then.
func (r *Requestor) Do(ctx context.Context, req Request) (*Result, error) {
	attemptID := attemptCounter.Add(1)
	tel := attemptTelemetry{
		id:            attemptID,
		correlationID: uuid.NewString(),
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanAttempt)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrAttemptID, tel.correlationID)
	observability.SetSpanAttribute(ctx, observability.AttrAnonymous, r.creds.IsAnonymous())

	var token string
	if !r.creds.IsAnonymous() {
		credsCtx, credsSpan := observability.StartSpan(ctx, observability.SpanResolveCreds)
		t, err := r.creds.TryGetCredentials()
		if err != nil {
			observability.SetSpanError(credsCtx, err)
			credsSpan.End()
			// No network attempt, no throttle slot.
			authErr := NewAuthUnavailableError(err)
			tel.statusCode = authErr.StatusCode
			tel.available = r.throttle.Available()
			tel.err = authErr
			r.emit(ctx, tel)
			return failureResult(authErr), nil
		}
		credsSpan.End()
		token = t
	}

	httpReq, err := r.buildRequest(ctx, req, token)
	if err != nil {
		return nil, err
	}

	tel.available = r.throttle.Available()
	r.log.Debug("waiting for connection slot", logger.Fields(
		logger.FieldRequestID, attemptID,
		logger.FieldCorrelationID, tel.correlationID,
		logger.FieldAvailableSlots, tel.available,
	))

	connectStart := time.Now()
	slotCtx, slotSpan := observability.StartSpan(ctx, observability.SpanAcquireSlot)
	if err := r.throttle.Acquire(slotCtx); err != nil {
		observability.SetSpanError(slotCtx, err)
		slotSpan.End()
		// No slot was taken; propagate the cancellation as-is.
		return nil, err
	}
	slotSpan.End()
	tel.connectWait = time.Since(connectStart)
	if r.metrics != nil {
		r.metrics.RecordSlotAcquired(ctx, tel.connectWait)
	}

	// Single finalization point: unless the slot and response were
	// handed off to a success Result, dispose of both here exactly
	// once, whatever path exits.
	handedOff := false
	var resp *http.Response
	defer func() {
		if handedOff {
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		r.releaseSlot()
	}()

	sendStart := time.Now()
	resp, err = r.client.Do(httpReq)
	tel.responseWait = time.Since(sendStart)

	if err != nil {
		if ctx.Err() != nil {
			// The caller's signal actually fired: re-raise it, do not
			// convert it into a retryable error.
			tel.err = ctx.Err()
			r.emit(ctx, tel)
			return nil, ctx.Err()
		}
		classified := classifyTransportError(err)
		tel.statusCode = classified.StatusCode
		tel.err = classified
		r.emit(ctx, tel)
		return failureResult(classified), nil
	}

	tel.statusCode = resp.StatusCode
	tel.cacheHint = resp.Header.Get(headerCacheHint)
	tel.contentType = resp.Header.Get("Content-Type")

	if resp.StatusCode == http.StatusOK {
		if token != "" {
			r.creds.ConfirmWorked(token)
		}
		r.emit(ctx, tel)

		handedOff = true
		body := resp.Body
		return &Result{
			StatusCode:  resp.StatusCode,
			ContentType: tel.contentType,
			Body:        body,
			release: func() {
				_ = body.Close()
				r.releaseSlot()
			},
		}, nil
	}

	// Error statuses carry small text bodies; read them fully before
	// the deferred close so the message survives the release.
	errorBody, _ := io.ReadAll(resp.Body)

	classified := Classify(resp.StatusCode, r.creds.IsAnonymous(), r.creds.IsBackingOff())
	classified.Body = errorBody

	if isCredentialStatus(resp.StatusCode) && token != "" {
		r.creds.Revoke(token)
	}

	tel.err = classified
	r.emit(ctx, tel)
	return failureResult(classified), nil
}

// Close releases the certificate store handle and any idle
// connections held by the transport.
func (r *Requestor) Close() error {
	r.client.CloseIdleConnections()
	return r.resolver.Close()
}

// Throttle returns the connection gate this instance uses.
func (r *Requestor) Throttle() *resilience.Throttle {
	return r.throttle
}

func (r *Requestor) releaseSlot() {
	r.throttle.Release()
	if r.metrics != nil {
		r.metrics.RecordSlotReleased(context.Background())
	}
}

// buildRequest constructs the outbound *http.Request with the wire
// contract headers.
func (r *Requestor) buildRequest(ctx context.Context, req Request, token string) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("requestor: encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("requestor: building request: %w", err)
	}

	httpReq.Header.Set(headerAuthRedirect, headerAuthRedirectValue)
	httpReq.Header.Set("User-Agent", r.userAgent)
	if token != "" {
		httpReq.Header.Set("Authorization", "Basic "+token)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	return httpReq, nil
}
