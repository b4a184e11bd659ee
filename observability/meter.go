package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/objfetch/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the metric instruments for request attempt observability.
type Metrics struct {
	attemptTotal    metric.Int64Counter
	attemptInFlight metric.Int64UpDownCounter
	connectWait     metric.Float64Histogram
	responseWait    metric.Float64Histogram
	errorTotal      metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	attemptTotal, err := meter.Int64Counter("attempt.total",
		metric.WithDescription("Total number of request attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating attempt.total counter: %w", err)
	}

	attemptInFlight, err := meter.Int64UpDownCounter("attempt.in_flight",
		metric.WithDescription("Number of attempts currently holding a connection slot"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating attempt.in_flight gauge: %w", err)
	}

	connectWait, err := meter.Float64Histogram("attempt.connect_wait",
		metric.WithDescription("Time spent waiting for a connection slot in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating attempt.connect_wait histogram: %w", err)
	}

	responseWait, err := meter.Float64Histogram("attempt.response_wait",
		metric.WithDescription("Time from dispatch to response headers in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating attempt.response_wait histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("attempt.errors",
		metric.WithDescription("Total attempt errors by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating attempt.errors counter: %w", err)
	}

	return &Metrics{
		attemptTotal:    attemptTotal,
		attemptInFlight: attemptInFlight,
		connectWait:     connectWait,
		responseWait:    responseWait,
		errorTotal:      errorTotal,
	}, nil
}

// RecordSlotAcquired increments the in-flight count and records how long
// the attempt waited for a connection slot.
func (m *Metrics) RecordSlotAcquired(ctx context.Context, wait time.Duration) {
	m.attemptInFlight.Add(ctx, 1)
	m.connectWait.Record(ctx, wait.Seconds())
}

// RecordSlotReleased decrements the in-flight count.
func (m *Metrics) RecordSlotReleased(ctx context.Context) {
	m.attemptInFlight.Add(ctx, -1)
}

// RecordAttempt records a completed attempt with its outcome.
func (m *Metrics) RecordAttempt(ctx context.Context, statusCode int, anonymous bool, responseWait time.Duration) {
	attrs := metric.WithAttributes(
		attribute.Int("status_code", statusCode),
		attribute.Bool("anonymous", anonymous),
	)
	m.attemptTotal.Add(ctx, 1, attrs)
	m.responseWait.Record(ctx, responseWait.Seconds(), attrs)
}

// RecordError records an attempt error by kind.
func (m *Metrics) RecordError(ctx context.Context, kind string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}
