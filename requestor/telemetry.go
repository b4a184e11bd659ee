package requestor

import (
	"context"
	"time"

	"github.com/kbukum/objfetch/logger"
	"github.com/kbukum/objfetch/observability"
)

// attemptTelemetry is the one structured record every attempt emits
// before returning, whatever its outcome.
type attemptTelemetry struct {
	id            int64
	correlationID string
	statusCode    int
	cacheHint     string
	contentType   string
	available     int
	connectWait   time.Duration
	responseWait  time.Duration
	err           error
}

// emit writes the attempt record through the logger and, when
// configured, the metric instruments. Emission is local and never
// blocks the attempt.
func (r *Requestor) emit(ctx context.Context, t attemptTelemetry) {
	fields := logger.Fields(
		logger.FieldRequestID, t.id,
		logger.FieldCorrelationID, t.correlationID,
		logger.FieldStatus, t.statusCode,
		logger.FieldCacheHint, t.cacheHint,
		logger.FieldContentType, t.contentType,
		logger.FieldAvailableSlots, t.available,
		logger.FieldConnectWait, t.connectWait.Milliseconds(),
		logger.FieldResponseWait, t.responseWait.Milliseconds(),
	)

	if t.err != nil {
		r.log.Warn("request attempt failed", logger.MergeWithError(fields, t.err))
	} else {
		r.log.Info("request attempt", fields)
	}

	observability.SetSpanAttribute(ctx, observability.AttrStatusCode, t.statusCode)
	observability.SetSpanAttribute(ctx, observability.AttrDurationMs, t.responseWait.Milliseconds())

	var kind string
	if t.err != nil {
		kind = "cancelled"
		if classified, ok := t.err.(*Error); ok {
			kind = classified.Code.String()
			observability.SetSpanAttribute(ctx, observability.AttrRetryable, classified.Retryable)
		}
		observability.SetSpanAttribute(ctx, observability.AttrErrorKind, kind)
		observability.SetSpanError(ctx, t.err)
	}

	if r.metrics == nil {
		return
	}
	r.metrics.RecordAttempt(ctx, t.statusCode, r.creds.IsAnonymous(), t.responseWait)
	if t.err != nil {
		r.metrics.RecordError(ctx, kind)
	}
}
