package ingest

import (
	"context"
	"time"

	"funnel/internal/logger"
	"funnel/internal/rowsink"
	"funnel/pkg/errors"
	"funnel/pkg/logging"
	"funnel/pkg/metrics"
	"funnel/pkg/models"
)

// WindowBuffer is the windowing side of the fan-out: buffer the event by
// its event time and feed source progress into the watermark.
type WindowBuffer interface {
	Observe(ctx context.Context, ev models.Event, eventTime time.Time)
	ObserveSourceTime(ctx context.Context, publishTime time.Time)
}

// Service is the validate → enrich → fan-out stage. Validation failures
// are dropped here (log-and-drop) and never escalate; sink errors
// propagate so the consume loop can retry the message.
type Service struct {
	enricher *Enricher
	rows     rowsink.Writer
	windows  WindowBuffer
	logger   logger.Logger
}

func NewService(rows rowsink.Writer, windows WindowBuffer, log logger.Logger) *Service {
	return &Service{
		enricher: NewEnricher(),
		rows:     rows,
		windows:  windows,
		logger:   log,
	}
}

// Process handles one raw message end to end. The row write happens
// before the window buffer so duplicate redelivery after a partial
// failure re-appends a row (accepted at-least-once trade-off) instead of
// losing it.
func (s *Service) Process(ctx context.Context, raw models.RawMessage) error {
	ev, err := ParseEvent(raw.Payload)
	if err != nil {
		if errors.IsValidation(err) {
			metrics.EventsIngestedTotal.WithLabelValues("invalid").Inc()
			metrics.ValidationFailuresTotal.WithLabelValues(errors.ValidationKind(err)).Inc()
			s.logger.WarnwCtx(ctx, "Dropping invalid message",
				"error", err,
				"payload_bytes", len(raw.Payload),
			)
			return nil
		}
		return err
	}

	ev = s.enricher.Enrich(ev)
	ctx = logging.WithEventType(ctx, ev.EventType)

	if err := s.rows.Write(ctx, models.RowFromEvent(ev)); err != nil {
		s.logger.ErrorwCtx(ctx, "Row store write failed",
			"error", err,
		)
		return err
	}

	s.windows.Observe(ctx, ev, raw.PublishTime)
	s.windows.ObserveSourceTime(ctx, raw.PublishTime)

	metrics.EventsIngestedTotal.WithLabelValues("ok").Inc()
	return nil
}
