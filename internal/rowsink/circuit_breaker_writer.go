package rowsink

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"funnel/internal/config"
	"funnel/pkg/circuitbreaker"
	"funnel/pkg/models"
)

// CircuitBreakerWriter guards the row store so a struggling database
// sheds load instead of soaking up every retry budget. With the breaker
// disabled it is a pass-through.
type CircuitBreakerWriter struct {
	writer Writer
	cb     *circuitbreaker.Wrapper
}

func NewCircuitBreakerWriter(writer Writer, cfg config.CircuitBreakerConfig) *CircuitBreakerWriter {
	if !cfg.Enabled {
		return &CircuitBreakerWriter{writer: writer}
	}

	cbConfig := circuitbreaker.DefaultConfig("postgres-rowsink")
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
		cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		}
	}

	return &CircuitBreakerWriter{
		writer: writer,
		cb:     circuitbreaker.NewWrapper(cbConfig),
	}
}

func (w *CircuitBreakerWriter) EnsureTable(ctx context.Context) error {
	return w.writer.EnsureTable(ctx)
}

func (w *CircuitBreakerWriter) Write(ctx context.Context, row models.Row) error {
	if w.cb == nil {
		return w.writer.Write(ctx, row)
	}

	_, err := w.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, w.writer.Write(ctx, row)
	})

	w.cb.RecordRequest(err == nil)

	if err != nil {
		if w.cb.IsOpen() {
			return fmt.Errorf("circuit breaker is open for postgres-rowsink: %w", err)
		}
		return err
	}

	return nil
}

func (w *CircuitBreakerWriter) State() string {
	if w.cb == nil {
		return "disabled"
	}
	return w.cb.State().String()
}
