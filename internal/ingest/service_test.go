package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel/internal/logger"
	"funnel/pkg/models"
)

type fakeRowWriter struct {
	rows    []models.Row
	failErr error
}

func (f *fakeRowWriter) EnsureTable(ctx context.Context) error { return nil }

func (f *fakeRowWriter) Write(ctx context.Context, row models.Row) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.rows = append(f.rows, row)
	return nil
}

type fakeWindowBuffer struct {
	observed    []models.Event
	sourceTimes []time.Time
}

func (f *fakeWindowBuffer) Observe(ctx context.Context, ev models.Event, eventTime time.Time) {
	f.observed = append(f.observed, ev)
}

func (f *fakeWindowBuffer) ObserveSourceTime(ctx context.Context, publishTime time.Time) {
	f.sourceTimes = append(f.sourceTimes, publishTime)
}

func rawMessage(payload string) models.RawMessage {
	return models.RawMessage{
		ID:          "m-1",
		Topic:       "raw-events",
		Payload:     []byte(payload),
		PublishTime: time.Date(2024, 3, 7, 10, 2, 0, 0, time.UTC),
	}
}

func TestProcessValidMessage(t *testing.T) {
	rows := &fakeRowWriter{}
	windows := &fakeWindowBuffer{}
	svc := NewService(rows, windows, logger.NopLogger())

	body := `{"eventType":"Session","eventVersion":"V1","playerId":"p-9"}`
	err := svc.Process(context.Background(), rawMessage(body))
	require.NoError(t, err)

	require.Len(t, rows.rows, 1)
	row := rows.rows[0]
	assert.Equal(t, "Session", row.EventType)
	assert.Equal(t, "V1", row.EventVersion)
	assert.Equal(t, body, row.Message, "row message must equal the original body string")
	assert.NotEmpty(t, row.ServerTime)

	require.Len(t, windows.observed, 1)
	assert.Equal(t, body, windows.observed[0].RawBody)
	require.Len(t, windows.sourceTimes, 1)
}

func TestProcessInvalidMessageIsDropped(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "malformed body", payload: `not json`},
		{name: "missing eventType", payload: `{"eventVersion":"V1"}`},
		{name: "missing eventVersion", payload: `{"eventType":"Session"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := &fakeRowWriter{}
			windows := &fakeWindowBuffer{}
			svc := NewService(rows, windows, logger.NopLogger())

			err := svc.Process(context.Background(), rawMessage(tt.payload))

			require.NoError(t, err, "validation failures are dropped, not escalated")
			assert.Empty(t, rows.rows)
			assert.Empty(t, windows.observed)
		})
	}
}

func TestProcessDuplicateDeliveryWritesTwoRows(t *testing.T) {
	rows := &fakeRowWriter{}
	windows := &fakeWindowBuffer{}
	svc := NewService(rows, windows, logger.NopLogger())

	msg := rawMessage(`{"eventType":"Session","eventVersion":"V1"}`)
	require.NoError(t, svc.Process(context.Background(), msg))
	require.NoError(t, svc.Process(context.Background(), msg))

	assert.Len(t, rows.rows, 2, "at-least-once delivery yields duplicate rows, not dedup")
	assert.Len(t, windows.observed, 2)
}

func TestProcessRowWriteFailurePropagates(t *testing.T) {
	rows := &fakeRowWriter{failErr: fmt.Errorf("connection reset")}
	windows := &fakeWindowBuffer{}
	svc := NewService(rows, windows, logger.NopLogger())

	err := svc.Process(context.Background(), rawMessage(`{"eventType":"Session","eventVersion":"V1"}`))

	require.Error(t, err)
	assert.Empty(t, windows.observed, "event must not reach the window path before the row write succeeds")
}
