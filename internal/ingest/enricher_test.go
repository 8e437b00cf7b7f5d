package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"funnel/pkg/models"
)

func TestEnrichStampsServerTime(t *testing.T) {
	fixed := time.Date(2024, 3, 7, 9, 15, 42, 123_000_000, time.UTC)
	enricher := NewEnricherWithClock(func() time.Time { return fixed })

	ev := enricher.Enrich(models.Event{EventType: "Session", EventVersion: "V1", RawBody: "{}"})

	assert.Equal(t, "2024-03-07 09:15:42.123", ev.ServerTime)
}

func TestEnrichMillisecondPrecision(t *testing.T) {
	// Sub-millisecond digits must be truncated, not rounded into a
	// longer string.
	fixed := time.Date(2024, 3, 7, 9, 15, 42, 999_999_999, time.UTC)
	enricher := NewEnricherWithClock(func() time.Time { return fixed })

	ev := enricher.Enrich(models.Event{})

	assert.Len(t, ev.ServerTime, len("2006-01-02 15:04:05.000"))
	assert.Equal(t, "2024-03-07 09:15:42.999", ev.ServerTime)
}

func TestEnrichDoesNotTouchOtherFields(t *testing.T) {
	enricher := NewEnricher()

	in := models.Event{EventType: "MatchStart", EventVersion: "V3", RawBody: `{"a":1}`}
	out := enricher.Enrich(in)

	assert.Equal(t, in.EventType, out.EventType)
	assert.Equal(t, in.EventVersion, out.EventVersion)
	assert.Equal(t, in.RawBody, out.RawBody)
	assert.NotEmpty(t, out.ServerTime)
}
