package ingest

import (
	"time"

	"funnel/internal/constants"
	"funnel/pkg/models"
)

// Enricher stamps each event with serverTime, the wall-clock time at
// processing (not the publish time), in the fixed millisecond layout.
type Enricher struct {
	now func() time.Time
}

func NewEnricher() *Enricher {
	return &Enricher{now: time.Now}
}

// NewEnricherWithClock injects the clock for tests.
func NewEnricherWithClock(now func() time.Time) *Enricher {
	return &Enricher{now: now}
}

func (e *Enricher) Enrich(ev models.Event) models.Event {
	ev.ServerTime = e.now().Format(constants.ServerTimeLayout)
	return ev
}
