package window

import (
	"context"
	"fmt"
	"time"

	"funnel/internal/constants"
	"funnel/pkg/models"
)

// Window is a fixed-length, non-overlapping event-time bucket. It is
// created lazily on the first event assigned to it and owned exclusively
// by one Manager.
type Window struct {
	Start  time.Time
	End    time.Time
	Events []models.Event
	Fired  bool
}

// KeyFor aligns an event time to its window start:
// floor(eventTime / length) * length.
func KeyFor(eventTime time.Time, length time.Duration) time.Time {
	return eventTime.Truncate(length)
}

// Pane is the immutable payload handed to the file sink when a window
// fires: a copy of the buffered events plus the window boundaries.
type Pane struct {
	Start  time.Time
	End    time.Time
	Events []models.Event
}

// Label renders the window boundaries for logs and file names.
func (p Pane) Label() string {
	return fmt.Sprintf("%s-%s",
		p.Start.UTC().Format(constants.WindowPathLayout),
		p.End.UTC().Format(constants.WindowPathLayout))
}

// Flusher is the file sink contract. Flush must be atomic per shard file;
// the Manager clears the window buffer only after Flush returns nil.
type Flusher interface {
	Flush(ctx context.Context, pane Pane) error
}

// Info is a read-only view of one window for the ops API.
type Info struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Buffered int       `json:"buffered"`
	Fired    bool      `json:"fired"`
}
