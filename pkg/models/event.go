package models

import "time"

// RawMessage is a single delivery from the message bus: an opaque payload
// plus the publish timestamp assigned by the bus. The publish time is the
// event time used for windowing; no custom timestamp extraction happens
// downstream.
type RawMessage struct {
	ID          string
	Topic       string
	Partition   int
	Payload     []byte
	PublishTime time.Time
}

// Event is a validated, enriched telemetry event. Immutable once built;
// it flows by value into both sink paths.
type Event struct {
	EventType    string `json:"eventType"`
	EventVersion string `json:"eventVersion"`
	RawBody      string `json:"rawBody"`
	ServerTime   string `json:"serverTime"`
}

// Row is the flattened tuple appended to the row store, four string fields
// in fixed column order. Message carries the original body verbatim.
type Row struct {
	EventType    string
	EventVersion string
	ServerTime   string
	Message      string
}

// RowFromEvent maps an event to its row-store representation.
func RowFromEvent(ev Event) Row {
	return Row{
		EventType:    ev.EventType,
		EventVersion: ev.EventVersion,
		ServerTime:   ev.ServerTime,
		Message:      ev.RawBody,
	}
}
