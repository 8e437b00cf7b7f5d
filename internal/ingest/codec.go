package ingest

import (
	"encoding/json"

	"funnel/pkg/errors"
	"funnel/pkg/models"
)

// ParseEvent validates a raw payload against the wire contract: a JSON
// object with top-level string fields eventType and eventVersion. Any
// other field is ignored for extraction, but the entire original body is
// retained verbatim as RawBody for forwarding. No sanitization occurs.
func ParseEvent(raw []byte) (models.Event, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return models.Event{}, errors.Wrap(err, errors.ErrMalformedBody)
	}

	eventType, err := stringField(body, "eventType")
	if err != nil {
		return models.Event{}, err
	}

	eventVersion, err := stringField(body, "eventVersion")
	if err != nil {
		return models.Event{}, err
	}

	return models.Event{
		EventType:    eventType,
		EventVersion: eventVersion,
		RawBody:      string(raw),
	}, nil
}

func stringField(body map[string]json.RawMessage, name string) (string, error) {
	raw, ok := body[name]
	if !ok {
		return "", errors.ErrMissingField.WithDetail("field", name)
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", errors.Wrap(err, errors.ErrMissingField.WithDetail("field", name))
	}
	if value == "" {
		return "", errors.ErrMissingField.WithDetail("field", name)
	}

	return value, nil
}
