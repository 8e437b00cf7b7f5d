package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel/pkg/errors"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind string
	}{
		{
			name:    "valid event",
			payload: `{"eventType":"Session","eventVersion":"V1"}`,
		},
		{
			name:    "extra fields ignored",
			payload: `{"eventType":"MatchStart","eventVersion":"V2","playerId":"p-17","score":12}`,
		},
		{
			name:     "missing eventType",
			payload:  `{"eventVersion":"V1"}`,
			wantKind: errors.ErrMissingField.Code,
		},
		{
			name:     "missing eventVersion",
			payload:  `{"eventType":"Session"}`,
			wantKind: errors.ErrMissingField.Code,
		},
		{
			name:     "eventType not a string",
			payload:  `{"eventType":7,"eventVersion":"V1"}`,
			wantKind: errors.ErrMissingField.Code,
		},
		{
			name:     "empty eventType",
			payload:  `{"eventType":"","eventVersion":"V1"}`,
			wantKind: errors.ErrMissingField.Code,
		},
		{
			name:     "unparsable body",
			payload:  `{"eventType":"Session"`,
			wantKind: errors.ErrMalformedBody.Code,
		},
		{
			name:     "not an object",
			payload:  `[1,2,3]`,
			wantKind: errors.ErrMalformedBody.Code,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.payload))

			if tt.wantKind != "" {
				require.Error(t, err)
				assert.True(t, errors.IsValidation(err))
				assert.Equal(t, tt.wantKind, errors.ValidationKind(err))
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, ev.EventType)
			assert.NotEmpty(t, ev.EventVersion)
			assert.Equal(t, tt.payload, ev.RawBody, "original body must be retained verbatim")
			assert.Empty(t, ev.ServerTime, "serverTime is assigned by the enricher, not the codec")
		})
	}
}

func TestParseEventKeepsBodyUntouched(t *testing.T) {
	payload := `{"eventType":"LevelUp","eventVersion":"V1","nested":{"a":[1,2]},"weird  spacing": true}`

	ev, err := ParseEvent([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, "LevelUp", ev.EventType)
	assert.Equal(t, "V1", ev.EventVersion)
	assert.Equal(t, payload, ev.RawBody)
}
