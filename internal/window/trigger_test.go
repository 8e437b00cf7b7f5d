package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAfterWatermarkShouldFire(t *testing.T) {
	end := time.Date(2024, 3, 7, 10, 5, 0, 0, time.UTC)
	trigger := AfterWatermark{}

	tests := []struct {
		name      string
		watermark time.Time
		want      bool
	}{
		{name: "watermark before end", watermark: end.Add(-time.Second), want: false},
		{name: "watermark at end", watermark: end, want: true},
		{name: "watermark past end", watermark: end.Add(time.Hour), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trigger.ShouldFire(end, tt.watermark))
		})
	}
}
