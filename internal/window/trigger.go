package window

import "time"

// Trigger decides, per window, whether a firing is due. Implementations
// must be pure functions of (window end, watermark); the Manager consults
// the trigger on watermark advancement, not per incoming event.
type Trigger interface {
	ShouldFire(windowEnd, watermark time.Time) bool
}

// AfterWatermark fires once the watermark has reached the end of the
// window. Purely time-based; event count and size play no part.
type AfterWatermark struct{}

func (AfterWatermark) ShouldFire(windowEnd, watermark time.Time) bool {
	return !watermark.Before(windowEnd)
}
