package window

import (
	"context"
	"sort"
	"sync"
	"time"

	"funnel/internal/config"
	"funnel/internal/constants"
	"funnel/internal/logger"
	"funnel/pkg/logging"
	"funnel/pkg/metrics"
	"funnel/pkg/models"
	"funnel/pkg/retry"
)

// CheckpointStore persists the watermark across restarts so the lateness
// horizon is not rewound by a redeploy. Optional.
type CheckpointStore interface {
	Load(ctx context.Context) (time.Time, error)
	Save(ctx context.Context, watermark time.Time) error
}

// Manager owns the per-partition window state: it assigns events to fixed
// windows, tracks the watermark, consults the Trigger on every watermark
// advancement and hands fired panes to the Flusher. Accumulation is
// discarding: a fired window's buffer is cleared and never re-emitted.
type Manager struct {
	mu sync.Mutex

	length       time.Duration
	lateness     time.Duration
	skew         time.Duration
	idleInterval time.Duration

	watermark time.Time
	windows   map[int64]*Window

	trigger     Trigger
	flusher     Flusher
	retryPolicy retry.Policy
	checkpoint  CheckpointStore
	logger      logger.Logger
}

func NewManager(cfg config.PipelineConfig, flusher Flusher, log logger.Logger) *Manager {
	length := cfg.WindowLength
	if length <= 0 {
		length = constants.DefaultWindowLength
	}
	lateness := cfg.AllowedLateness
	if lateness < 0 {
		lateness = constants.DefaultAllowedLateness
	}
	skew := cfg.WatermarkSkew
	if skew <= 0 {
		skew = constants.DefaultWatermarkSkew
	}
	idle := cfg.IdleAdvanceInterval
	if idle <= 0 {
		idle = constants.DefaultIdleAdvanceInterval
	}

	return &Manager{
		length:       length,
		lateness:     lateness,
		skew:         skew,
		idleInterval: idle,
		windows:      make(map[int64]*Window),
		trigger:      AfterWatermark{},
		flusher:      flusher,
		retryPolicy:  retry.DefaultPolicy(),
		logger:       log,
	}
}

// WithTrigger replaces the default AfterWatermark trigger.
func (m *Manager) WithTrigger(t Trigger) *Manager {
	m.trigger = t
	return m
}

// WithCheckpoint attaches a watermark checkpoint store.
func (m *Manager) WithCheckpoint(store CheckpointStore) *Manager {
	m.checkpoint = store
	return m
}

// WithRetryPolicy overrides the flush retry policy.
func (m *Manager) WithRetryPolicy(p retry.Policy) *Manager {
	m.retryPolicy = p
	return m
}

// Restore loads the checkpointed watermark, if a store is configured.
func (m *Manager) Restore(ctx context.Context) error {
	if m.checkpoint == nil {
		return nil
	}

	wm, err := m.checkpoint.Load(ctx)
	if err != nil {
		return err
	}
	if wm.IsZero() {
		return nil
	}

	m.mu.Lock()
	if wm.After(m.watermark) {
		m.watermark = wm
	}
	m.mu.Unlock()

	m.logger.InfowCtx(ctx, "Restored watermark from checkpoint",
		"watermark", wm,
	)
	return nil
}

// Observe assigns an event to its window and buffers it. Events whose
// window is already past the lateness horizon are dropped; events landing
// in a fired-but-unexpired window are buffered but will never be flushed
// under the discarding policy.
func (m *Manager) Observe(ctx context.Context, ev models.Event, eventTime time.Time) {
	start := KeyFor(eventTime, m.length)
	end := start.Add(m.length)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.watermark.Before(end.Add(m.lateness)) {
		metrics.LateEventsTotal.WithLabelValues("dropped").Inc()
		m.logger.DebugwCtx(ctx, "Dropping event past lateness horizon",
			"event_time", eventTime,
			"window_end", end,
			"watermark", m.watermark,
		)
		return
	}

	w, ok := m.windows[start.UnixNano()]
	if !ok {
		w = &Window{Start: start, End: end}
		m.windows[start.UnixNano()] = w
		metrics.SetOpenWindows(len(m.windows))
	}

	w.Events = append(w.Events, ev)
	if w.Fired {
		metrics.LateEventsTotal.WithLabelValues("buffered").Inc()
	}
}

// ObserveSourceTime feeds ingestion-source progress into the watermark:
// the watermark trails the newest publish time by the configured skew
// allowance so bounded out-of-order arrival is tolerated.
func (m *Manager) ObserveSourceTime(ctx context.Context, publishTime time.Time) {
	m.AdvanceTo(ctx, publishTime.Add(-m.skew))
}

// AdvanceTo moves the watermark forward (never backward), fires every
// open window the trigger approves and garbage-collects windows past the
// lateness horizon.
func (m *Manager) AdvanceTo(ctx context.Context, candidate time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !candidate.After(m.watermark) {
		return
	}
	m.watermark = candidate
	metrics.SetWatermarkLag(time.Since(candidate))

	m.fireDueLocked(ctx)
	m.expireLocked(ctx)

	if m.checkpoint != nil {
		if err := m.checkpoint.Save(ctx, m.watermark); err != nil {
			m.logger.WarnwCtx(ctx, "Failed to checkpoint watermark",
				"error", err,
			)
		}
	}
}

func (m *Manager) fireDueLocked(ctx context.Context) {
	for _, w := range m.sortedWindowsLocked() {
		if w.Fired || !m.trigger.ShouldFire(w.End, m.watermark) {
			continue
		}

		pane := Pane{
			Start:  w.Start,
			End:    w.End,
			Events: append([]models.Event(nil), w.Events...),
		}
		flushCtx := logging.WithWindow(ctx, pane.Label())

		started := time.Now()
		err := retry.RetryWithCallback(flushCtx, m.retryPolicy, func() error {
			return m.flusher.Flush(flushCtx, pane)
		}, func(attempt int, err error, nextDelay time.Duration) {
			metrics.RetryAttemptsTotal.WithLabelValues("ingest-service", "flush").Inc()
			m.logger.WarnwCtx(flushCtx, "Retrying window flush",
				"attempt", attempt,
				"next_delay", nextDelay,
				"error", err,
			)
		})

		if err != nil {
			// Buffer stays intact; the window remains open and the next
			// watermark advance retries the flush. Persistent failure is
			// surfaced through metrics and logs.
			metrics.FlushFailuresTotal.Inc()
			m.logger.ErrorwCtx(flushCtx, "Window flush failed, keeping buffer",
				"buffered", len(w.Events),
				"error", err,
			)
			continue
		}

		w.Fired = true
		w.Events = nil
		metrics.WindowsFiredTotal.Inc()
		metrics.ObserveFlushDuration(time.Since(started))
		m.logger.InfowCtx(flushCtx, "Window fired",
			"events", len(pane.Events),
		)
	}
}

func (m *Manager) expireLocked(ctx context.Context) {
	for key, w := range m.windows {
		if m.watermark.Before(w.End.Add(m.lateness)) {
			continue
		}
		// A window holding an unflushed buffer (flush kept failing) is
		// retained past its horizon rather than silently discarded.
		if !w.Fired && len(w.Events) > 0 {
			continue
		}

		if w.Fired && len(w.Events) > 0 {
			// Late arrivals buffered after the firing; the discarding
			// policy never re-fires, so they leave the file-store path here.
			metrics.LateEventsTotal.WithLabelValues("expired_unflushed").Add(float64(len(w.Events)))
			m.logger.InfowCtx(ctx, "Discarding late-buffered events at window expiry",
				"window_start", w.Start,
				"events", len(w.Events),
			)
		}

		delete(m.windows, key)
		metrics.WindowsExpiredTotal.Inc()
	}
	metrics.SetOpenWindows(len(m.windows))
}

// Run advances the watermark on an idle timer so buffered windows still
// fire when the stream goes quiet. Blocks until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.idleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.AdvanceTo(ctx, time.Now().Add(-m.skew))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Watermark returns the current watermark.
func (m *Manager) Watermark() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watermark
}

// Snapshot returns a read-only view of all tracked windows, ordered by
// window start.
func (m *Manager) Snapshot() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]Info, 0, len(m.windows))
	for _, w := range m.sortedWindowsLocked() {
		infos = append(infos, Info{
			Start:    w.Start,
			End:      w.End,
			Buffered: len(w.Events),
			Fired:    w.Fired,
		})
	}
	return infos
}

func (m *Manager) sortedWindowsLocked() []*Window {
	ws := make([]*Window, 0, len(m.windows))
	for _, w := range m.windows {
		ws = append(ws, w)
	}
	sort.Slice(ws, func(i, j int) bool {
		return ws[i].Start.Before(ws[j].Start)
	})
	return ws
}
