package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_events_total",
			Help: "Total number of messages consumed from the bus, by outcome (count)",
		},
		[]string{"status"},
	)

	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_validation_failures_total",
			Help: "Total number of messages dropped by validation, by kind (count)",
		},
		[]string{"kind"},
	)

	RowWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rowsink_writes_total",
			Help: "Total number of row-store write attempts, by status (count)",
		},
		[]string{"status"},
	)

	RowWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rowsink_write_duration_ms",
			Help:    "Row-store write duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
	)

	WindowsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "window_open_windows",
			Help: "Number of windows currently buffering events (count)",
		},
	)

	WindowsFiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "window_fired_total",
			Help: "Total number of windows flushed to the file sink (count)",
		},
	)

	WindowsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "window_expired_total",
			Help: "Total number of windows garbage-collected past the lateness horizon (count)",
		},
	)

	LateEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "window_late_events_total",
			Help: "Late events by outcome: buffered (pre-expiry) or dropped (past horizon) (count)",
		},
		[]string{"outcome"},
	)

	WatermarkLagSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "window_watermark_lag_seconds",
			Help: "Wall-clock time minus current watermark (seconds)",
		},
	)

	ShardFilesWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "filesink_shard_files_total",
			Help: "Total number of shard files written (count)",
		},
	)

	FlushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filesink_flush_duration_ms",
			Help:    "Window flush duration in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)

	FlushFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "filesink_flush_failures_total",
			Help: "Total number of failed window flush attempts (count)",
		},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "operation"},
	)

	DLQMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_total",
			Help: "Total number of messages sent to DLQ (count)",
		},
		[]string{"service", "topic", "reason"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

func RegisterPipelineMetrics() {
	prometheus.MustRegister(
		EventsIngestedTotal,
		ValidationFailuresTotal,
		RowWritesTotal,
		RowWriteDuration,
		WindowsOpen,
		WindowsFiredTotal,
		WindowsExpiredTotal,
		LateEventsTotal,
		WatermarkLagSeconds,
		ShardFilesWrittenTotal,
		FlushDuration,
		FlushFailuresTotal,
	)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(
		RetryAttemptsTotal,
		DLQMessagesTotal,
		KafkaMessagesReadTotal,
	)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(
		CircuitBreakerState,
		CircuitBreakerRequests,
		CircuitBreakerFailures,
	)
}

func RegisterRateLimitMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func ObserveRowWriteDuration(d time.Duration) {
	RowWriteDuration.Observe(float64(d.Milliseconds()))
}

func ObserveFlushDuration(d time.Duration) {
	FlushDuration.Observe(float64(d.Milliseconds()))
}

func SetWatermarkLag(lag time.Duration) {
	WatermarkLagSeconds.Set(lag.Seconds())
}

func SetOpenWindows(count int) {
	WindowsOpen.Set(float64(count))
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}
