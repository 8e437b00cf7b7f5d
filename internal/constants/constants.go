package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

// ServerTimeLayout is the fixed textual layout for the serverTime
// attribute stamped at processing time (millisecond precision).
const ServerTimeLayout = "2006-01-02 15:04:05.000"

// WindowPathLayout names window boundaries inside output file names.
const WindowPathLayout = "2006-01-02T15-04-05Z"

const (
	DefaultWindowLength    = 5 * time.Minute
	DefaultAllowedLateness = 5 * time.Minute
	DefaultShardCount      = 8
	DefaultFileSuffix      = ".avro"
)

const (
	DefaultDataset = "tracking"
	DefaultTable   = "raw_events"
)

const (
	DefaultWatermarkSkew       = 10 * time.Second
	DefaultIdleAdvanceInterval = 30 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	CheckpointKeyPrefix = "funnel:watermark:"
)
