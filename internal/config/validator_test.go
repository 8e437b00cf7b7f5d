package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                8080,
			ReadTimeoutSeconds:  15 * time.Second,
			WriteTimeoutSeconds: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "funnel",
				DBName:  "tracking",
				SSLMode: "disable",
			},
		},
		Broker: BrokerConfig{
			Type: "kafka",
			Kafka: KafkaConfig{
				Brokers:    []string{"localhost:9092"},
				GroupID:    "funnel-ingest",
				InputTopic: "raw-events",
			},
		},
		Pipeline: PipelineConfig{
			WindowLength:    5 * time.Minute,
			AllowedLateness: 5 * time.Minute,
		},
		FileStore: FileStoreConfig{
			PathPrefix: "/data/out/raw-events",
			ShardCount: 8,
		},
	}
}

func TestValidateStaticAcceptsValidConfig(t *testing.T) {
	require.NoError(t, ValidateStatic(validConfig()))
}

func TestValidateStaticRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 0 },
			field:  "server.port",
		},
		{
			name:   "unknown broker type",
			mutate: func(c *Config) { c.Broker.Type = "rabbitmq" },
			field:  "broker.type",
		},
		{
			name:   "no kafka brokers",
			mutate: func(c *Config) { c.Broker.Kafka.Brokers = nil },
			field:  "broker.kafka.brokers",
		},
		{
			name:   "missing group id",
			mutate: func(c *Config) { c.Broker.Kafka.GroupID = "" },
			field:  "broker.kafka.group_id",
		},
		{
			name:   "missing input topic",
			mutate: func(c *Config) { c.Broker.Kafka.InputTopic = "" },
			field:  "broker.kafka.input_topic",
		},
		{
			name:   "postgres host set without user",
			mutate: func(c *Config) { c.Database.Postgres.User = "" },
			field:  "database.postgres.user",
		},
		{
			name:   "bad ssl mode",
			mutate: func(c *Config) { c.Database.Postgres.SSLMode = "maybe" },
			field:  "database.postgres.sslmode",
		},
		{
			name:   "redis port out of range",
			mutate: func(c *Config) { c.Database.Redis = RedisConfig{Host: "localhost", Port: 99999} },
			field:  "database.redis.port",
		},
		{
			name:   "negative window length",
			mutate: func(c *Config) { c.Pipeline.WindowLength = -time.Minute },
			field:  "pipeline.window_length",
		},
		{
			name:   "negative allowed lateness",
			mutate: func(c *Config) { c.Pipeline.AllowedLateness = -time.Second },
			field:  "pipeline.allowed_lateness",
		},
		{
			name:   "missing output path prefix",
			mutate: func(c *Config) { c.FileStore.PathPrefix = "" },
			field:  "filestore.path_prefix",
		},
		{
			name:   "negative shard count",
			mutate: func(c *Config) { c.FileStore.ShardCount = -1 },
			field:  "filestore.shard_count",
		},
		{
			name: "retry max below initial interval",
			mutate: func(c *Config) {
				c.Broker.Kafka.Retry = RetryConfig{
					InitialInterval: 10 * time.Second,
					MaxInterval:     time.Second,
				}
			},
			field: "broker.kafka.retry.max_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateStatic(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidateStaticOptionalDatabases(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{}

	assert.NoError(t, ValidateStatic(cfg))
}
