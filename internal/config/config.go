package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/blogport/media-pipeline/internal/media/domain"
)

// Config is the full runtime configuration shared by all three binaries.
// Values come from an optional yaml file (CONFIG_FILE) with environment
// variables taking precedence; each binary reads only the sections it needs.
type Config struct {
	HTTPAddr    string `mapstructure:"http_addr"`
	DatabaseURL string `mapstructure:"database_url"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	LogLevel    string `mapstructure:"log_level"`

	AWSRegion   string `mapstructure:"aws_region"`
	AWSEndpoint string `mapstructure:"aws_endpoint"`

	UploadBucket   string `mapstructure:"upload_bucket"`
	VariantBucket  string `mapstructure:"variant_bucket"`
	ManifestBucket string `mapstructure:"manifest_bucket"`

	MaxFileSizeBytes int64 `mapstructure:"max_file_size_bytes"`
	PipelineWorkers  int   `mapstructure:"pipeline_workers"`

	KafkaBrokers       []string `mapstructure:"kafka_brokers"`
	KafkaEventsTopic   string   `mapstructure:"kafka_events_topic"`
	KafkaUploadsTopic  string   `mapstructure:"kafka_uploads_topic"`
	KafkaConsumerGroup string   `mapstructure:"kafka_consumer_group"`

	OutboxIntervalMS int `mapstructure:"outbox_interval_ms"`
	OutboxBatchSize  int `mapstructure:"outbox_batch_size"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8081")
	v.SetDefault("log_level", "info")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("upload_bucket", domain.DefaultUploadBucket)
	v.SetDefault("variant_bucket", "blogport-cms-variants")
	v.SetDefault("manifest_bucket", domain.DefaultManifestBucket)
	v.SetDefault("max_file_size_bytes", domain.DefaultMaxFileSizeBytes)
	v.SetDefault("pipeline_workers", 0) // 0 means NumCPU
	v.SetDefault("kafka_brokers", []string{"localhost:9092"})
	v.SetDefault("kafka_events_topic", "media.events")
	v.SetDefault("kafka_uploads_topic", "media.uploads")
	v.SetDefault("kafka_consumer_group", "media-processing")
	v.SetDefault("outbox_interval_ms", 1000)
	v.SetDefault("outbox_batch_size", 100)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, and
	// Unmarshal never consults it for unknown ones. Keys without a default
	// must be bound explicitly or their env values are dropped.
	for _, key := range []string{"database_url", "jwt_secret", "aws_endpoint", "config_file"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// UploadPolicy builds the policy enforced by the upload authorizer,
// defaults overridden by configured limits.
func (c *Config) UploadPolicy() domain.UploadPolicy {
	policy := domain.DefaultUploadPolicy()
	if c.MaxFileSizeBytes > 0 {
		policy.MaxFileSizeBytes = c.MaxFileSizeBytes
	}
	if c.UploadBucket != "" {
		policy.UploadBucket = c.UploadBucket
	}
	if c.ManifestBucket != "" {
		policy.ManifestBucket = c.ManifestBucket
	}
	return policy
}
