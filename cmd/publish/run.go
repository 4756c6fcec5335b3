package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/blogport/media-pipeline/internal/config"
	"github.com/blogport/media-pipeline/internal/media/kafka"
	"github.com/blogport/media-pipeline/internal/media/outbox"
	"github.com/blogport/media-pipeline/internal/storage/postgres"
)

// run wires the outbox publisher: it drains state-change events written by
// the other services into the events topic.
func run(ctx context.Context, logger zerolog.Logger) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaEventsTopic,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("build producer: %w", err)
	}
	defer producer.Close()

	publisher, err := outbox.NewPublisher(outbox.PublisherConfig{
		OutboxRepo: postgres.NewOutboxRepo(db),
		Producer:   producer,
		Interval:   time.Duration(cfg.OutboxIntervalMS) * time.Millisecond,
		BatchSize:  cfg.OutboxBatchSize,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("build publisher: %w", err)
	}

	return publisher.Start(ctx)
}
