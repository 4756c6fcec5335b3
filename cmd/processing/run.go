package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/blogport/media-pipeline/internal/config"
	"github.com/blogport/media-pipeline/internal/media/kafka"
	"github.com/blogport/media-pipeline/internal/media/pipeline"
	"github.com/blogport/media-pipeline/internal/storage/object"
	"github.com/blogport/media-pipeline/internal/storage/postgres"
)

// run wires the variant pipeline worker: it consumes upload-finalized
// notifications and turns each original into its derivative set.
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

	outboxRepo := postgres.NewOutboxRepo(db)
	repo := postgres.NewMediaRepo(db, outboxRepo)
	gateway := object.NewS3Gateway(object.GatewayConfig{
		Region:   cfg.AWSRegion,
		Endpoint: cfg.AWSEndpoint,
		Logger:   logger,
	})

	pipe, err := pipeline.New(pipeline.Config{
		Repo:           repo,
		Store:          gateway,
		OutputBucket:   cfg.VariantBucket,
		ManifestBucket: cfg.ManifestBucket,
		Workers:        cfg.PipelineWorkers,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaUploadsTopic,
		GroupID: cfg.KafkaConsumerGroup,
		Logger:  logger,
	}, pipe)
	if err != nil {
		return fmt.Errorf("build consumer: %w", err)
	}
	defer consumer.Close()

	return consumer.Run(ctx)
}
