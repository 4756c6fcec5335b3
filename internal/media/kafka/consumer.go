package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/blogport/media-pipeline/internal/media/models"
)

const maxRetryBackoff = 30 * time.Second

// UploadHandler runs the processing for one finalized upload. Handlers must
// be idempotent: the consumer commits after handling, so a crash in between
// redelivers the message.
type UploadHandler interface {
	Process(ctx context.Context, mediaID uuid.UUID) error
}

// Consumer reads upload-finalized notifications and triggers the variant
// pipeline for each one.
type Consumer struct {
	reader       *kafkago.Reader
	handler      UploadHandler
	retryBackoff time.Duration
	logger       zerolog.Logger
}

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// RetryBackoff is the initial delay before reprocessing a failed
	// message; it doubles per attempt up to a cap.
	RetryBackoff time.Duration
	Logger       zerolog.Logger
}

func NewConsumer(cfg ConsumerConfig, handler UploadHandler) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers list is empty")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is empty")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("group id is empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is nil")
	}
	if cfg.RetryBackoff < 0 {
		return nil, fmt.Errorf("retry_backoff cannot be negative")
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = time.Second
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})

	return &Consumer{
		reader:       reader,
		handler:      handler,
		retryBackoff: cfg.RetryBackoff,
		logger:       cfg.Logger.With().Str("component", "upload_consumer").Str("topic", cfg.Topic).Logger(),
	}, nil
}

// Run consumes until the context is cancelled. Malformed messages are logged
// and committed so they never wedge the partition; handler failures are
// retried in place before anything later is fetched.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		var event models.UploadFinalized
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.MediaID == uuid.Nil {
			c.logger.Error().
				Err(err).
				Int64("offset", msg.Offset).
				Msg("malformed upload notification, skipping")
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return fmt.Errorf("commit message: %w", err)
			}
			continue
		}

		if err := c.processWithRetry(ctx, event.MediaID); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

// processWithRetry blocks on the current message until it is handled.
// Consumer-group commits are high-watermark per partition, so moving on and
// committing a later offset would silently drop the failed one; a stalled
// partition is recoverable, a lost trigger is not.
func (c *Consumer) processWithRetry(ctx context.Context, mediaID uuid.UUID) error {
	backoff := c.retryBackoff
	for attempt := 1; ; attempt++ {
		err := c.handler.Process(ctx, mediaID)
		if err == nil {
			return nil
		}

		c.logger.Error().
			Err(err).
			Str("media_id", mediaID.String()).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("processing failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < maxRetryBackoff {
			backoff *= 2
			if backoff > maxRetryBackoff {
				backoff = maxRetryBackoff
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
