package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Producer publishes messages to one topic with bounded retries. It is safe
// for concurrent use; Close is terminal.
type Producer struct {
	writer  *kafkago.Writer
	config  ProducerConfig
	logger  zerolog.Logger
	closed  atomic.Bool
	metrics producerMetrics
}

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	MaxRetries   int
	RetryBackoff time.Duration
	WriteTimeout time.Duration
	BatchSize    int
	Async        bool
	Logger       zerolog.Logger
}

type Message struct {
	Key   string
	Value []byte
}

type producerMetrics struct {
	MessagesPublished atomic.Int64
	MessagesFailed    atomic.Int64
	RetriesTotal      atomic.Int64
	PublishDuration   atomic.Int64
}

// Metrics is a point-in-time snapshot of producer counters.
type Metrics struct {
	MessagesPublished int64
	MessagesFailed    int64
	RetriesTotal      int64
	AvgPublishTime    time.Duration
}

func validateConfig(cfg *ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("brokers list is empty")
	}
	if cfg.Topic == "" {
		return fmt.Errorf("topic is empty")
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if cfg.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff cannot be negative")
	}
	if cfg.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout cannot be negative")
	}
	return nil
}

func setDefaults(cfg *ProducerConfig) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid producer config: %w", err)
	}
	setDefaults(&cfg)

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchSize:    cfg.BatchSize,
		WriteTimeout: cfg.WriteTimeout,
		Async:        cfg.Async,
	}

	return &Producer{
		writer: writer,
		config: cfg,
		logger: cfg.Logger.With().Str("component", "kafka_producer").Str("topic", cfg.Topic).Logger(),
	}, nil
}

// Publish writes one message, retrying retriable failures up to MaxRetries
// with a linear backoff.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	if p.closed.Load() {
		return fmt.Errorf("producer is closed")
	}

	msg := kafkago.Message{Key: []byte(key), Value: value}
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			p.metrics.RetriesTotal.Add(1)
			select {
			case <-ctx.Done():
				p.metrics.MessagesFailed.Add(1)
				return ctx.Err()
			case <-time.After(p.config.RetryBackoff * time.Duration(attempt)):
			}
		}

		lastErr = p.writer.WriteMessages(ctx, msg)
		if lastErr == nil {
			p.metrics.MessagesPublished.Add(1)
			p.metrics.PublishDuration.Add(int64(time.Since(start)))
			return nil
		}
		if !isRetriableError(lastErr) {
			break
		}
		p.logger.Warn().Err(lastErr).Int("attempt", attempt+1).Str("key", key).Msg("publish retry")
	}

	p.metrics.MessagesFailed.Add(1)
	return fmt.Errorf("kafka publish: %w", lastErr)
}

// PublishBatch writes all messages in one call. It is all-or-nothing from
// the caller's point of view; no per-message retries.
func (p *Producer) PublishBatch(ctx context.Context, messages []Message) error {
	if p.closed.Load() {
		return fmt.Errorf("producer is closed")
	}
	if len(messages) == 0 {
		return nil
	}

	batch := make([]kafkago.Message, len(messages))
	for i, m := range messages {
		batch[i] = kafkago.Message{Key: []byte(m.Key), Value: m.Value}
	}

	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		p.metrics.MessagesFailed.Add(int64(len(messages)))
		return fmt.Errorf("kafka publish batch: %w", err)
	}
	p.metrics.MessagesPublished.Add(int64(len(messages)))
	return nil
}

// HealthCheck verifies the first broker is reachable.
func (p *Producer) HealthCheck(ctx context.Context) error {
	if p.closed.Load() {
		return fmt.Errorf("producer is closed")
	}
	conn, err := kafkago.DialContext(ctx, "tcp", p.config.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka broker unreachable: %w", err)
	}
	return conn.Close()
}

func (p *Producer) GetMetrics() Metrics {
	published := p.metrics.MessagesPublished.Load()
	m := Metrics{
		MessagesPublished: published,
		MessagesFailed:    p.metrics.MessagesFailed.Load(),
		RetriesTotal:      p.metrics.RetriesTotal.Load(),
	}
	if published > 0 {
		m.AvgPublishTime = time.Duration(p.metrics.PublishDuration.Load() / published)
	}
	return m
}

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("producer already closed")
	}
	return p.writer.Close()
}

// isRetriableError separates transient broker faults from permanent ones.
// Unknown errors default to retriable.
func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	if err == context.Canceled || err == context.DeadlineExceeded {
		return false
	}

	msg := strings.ToLower(err.Error())
	permanent := []string{
		"invalid message",
		"message too large",
		"authorization failed",
		"unknown topic",
	}
	for _, s := range permanent {
		if strings.Contains(msg, s) {
			return false
		}
	}
	return true
}
