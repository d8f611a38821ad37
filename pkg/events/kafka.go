package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/logger"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/metrics"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/retry"
)

// Config holds Kafka publisher configuration
type Config struct {
	Brokers []string
	Topic   string
	Retry   retry.Options
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implements Publisher using kafka-go.
type KafkaPublisher struct {
	writer messageWriter
	retry  retry.Options
	logger *logger.Logger
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic.
func NewKafkaPublisher(cfg Config, l *logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newKafkaPublisher(writer, cfg.Retry, l)
}

func newKafkaPublisher(w messageWriter, opts retry.Options, l *logger.Logger) *KafkaPublisher {
	if opts.MaxAttempts == 0 {
		opts = retry.DefaultOptions()
		opts.MaxAttempts = 3
		opts.InitialInterval = 200 * time.Millisecond
		opts.MaxInterval = 2 * time.Second
	}
	return &KafkaPublisher{writer: w, retry: opts, logger: l}
}

// PublishAsync encodes the event and writes it from a goroutine. The writer
// is synchronous so each result reflects broker delivery.
func (p *KafkaPublisher) PublishAsync(ctx context.Context, e Event) <-chan PublishResult {
	resultChan := make(chan PublishResult, 1)

	value, err := e.Marshal()
	if err != nil {
		p.fail(e, err)
		resultChan <- PublishResult{Error: err}
		close(resultChan)
		return resultChan
	}

	msg := kafka.Message{
		Key:   e.Key(),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}

	go func() {
		defer close(resultChan)
		err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
			if attempt > 1 {
				p.logger.Debug("retrying event publish", zap.String("event_id", e.ID), zap.Int("attempt", attempt))
			}
			return p.writer.WriteMessages(ctx, msg)
		}, p.retry)
		if err != nil {
			p.fail(e, err)
		} else {
			metrics.EventsPublishedTotal.Inc()
		}
		resultChan <- PublishResult{Error: err}
	}()

	return resultChan
}

func (p *KafkaPublisher) fail(e Event, err error) {
	metrics.EventPublishErrorsTotal.Inc()
	p.logger.Error("failed to publish event", err,
		zap.String("event_id", e.ID),
		zap.String("type", e.Type),
	)
}

// Close flushes pending writes and shuts down the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
