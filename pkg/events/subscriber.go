package events

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// Delivery is a decoded event plus the message it came from.
type Delivery struct {
	Event  Event
	Offset int64
	raw    kafka.Message
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Subscriber reads events back from the topic.
type Subscriber struct {
	reader messageReader
}

// SubscriberConfig holds Kafka consumer configuration
type SubscriberConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewSubscriber creates a consumer-group reader for cfg.Topic.
func NewSubscriber(cfg SubscriberConfig) *Subscriber {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Subscriber{reader: reader}
}

// Subscribe streams decoded events until ctx ends or a fetch fails.
// Messages that do not decode are reported on the error channel and
// skipped.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan Delivery, <-chan error) {
	out := make(chan Delivery)
	errChan := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errChan)

		for {
			m, err := s.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errChan <- fmt.Errorf("failed to fetch message: %w", err)
				return
			}

			var e Event
			if err := json.Unmarshal(m.Value, &e); err != nil {
				select {
				case errChan <- fmt.Errorf("skipping undecodable message at offset %d: %w", m.Offset, err):
				default:
				}
				continue
			}

			select {
			case out <- Delivery{Event: e, Offset: m.Offset, raw: m}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errChan
}

// Commit marks d as processed for the consumer group.
func (s *Subscriber) Commit(ctx context.Context, d Delivery) error {
	return s.reader.CommitMessages(ctx, d.raw)
}

func (s *Subscriber) Close() error {
	return s.reader.Close()
}
