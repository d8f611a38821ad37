// Package events publishes domain events about player records.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/model"
)

const TypePlayerCreated = "player.created"

// Event is the envelope written to the topic.
type Event struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	OccurredAt time.Time          `json:"occurredAt"`
	Player     model.PlayerRecord `json:"player"`
	Score      float64            `json:"score"`
	TxHash     string             `json:"txHash,omitempty"`
}

// PlayerCreated builds the event emitted after a record is persisted.
func PlayerCreated(record model.PlayerRecord, score float64, txHash string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypePlayerCreated,
		OccurredAt: time.Now().UTC(),
		Player:     record,
		Score:      score,
		TxHash:     txHash,
	}
}

// Key partitions events by player id.
func (e Event) Key() []byte {
	return []byte(strconv.Itoa(e.Player.ID))
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// PublishResult holds the outcome of an asynchronous publish.
type PublishResult struct {
	Error error
}

// Publisher sends events without blocking the caller.
type Publisher interface {
	// PublishAsync returns a channel that receives exactly one result.
	PublishAsync(ctx context.Context, e Event) <-chan PublishResult
	Close() error
}

// NopPublisher drops every event. Used when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishAsync(ctx context.Context, e Event) <-chan PublishResult {
	ch := make(chan PublishResult, 1)
	ch <- PublishResult{}
	close(ch)
	return ch
}

func (NopPublisher) Close() error { return nil }
