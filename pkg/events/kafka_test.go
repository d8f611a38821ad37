package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/logger"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/model"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/retry"
)

type mockWriter struct {
	mock.Mock
	mu       sync.Mutex
	messages []kafka.Message
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.messages = append(m.messages, msgs...)
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func fastRetry() retry.Options {
	opts := retry.DefaultOptions()
	opts.MaxAttempts = 3
	opts.InitialInterval = time.Millisecond
	opts.MaxInterval = time.Millisecond
	return opts
}

func sampleEvent() Event {
	return PlayerCreated(model.PlayerRecord{
		ID:          7,
		PlayerName:  "Ava",
		EncryptedHP: "FHE-MTA=",
		Owner:       "0x71562b71999873DB5b286dF957af199Ec94617F7",
	}, 18, "0xabc")
}

func TestPublishDeliversEncodedEvent(t *testing.T) {
	w := &mockWriter{}
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Once()

	p := newKafkaPublisher(w, fastRetry(), logger.NewNop())
	e := sampleEvent()

	res := <-p.PublishAsync(context.Background(), e)
	require.NoError(t, res.Error)
	w.AssertExpectations(t)

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, []byte("7"), msg.Key)
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, []byte(TypePlayerCreated), msg.Headers[0].Value)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, "Ava", decoded.Player.PlayerName)
	assert.Equal(t, 18.0, decoded.Score)
}

func TestPublishRetriesThenSucceeds(t *testing.T) {
	w := &mockWriter{}
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available")).Twice()
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Once()

	p := newKafkaPublisher(w, fastRetry(), logger.NewNop())
	res := <-p.PublishAsync(context.Background(), sampleEvent())

	assert.NoError(t, res.Error)
	w.AssertNumberOfCalls(t, "WriteMessages", 3)
}

func TestPublishFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	w := &mockWriter{}
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	p := newKafkaPublisher(w, fastRetry(), logger.FromZap(zap.New(core)))
	res := <-p.PublishAsync(context.Background(), sampleEvent())

	assert.ErrorIs(t, res.Error, retry.ErrExhausted)
	assert.Equal(t, 1, logs.FilterMessage("failed to publish event").Len())
}

func TestPublishAsyncNonBlockingProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("PublishAsync returns before the write completes", prop.ForAll(
		func(name string) bool {
			release := make(chan struct{})
			w := &mockWriter{}
			w.On("WriteMessages", mock.Anything, mock.Anything).Run(func(mock.Arguments) { <-release }).Return(nil)

			p := newKafkaPublisher(w, fastRetry(), logger.NewNop())
			e := sampleEvent()
			e.Player.PlayerName = name

			start := time.Now()
			ch := p.PublishAsync(context.Background(), e)
			fast := time.Since(start) < 50*time.Millisecond
			close(release)
			res := <-ch
			return fast && res.Error == nil
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	res := <-p.PublishAsync(context.Background(), sampleEvent())
	assert.NoError(t, res.Error)
	assert.NoError(t, p.Close())
}

func TestClose(t *testing.T) {
	w := &mockWriter{}
	w.On("Close").Return(nil)
	p := newKafkaPublisher(w, fastRetry(), logger.NewNop())
	assert.NoError(t, p.Close())
}
