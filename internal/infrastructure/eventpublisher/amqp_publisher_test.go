package eventpublisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacambio/cashledger/internal/domain"
)

type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	publishErr error
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.declared = append(c.declared, name+":"+kind)
	return nil
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func sampleEvent() *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   domain.BalanceAggregateID("caja-1", "USD"),
		AggregateType: domain.AggregateTypeBalance,
		EventType:     domain.EventTypeMovementPosted,
		Payload:       map[string]any{"movement_id": "mv-1", "amount": "-40"},
		CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAMQPPublisherPublishesToTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisher(func() (amqpChannel, error) { return ch, nil }, "ledger.events", zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))

	assert.Equal(t, []string{"ledger.events:topic"}, ch.declared)
	require.Len(t, ch.published, 1)
	assert.Equal(t, []string{domain.EventTypeMovementPosted}, ch.keys)

	msg := ch.published[0]
	assert.Equal(t, "evt-1", msg.MessageId)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "caja-1/USD", msg.Headers["aggregate_id"])

	var body map[string]any
	require.NoError(t, json.NewDecoder(bytes.NewReader(msg.Body)).Decode(&body))
	assert.Equal(t, "mv-1", body["movement_id"])
}

func TestAMQPPublisherReopensChannelOnFailure(t *testing.T) {
	broken := &fakeChannel{publishErr: errors.New("channel closed")}
	healthy := &fakeChannel{}
	channels := []*fakeChannel{broken, healthy}

	p, err := newAMQPPublisher(func() (amqpChannel, error) {
		ch := channels[0]
		channels = channels[1:]
		return ch, nil
	}, "ledger.events", zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.True(t, broken.closed)
	assert.Len(t, healthy.published, 1)
}

func TestAMQPPublisherReopenFailure(t *testing.T) {
	calls := 0
	p, err := newAMQPPublisher(func() (amqpChannel, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("connection lost")
		}
		return &fakeChannel{publishErr: errors.New("channel closed")}, nil
	}, "ledger.events", zerolog.Nop())
	require.NoError(t, err)

	err = p.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf))

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.Contains(t, buf.String(), `"event_type":"movement.posted"`)
	assert.Contains(t, buf.String(), `"movement_id":"mv-1"`)
}
