package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
	failWith  error
}

func (f *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func newTestPublisher(ch *fakeChannel, dialErr error) *AMQPPublisher {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	p := NewAMQPPublisher("amqp://test", logger)
	p.dial = func(string) (channel, func(), error) {
		if dialErr != nil {
			return nil, nil, dialErr
		}
		return ch, func() {}, nil
	}
	return p
}

func TestPublishSendsPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch, nil)

	err := p.Publish(context.Background(), BookingCreated, map[string]string{"bookingNo": "BK1"})
	require.NoError(t, err)

	assert.Equal(t, []string{BookingCreated}, ch.declared)
	assert.Equal(t, []string{BookingCreated}, ch.keys)
	require.Len(t, ch.published, 1)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.Equal(t, "application/json", ch.published[0].ContentType)

	var body map[string]string
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &body))
	assert.Equal(t, "BK1", body["bookingNo"])
}

func TestPublishReturnsErrors(t *testing.T) {
	t.Run("Dial Error", func(t *testing.T) {
		p := newTestPublisher(nil, errors.New("connection refused"))
		assert.Error(t, p.Publish(context.Background(), BookingPaid, struct{}{}))
	})

	t.Run("Publish Error", func(t *testing.T) {
		p := newTestPublisher(&fakeChannel{failWith: errors.New("channel closed")}, nil)
		err := p.Publish(context.Background(), BookingUpdated, struct{}{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "publish failed")
	})

	t.Run("Unencodable Payload", func(t *testing.T) {
		p := newTestPublisher(&fakeChannel{}, nil)
		assert.Error(t, p.Publish(context.Background(), BookingCreated, make(chan int)))
	})
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), BookingCreated, nil))
}
