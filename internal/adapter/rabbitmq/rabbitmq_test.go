package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/config"
	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

type published struct {
	exchange string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	exchanges  []string
	bound      []string
	published  []published
	deliveries chan amqp.Delivery
	closeChan  chan *amqp.Error
	closed     bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery, 8), closeChan: make(chan *amqp.Error, 1)}
}

func (ch *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.exchanges = append(ch.exchanges, name+"/"+kind)
	return nil
}

func (ch *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error) {
	return Queue{Name: "amq.gen-1"}, nil
}

func (ch *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.bound = append(ch.bound, name+"->"+exchange)
	return nil
}

func (ch *fakeChannel) Publish(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.published = append(ch.published, published{exchange: exchange, msg: msg})
	return nil
}

func (ch *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return ch.deliveries, nil
}

func (ch *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error { return nil }

func (ch *fakeChannel) Close() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.closed = true
	return nil
}

func (ch *fakeChannel) NotifyClose() <-chan *amqp.Error { return ch.closeChan }

type fakeConnection struct {
	mu         sync.Mutex
	channels   []*fakeChannel
	opened     int
	reconnects int
	closed     bool
	failOpen   bool
}

func (c *fakeConnection) Channel() (Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOpen {
		return nil, errors.New("connection is closed")
	}
	ch := c.channels[c.opened]
	c.opened++
	return ch, nil
}

func (c *fakeConnection) Close() error { return nil }

func (c *fakeConnection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConnection) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects++
	c.closed = false
	return nil
}

func (c *fakeConnection) openedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

var (
	_ Connection = (*amqpConnection)(nil)
	_ Connection = (*fakeConnection)(nil)
	_ Channel    = (*amqpChannel)(nil)
	_ Channel    = (*fakeChannel)(nil)
)

func TestURL(t *testing.T) {
	assert.Equal(t, "amqp://guest:secret@mq:5672/", URL(config.RabbitMQConfig{Host: "mq", Port: 5672, User: "guest", Password: "secret"}))
}

func TestDialConfig(t *testing.T) {
	cfg := DialConfig(config.RabbitMQConfig{}, "kitchen-board/grill")
	assert.Equal(t, 10*time.Second, cfg.Heartbeat)
	assert.Equal(t, "kitchen-board/grill", cfg.Properties["connection_name"])

	cfg = DialConfig(config.RabbitMQConfig{Heartbeat: time.Minute}, "")
	assert.Equal(t, time.Minute, cfg.Heartbeat)
	assert.NotContains(t, cfg.Properties, "connection_name")
}

func TestPublishNotification(t *testing.T) {
	ch := newFakeChannel()
	conn := &fakeConnection{channels: []*fakeChannel{ch}}

	table := 4
	msg := interfaces.NotificationMessage{
		Kind:        interfaces.NotificationStageChanged,
		OrderID:     "o-1",
		TableNumber: &table,
		OldStage:    domain.StagePending,
		NewStage:    domain.StageInProgress,
		ChangedBy:   "grill",
		Timestamp:   time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, NewPublisher(conn).PublishNotification(context.Background(), msg))

	assert.Equal(t, []string{"notifications_fanout/fanout"}, ch.exchanges)
	require.Len(t, ch.published, 1)
	assert.Equal(t, NotificationsExchange, ch.published[0].exchange)
	assert.Equal(t, "stage_changed", ch.published[0].msg.Type)

	var got interfaces.NotificationMessage
	require.NoError(t, json.Unmarshal(ch.published[0].msg.Body, &got))
	assert.Equal(t, msg, got)
	assert.True(t, ch.closed)
}

func TestPublishWithoutChannel(t *testing.T) {
	conn := &fakeConnection{failOpen: true}
	err := NewPublisher(conn).PublishNotification(context.Background(), interfaces.NotificationMessage{})
	assert.Error(t, err)
}

func TestConsumeNotificationsDeliversBodies(t *testing.T) {
	ch := newFakeChannel()
	conn := &fakeConnection{channels: []*fakeChannel{ch}}
	c := NewConsumer(conn, 1, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 2)
	done := make(chan error, 1)
	go func() {
		done <- c.ConsumeNotifications(ctx, func(ctx context.Context, body []byte) error {
			got <- string(body)
			return errors.New("ignored")
		})
	}()

	ch.deliveries <- amqp.Delivery{Body: []byte(`{"kind":"stage_changed"}`)}
	ch.deliveries <- amqp.Delivery{Body: []byte(`not json`)}

	assert.Equal(t, `{"kind":"stage_changed"}`, <-got)
	assert.Equal(t, `not json`, <-got)
	assert.Equal(t, []string{"amq.gen-1->notifications_fanout"}, ch.bound)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumeNotificationsReconnects(t *testing.T) {
	first, second := newFakeChannel(), newFakeChannel()
	conn := &fakeConnection{channels: []*fakeChannel{first, second}}
	c := &consumer{conn: conn, prefetch: 1, logger: logger.Nop(), retryDelay: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	go c.ConsumeNotifications(ctx, func(ctx context.Context, body []byte) error {
		got <- string(body)
		return nil
	})

	require.Eventually(t, func() bool { return conn.openedCount() == 1 }, time.Second, 5*time.Millisecond)
	conn.mu.Lock()
	conn.closed = true
	conn.mu.Unlock()
	first.closeChan <- &amqp.Error{Code: 320, Reason: "CONNECTION_FORCED"}

	require.Eventually(t, func() bool { return conn.openedCount() == 2 }, time.Second, 5*time.Millisecond)
	second.deliveries <- amqp.Delivery{Body: []byte("after reconnect")}
	assert.Equal(t, "after reconnect", <-got)

	conn.mu.Lock()
	assert.Equal(t, 1, conn.reconnects)
	conn.mu.Unlock()
}
