package rabbitmq

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type declaredQueue struct {
	Name    string
	Durable bool
	Args    amqp.Table
}

type binding struct {
	Queue, Key, Exchange string
}

// fakeBroker is an in-memory stand-in for one queue on a RabbitMQ broker.
// Unacked deliveries go back to the queue, flagged redelivered, whenever the
// session that received them closes.
type fakeBroker struct {
	mu sync.Mutex

	pending      []amqp.Delivery
	unacked      map[uint64]amqp.Delivery
	acked        []amqp.Delivery
	deadLettered []amqp.Delivery
	nextTag      uint64

	exchanges []string
	queues    []declaredQueue
	bindings  []binding
	published []amqp.Publishing
	qos       int

	dials    int
	dialErrs []error
	current  *fakeSession
	sessions []*fakeSession
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{unacked: make(map[uint64]amqp.Delivery)}
}

func (b *fakeBroker) enqueue(routingKey string, body string) {
	b.mu.Lock()
	b.pending = append(b.pending, amqp.Delivery{RoutingKey: routingKey, Body: []byte(body), MessageId: routingKey + "-" + body})
	s := b.current
	b.mu.Unlock()
	if s != nil {
		s.flush()
	}
}

func (b *fakeBroker) dial(string) (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dials++
	if len(b.dialErrs) > 0 {
		err := b.dialErrs[0]
		b.dialErrs = b.dialErrs[1:]
		return nil, err
	}
	s := &fakeSession{broker: b}
	b.current = s
	b.sessions = append(b.sessions, s)
	return s, nil
}

// dropConnection simulates the broker closing the active connection.
func (b *fakeBroker) dropConnection() {
	b.mu.Lock()
	s := b.current
	b.mu.Unlock()
	if s != nil {
		s.shutdown(&amqp.Error{Code: amqp.ConnectionForced, Reason: "broker restarting"})
	}
}

func (b *fakeBroker) Ack(tag uint64, multiple bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.unacked[tag]
	if !ok {
		return errors.New("unknown delivery tag")
	}
	delete(b.unacked, tag)
	b.acked = append(b.acked, d)
	return nil
}

func (b *fakeBroker) Nack(tag uint64, multiple, requeue bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.unacked[tag]
	if !ok {
		return errors.New("unknown delivery tag")
	}
	delete(b.unacked, tag)
	if requeue {
		d.Redelivered = true
		b.pending = append(b.pending, d)
		return nil
	}
	b.deadLettered = append(b.deadLettered, d)
	return nil
}

func (b *fakeBroker) Reject(tag uint64, requeue bool) error {
	return b.Nack(tag, false, requeue)
}

func (b *fakeBroker) snapshot() (acked, deadLettered, unacked, pending int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.acked), len(b.deadLettered), len(b.unacked), len(b.pending)
}

type fakeSession struct {
	broker *fakeBroker

	mu         sync.Mutex
	notify     []chan *amqp.Error
	deliveries chan amqp.Delivery
	closed     bool
}

func (s *fakeSession) Channel() (Channel, error) {
	return &fakeChannel{session: s}, nil
}

func (s *fakeSession) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = append(s.notify, receiver)
	return receiver
}

func (s *fakeSession) Close() error {
	s.shutdown(nil)
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) shutdown(reason *amqp.Error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, n := range s.notify {
		if reason != nil {
			n <- reason
		}
		close(n)
	}
	if s.deliveries != nil {
		close(s.deliveries)
	}
	s.mu.Unlock()

	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	var requeue []amqp.Delivery
	for _, d := range b.unacked {
		d.Redelivered = true
		requeue = append(requeue, d)
	}
	sort.Slice(requeue, func(i, j int) bool { return requeue[i].DeliveryTag < requeue[j].DeliveryTag })
	b.unacked = make(map[uint64]amqp.Delivery)
	b.pending = append(requeue, b.pending...)
	if b.current == s {
		b.current = nil
	}
}

// flush hands pending messages to the active consumer.
func (s *fakeSession) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.deliveries == nil {
		return
	}

	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.pending) > 0 {
		d := b.pending[0]
		b.nextTag++
		d.DeliveryTag = b.nextTag
		d.Acknowledger = b
		select {
		case s.deliveries <- d:
			b.pending = b.pending[1:]
			b.unacked[d.DeliveryTag] = d
		default:
			return
		}
	}
}

type fakeChannel struct {
	session *fakeSession
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	b := c.session.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exchanges = append(b.exchanges, name+":"+kind)
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	b := c.session.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues = append(b.queues, declaredQueue{Name: name, Durable: durable, Args: args})
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	b := c.session.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bindings = append(b.bindings, binding{Queue: name, Key: key, Exchange: exchange})
	return nil
}

func (c *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	b := c.session.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	b.qos = prefetchCount
	return nil
}

func (c *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if autoAck {
		return nil, errors.New("fake broker only supports manual ack")
	}
	s := c.session
	s.mu.Lock()
	s.deliveries = make(chan amqp.Delivery, 16)
	ch := s.deliveries
	s.mu.Unlock()
	s.flush()
	return ch, nil
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	b := c.session.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, msg)
	return nil
}

func (c *fakeChannel) Close() error { return nil }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
