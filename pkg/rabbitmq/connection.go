package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the subset of *amqp.Channel used by consumers and publishers.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Session is a live broker connection.
type Session interface {
	Channel() (Channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// Dialer opens a Session to the broker at url.
type Dialer func(url string) (Session, error)

// Connection wraps an AMQP connection.
type Connection struct {
	URL  string
	Conn *amqp.Connection
}

// Dial opens a single AMQP connection without retrying.
func Dial(url string) (Session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &Connection{URL: url, Conn: conn}, nil
}

// Connect establishes a connection to RabbitMQ, retrying every interval up to
// attempts times or until ctx is done.
func Connect(ctx context.Context, url string, attempts int, interval time.Duration, logger *zap.Logger) (*Connection, error) {
	var err error
	for i := 0; i < attempts; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(url)
		if err == nil {
			logger.Info("connected to RabbitMQ")
			return &Connection{URL: url, Conn: conn}, nil
		}
		logger.Warn("failed to connect to RabbitMQ, retrying",
			zap.Error(err), zap.Int("attempt", i+1), zap.Duration("retry_in", interval))
		if serr := sleepContext(ctx, interval); serr != nil {
			return nil, serr
		}
	}

	return nil, fmt.Errorf("could not connect to RabbitMQ after %d attempts: %w", attempts, err)
}

// Channel opens a new AMQP channel.
func (c *Connection) Channel() (Channel, error) {
	ch, err := c.Conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// NotifyClose registers a listener for connection close events.
func (c *Connection) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	return c.Conn.NotifyClose(receiver)
}

// Close closes the connection.
func (c *Connection) Close() error {
	if c.Conn != nil && !c.Conn.IsClosed() {
		return c.Conn.Close()
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
