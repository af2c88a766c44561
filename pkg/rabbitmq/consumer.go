package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/metrics"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// State is a consumer lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateBound
	StateConsuming
	StateProcessing
	StateReconnecting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateBound:
		return "bound"
	case StateConsuming:
		return "consuming"
	case StateProcessing:
		return "processing"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	// ErrMalformedBody is returned when a delivery body is not UTF-8 JSON.
	ErrMalformedBody = errors.New("message body is not valid UTF-8 JSON")
	// ErrUnexpectedRoutingKey is returned for deliveries outside the binding pattern.
	ErrUnexpectedRoutingKey = errors.New("routing key does not match binding pattern")

	errConnectionLost = errors.New("broker connection lost")
)

// Handler processes one decoded event. Return nil to ack, an error to reject
// the delivery to the dead-letter queue.
type Handler func(ctx context.Context, event models.DomainEvent) error

// ConsumerConfig holds configuration for a consumer.
type ConsumerConfig struct {
	Binding      Binding
	ConsumerName string

	// Prefetch bounds unacknowledged deliveries; 1 keeps a single message in flight.
	Prefetch int

	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
}

// Consumer owns one binding and runs the connect, bind, receive, decode,
// handle, resolve loop for it.
type Consumer struct {
	url     string
	cfg     ConsumerConfig
	handler Handler
	dial    Dialer
	logger  *zap.Logger
	state   atomic.Int32
}

// ConsumerOption customises a Consumer.
type ConsumerOption func(*Consumer)

// WithDialer replaces the AMQP dialer.
func WithDialer(d Dialer) ConsumerOption {
	return func(c *Consumer) { c.dial = d }
}

// WithLogger sets the consumer logger.
func WithLogger(l *zap.Logger) ConsumerOption {
	return func(c *Consumer) { c.logger = l }
}

// NewConsumer creates a consumer for cfg.Binding. Run starts it.
func NewConsumer(url string, cfg ConsumerConfig, handler Handler, opts ...ConsumerOption) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.ReconnectInitial <= 0 {
		cfg.ReconnectInitial = time.Second
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = 30 * time.Second
	}
	if cfg.ConsumerName == "" {
		cfg.ConsumerName = cfg.Binding.Queue + "-consumer"
	}

	c := &Consumer{
		url:     url,
		cfg:     cfg,
		handler: handler,
		dial:    Dial,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("consumer", cfg.ConsumerName), zap.String("queue", cfg.Binding.Queue))
	return c
}

// State returns the current lifecycle state.
func (c *Consumer) State() State {
	return State(c.state.Load())
}

func (c *Consumer) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	metrics.ConsumerState.WithLabelValues(c.cfg.Binding.Queue).Set(float64(s))
	if prev != s && s != StateProcessing && prev != StateProcessing {
		c.logger.Debug("consumer state changed", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

// Run consumes until ctx is cancelled, reconnecting with backoff whenever the
// broker connection drops. It returns nil on cancellation and an error only
// for an invalid binding.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.cfg.Binding.Validate(); err != nil {
		return err
	}
	defer c.setState(StateStopped)

	attempt := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		c.setState(StateConnecting)
		err := c.session(ctx)
		if ctx.Err() != nil {
			c.logger.Info("consumer stopped")
			return nil
		}

		if errors.Is(err, errConnectionLost) {
			// the session was healthy before it dropped
			attempt = 0
		}
		c.setState(StateReconnecting)
		metrics.ConsumerReconnects.WithLabelValues(c.cfg.Binding.Queue).Inc()
		wait := reconnectBackoff(attempt, c.cfg.ReconnectInitial, c.cfg.ReconnectMax)
		attempt++
		c.logger.Warn("broker session ended, reconnecting",
			zap.Error(err), zap.Int("attempt", attempt), zap.Duration("retry_in", wait))
		if sleepContext(ctx, wait) != nil {
			return nil
		}
	}
}

// session runs one connection lifetime: connect, bind, then consume until
// the connection drops or ctx is done.
func (c *Consumer) session(ctx context.Context) error {
	sess, err := c.dial(c.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			c.logger.Debug("close connection", zap.Error(cerr))
		}
	}()
	closed := sess.NotifyClose(make(chan *amqp.Error, 1))

	ch, err := sess.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	if err := DeclareTopology(ch, c.cfg.Binding); err != nil {
		return err
	}
	c.setState(StateBound)

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		c.cfg.Binding.Queue,
		c.cfg.ConsumerName,
		false, // auto-ack = false (manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.Binding.Queue, err)
	}

	c.setState(StateConsuming)
	c.logger.Info("consumer started",
		zap.String("exchange", c.cfg.Binding.Exchange), zap.String("pattern", c.cfg.Binding.Pattern))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr, ok := <-closed:
			if ok && amqpErr != nil {
				return fmt.Errorf("%w: %v", errConnectionLost, amqpErr)
			}
			return errConnectionLost
		case d, ok := <-deliveries:
			if !ok {
				return errConnectionLost
			}
			if err := c.process(ctx, d); err != nil {
				return err
			}
		}
	}
}

// process handles one delivery. A delivery is acked only after the handler
// returns; if ctx ends while handling it is left unresolved for redelivery.
func (c *Consumer) process(ctx context.Context, d amqp.Delivery) error {
	c.setState(StateProcessing)
	log := c.logger.With(
		zap.String("routing_key", d.RoutingKey),
		zap.Uint64("delivery_tag", d.DeliveryTag),
		zap.String("correlation_id", d.CorrelationId),
		zap.Bool("redelivered", d.Redelivered),
	)
	log.Debug("received message")

	event, err := DecodeEvent(d)
	if err == nil && !MatchRoutingKey(c.cfg.Binding.Pattern, d.RoutingKey) {
		err = fmt.Errorf("%w: %q not in %q", ErrUnexpectedRoutingKey, d.RoutingKey, c.cfg.Binding.Pattern)
	}
	if err == nil {
		err = c.handler(ctx, event)
		if ctx.Err() != nil {
			metrics.ConsumerDeliveries.WithLabelValues(c.cfg.Binding.Queue, metrics.OutcomeAbandoned).Inc()
			log.Warn("shutdown during processing, leaving message for redelivery")
			return ctx.Err()
		}
	}

	if err != nil {
		if rerr := c.reject(d, err, log); rerr != nil {
			return fmt.Errorf("%w: %v", errConnectionLost, rerr)
		}
		c.setState(StateConsuming)
		return nil
	}

	if err := d.Ack(false); err != nil {
		return fmt.Errorf("%w: ack delivery %d: %v", errConnectionLost, d.DeliveryTag, err)
	}
	metrics.ConsumerDeliveries.WithLabelValues(c.cfg.Binding.Queue, metrics.OutcomeAcked).Inc()
	c.setState(StateConsuming)
	return nil
}

// reject resolves a failed delivery: dead-lettered when the binding has a
// dead-letter queue, otherwise acked so it is not redelivered forever.
func (c *Consumer) reject(d amqp.Delivery, cause error, log *zap.Logger) error {
	if c.cfg.Binding.DeadLetterQueue != "" {
		log.Error("error processing message, dead-lettering",
			zap.Error(cause), zap.String("dead_letter_queue", c.cfg.Binding.DeadLetterQueue))
		if err := d.Nack(false, false); err != nil {
			return err
		}
		metrics.ConsumerDeliveries.WithLabelValues(c.cfg.Binding.Queue, metrics.OutcomeDeadLettered).Inc()
		return nil
	}

	log.Error("error processing message, discarding", zap.Error(cause), zap.ByteString("body", d.Body))
	if err := d.Ack(false); err != nil {
		return err
	}
	metrics.ConsumerDeliveries.WithLabelValues(c.cfg.Binding.Queue, metrics.OutcomeDiscarded).Inc()
	return nil
}

// DecodeEvent validates the delivery body as UTF-8 JSON and wraps it in a
// DomainEvent.
func DecodeEvent(d amqp.Delivery) (models.DomainEvent, error) {
	if !utf8.Valid(d.Body) || !json.Valid(d.Body) {
		return models.DomainEvent{}, ErrMalformedBody
	}

	payload := make(json.RawMessage, len(d.Body))
	copy(payload, d.Body)

	ts := d.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return models.DomainEvent{
		RoutingKey:    d.RoutingKey,
		Payload:       payload,
		MessageID:     d.MessageId,
		CorrelationID: d.CorrelationId,
		Redelivered:   d.Redelivered,
		Timestamp:     ts,
	}, nil
}

func reconnectBackoff(attempt int, initial, max time.Duration) time.Duration {
	backoff := float64(initial) * math.Pow(2, float64(attempt))
	if backoff > float64(max) {
		backoff = float64(max)
	}
	jitter := 0.2 * backoff
	return time.Duration(backoff + (rand.Float64()-0.5)*2*jitter)
}
