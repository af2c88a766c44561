package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the shared topic exchange all domain events are published to.
const ExchangeName = "events_topic"

// Binding ties a queue to a topic exchange through a routing pattern. It is
// declared once per consumer connection.
type Binding struct {
	Exchange string
	Queue    string
	Pattern  string
	Durable  bool

	// DeadLetterQueue receives deliveries the consumer rejects. Empty means
	// rejected deliveries are acked and logged instead.
	DeadLetterQueue string
}

// Validate checks the binding is complete and its pattern well formed.
func (b Binding) Validate() error {
	if b.Exchange == "" {
		return fmt.Errorf("binding: exchange is required")
	}
	if b.Queue == "" {
		return fmt.Errorf("binding: queue is required")
	}
	if err := ValidatePattern(b.Pattern); err != nil {
		return fmt.Errorf("binding %s: %w", b.Queue, err)
	}
	return nil
}

// DeclareTopology declares the topic exchange, the optional dead-letter
// queue and the consumer queue, then binds the queue with the pattern.
// Every step is idempotent on the broker.
func DeclareTopology(ch Channel, b Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}

	err := ch.ExchangeDeclare(
		b.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", b.Exchange, err)
	}

	var args amqp.Table
	if b.DeadLetterQueue != "" {
		_, err = ch.QueueDeclare(
			b.DeadLetterQueue,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare dead-letter queue %s: %w", b.DeadLetterQueue, err)
		}
		args = amqp.Table{
			"x-dead-letter-exchange":    "", // default exchange
			"x-dead-letter-routing-key": b.DeadLetterQueue,
		}
	}

	_, err = ch.QueueDeclare(
		b.Queue,
		b.Durable,
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		args,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", b.Queue, err)
	}

	if err := ch.QueueBind(b.Queue, b.Pattern, b.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s with %q: %w", b.Queue, b.Exchange, b.Pattern, err)
	}
	return nil
}
