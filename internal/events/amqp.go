package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

const publishTimeout = 5 * time.Second

// confirmBuffer holds confirms that arrive after their publish gave up.
const confirmBuffer = 16

// AMQPPublisher publishes persistent JSON messages to a durable topic
// exchange and waits for the broker to confirm each one.
type AMQPPublisher struct {
	exchange string
	log      *slog.Logger

	mu       sync.Mutex // serializes publish and confirm
	conn     *amqp.Connection
	ch       *amqp.Channel
	confirms chan amqp.Confirmation
	tag      uint64 // delivery tag of the last publish on ch
}

var _ Publisher = (*AMQPPublisher)(nil)

// DialAMQP connects to the broker, declares the exchange and puts the
// channel into confirm mode.
func DialAMQP(url, exchange string, log *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling publisher confirms: %w", err)
	}

	p := &AMQPPublisher{
		exchange: exchange,
		log:      log,
		conn:     conn,
		ch:       ch,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer)),
	}

	log.Info("connected to amqp broker", "exchange", exchange)
	return p, nil
}

// Publish implements Publisher.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish(p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", routingKey, err)
	}
	// Tags count successful publishes on the channel, starting at 1.
	p.tag++

	if err := awaitConfirm(ctx, p.confirms, p.tag, publishTimeout, p.log); err != nil {
		return fmt.Errorf("publishing %s: %w", routingKey, err)
	}
	p.log.Debug("event published", "routing_key", routingKey, "tag", p.tag)
	return nil
}

// awaitConfirm waits for the confirm carrying tag. Confirms for earlier tags
// belong to publishes that already gave up and are discarded.
func awaitConfirm(ctx context.Context, confirms <-chan amqp.Confirmation, tag uint64, timeout time.Duration, log *slog.Logger) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case confirm, ok := <-confirms:
			if !ok {
				return errors.New("amqp channel closed before confirm")
			}
			if confirm.DeliveryTag < tag {
				log.Warn("discarding late publish confirm", "tag", confirm.DeliveryTag, "ack", confirm.Ack)
				continue
			}
			if confirm.DeliveryTag > tag {
				return fmt.Errorf("confirm for tag %d arrived while waiting for %d", confirm.DeliveryTag, tag)
			}
			if !confirm.Ack {
				return errors.New("broker rejected message")
			}
			return nil
		case <-timer.C:
			return errors.New("confirm timeout")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return fmt.Errorf("closing amqp channel: %w", err)
	}
	return p.conn.Close()
}
