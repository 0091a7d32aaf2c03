// Package rabbitmq publica eventos de dominio en un exchange topic de RabbitMQ.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"hairy-paws/internal/ports/events"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultExchange = "hairy-paws.events"

type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewPublisher abre conexión y canal, y declara el exchange (topic, durable).
func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish usa e.Name como routing key y el payload como cuerpo JSON.
func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	msg, err := toPublishing(e)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return errors.New("rabbitmq: publisher closed")
	}
	return p.ch.PublishWithContext(ctx, p.exchange, e.Name, false, false, msg)
}

func toPublishing(e events.Event) (amqp.Publishing, error) {
	if e.Name == "" {
		return amqp.Publishing{}, errors.New("rabbitmq: event name required")
	}
	body, err := json.Marshal(e.Payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal %s: %w", e.Name, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         e.Name,
		Timestamp:    e.OccurredAt,
		Body:         body,
	}, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
