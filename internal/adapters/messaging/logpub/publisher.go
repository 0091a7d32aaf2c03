// Package logpub es el Publisher por defecto cuando no hay broker: deja
// cada evento en el log estructurado.
package logpub

import (
	"context"

	"hairy-paws/internal/platform/logger"
	"hairy-paws/internal/ports/events"
)

type Publisher struct {
	log logger.Logger
}

func New(log logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{log: log.With(map[string]any{"component": "events"})}
}

func (p *Publisher) Publish(_ context.Context, e events.Event) error {
	p.log.Info("event published", map[string]any{
		"event":       e.Name,
		"occurred_at": e.OccurredAt,
		"payload":     e.Payload,
	})
	return nil
}
