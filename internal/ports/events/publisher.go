package events

import (
	"context"
	"time"
)

// Event es un evento de dominio ya serializable. Name se usa como routing key.
type Event struct {
	Name       string
	OccurredAt time.Time
	Payload    any
}

// Publisher entrega eventos a un broker (o al log). Best-effort: quien publica
// no revierte su cambio si Publish falla.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
