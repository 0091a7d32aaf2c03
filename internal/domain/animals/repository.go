package animals

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("animal not found")

type Repository interface {
	Create(ctx context.Context, a Animal) error
	Update(ctx context.Context, a Animal) error
	// AppendImage agrega url al final de images sin tocar el resto del animal.
	AppendImage(ctx context.Context, id, url string, at time.Time) (Animal, error)
	// Delete borra el animal y sus solicitudes de adopción.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Animal, error)
	// List devuelve los más recientes primero.
	List(ctx context.Context, f ListFilter) ([]Animal, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Animal, error)
}

// ImageStore guarda binarios de imágenes y devuelve su URL pública.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (url string, err error)
}
