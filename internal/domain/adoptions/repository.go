package adoptions

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("adoption request not found")
	// ErrDuplicatePending: ya existe una PENDING del mismo adoptante, animal y tipo.
	ErrDuplicatePending = errors.New("pending adoption request already exists")
	// ErrNotPending: el compare-and-set sobre status = PENDING no aplicó.
	ErrNotPending = errors.New("adoption request is not pending")
	// ErrAnimalUnavailable: el animal ya no estaba AVAILABLE al aprobar.
	ErrAnimalUnavailable = errors.New("animal is not available")
)

type Repository interface {
	Create(ctx context.Context, req Request) error
	GetByID(ctx context.Context, id string) (Request, error)
	// Listados, más recientes primero.
	ListByOwner(ctx context.Context, ownerUserID string) ([]Request, error)
	ListByAdopter(ctx context.Context, adopterUserID string) ([]Request, error)
	// ApplyDecision aplica la decisión solo si la solicitud sigue PENDING y devuelve
	// la solicitud resultante. Debe ser atómico junto con el cambio del animal.
	ApplyDecision(ctx context.Context, d Decision) (Request, error)
}
