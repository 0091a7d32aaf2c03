package adoptions

import (
	"context"

	"hairy-paws/internal/domain/animals"
	"hairy-paws/internal/domain/users"
)

// UserDirectory es lo que el motor necesita del directorio de usuarios.
// Errores esperados: apperr NotFound / Forbidden.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (users.User, error)
	FindActive(ctx context.Context, id string) (users.User, error)
}

// AnimalCatalog es lo que el motor necesita del catálogo.
type AnimalCatalog interface {
	FindByID(ctx context.Context, id string) (animals.Animal, error)
}

var (
	_ UserDirectory = (*users.Service)(nil)
	_ AnimalCatalog = (*animals.Service)(nil)
)
