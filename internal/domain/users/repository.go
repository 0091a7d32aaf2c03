package users

import (
	"context"
	"errors"
)

// Errores que deben devolver los adapters de storage (envueltos con %w si quieren contexto).
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type Repository interface {
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
}

// LoginGuard lleva la cuenta de logins fallidos por clave (email) y bloquea
// temporalmente al superar el umbral.
type LoginGuard interface {
	Locked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
