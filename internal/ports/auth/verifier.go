package auth

import (
	"context"
	"time"
)

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer emite tokens de acceso para un usuario ya autenticado.
type TokenIssuer interface {
	Issue(ctx context.Context, c Claims) (token string, expiresIn time.Duration, err error)
}

// TokenService junta ambos lados; el adapter JWT implementa los dos.
type TokenService interface {
	AuthVerifier
	TokenIssuer
}
