package memory

import (
	"context"
	"sync"
	"time"
)

// LoginGuard cuenta logins fallidos por clave dentro de una ventana.
// Al llegar a limit la clave queda bloqueada hasta que vence la ventana.
type LoginGuard struct {
	mu    sync.Mutex
	limit int
	ttl   time.Duration
	now   func() time.Time
	byKey map[string]failures
}

type failures struct {
	count   int
	expires time.Time
}

func NewLoginGuard(limit int, ttl time.Duration) *LoginGuard {
	if limit <= 0 {
		limit = 5
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &LoginGuard{
		limit: limit,
		ttl:   ttl,
		now:   time.Now,
		byKey: make(map[string]failures),
	}
}

func (g *LoginGuard) Locked(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, ok := g.byKey[key]
	if !ok {
		return false, nil
	}
	if !g.now().Before(f.expires) {
		delete(g.byKey, key)
		return false, nil
	}
	return f.count >= g.limit, nil
}

func (g *LoginGuard) RecordFailure(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	f, ok := g.byKey[key]
	if !ok || !now.Before(f.expires) {
		// La ventana arranca con el primer fallo, igual que INCR + EXPIRE.
		f = failures{expires: now.Add(g.ttl)}
	}
	f.count++
	g.byKey[key] = f
	return nil
}

func (g *LoginGuard) Reset(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.byKey, key)
	return nil
}
