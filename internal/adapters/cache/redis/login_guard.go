// Package redis implementa el lockout de login sobre Redis (go-redis/v9),
// compartido entre réplicas del API.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "hairy-paws:login:fail:"

// LoginGuard cuenta fallos con INCR; la ventana arranca con el primer fallo.
type LoginGuard struct {
	client *goredis.Client
	limit  int64
	ttl    time.Duration
}

// New conecta a partir de una URL redis:// o rediss:// y verifica con PING.
func New(ctx context.Context, url string, limit int, ttl time.Duration) (*LoginGuard, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, limit, ttl), nil
}

func NewWithClient(client *goredis.Client, limit int, ttl time.Duration) *LoginGuard {
	if limit <= 0 {
		limit = 5
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &LoginGuard{client: client, limit: int64(limit), ttl: ttl}
}

func (g *LoginGuard) Locked(ctx context.Context, key string) (bool, error) {
	n, err := g.client.Get(ctx, keyPrefix+key).Int64()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= g.limit, nil
}

func (g *LoginGuard) RecordFailure(ctx context.Context, key string) error {
	// INCR y EXPIRE NX van en el mismo MULTI: el primer fallo fija el TTL
	// y los siguientes no lo extienden.
	k := keyPrefix + key
	_, err := g.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, g.ttl)
		return nil
	})
	return err
}

func (g *LoginGuard) Reset(ctx context.Context, key string) error {
	return g.client.Del(ctx, keyPrefix+key).Err()
}

func (g *LoginGuard) Close() error {
	return g.client.Close()
}
