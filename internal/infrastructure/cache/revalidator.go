// Package cache implementa la revalidación de caché por etiqueta (versiones monotónicas por empresa).
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Gestion-api/internal/application/ports"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

var (
	_ ports.Revalidator = (*RedisRevalidator)(nil)
	_ ports.Revalidator = (*MemoryRevalidator)(nil)
)

const keyPrefix = "gestion:rev"

func versionKey(companyID, tag string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, companyID, tag)
}

// NewRedisClient abre el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a redis: %w", err)
	}
	return client, nil
}

// RedisRevalidator versiones compartidas entre réplicas (INCR por etiqueta).
type RedisRevalidator struct {
	rdb *redis.Client
	log *logger.Logger
}

// NewRedisRevalidator construye el adaptador.
func NewRedisRevalidator(rdb *redis.Client, log *logger.Logger) *RedisRevalidator {
	return &RedisRevalidator{rdb: rdb, log: log}
}

// Revalidate incrementa la versión de cada etiqueta. Los errores solo se registran.
func (r *RedisRevalidator) Revalidate(ctx context.Context, companyID string, tags ...string) {
	if len(tags) == 0 {
		return
	}
	pipe := r.rdb.Pipeline()
	for _, tag := range tags {
		pipe.Incr(ctx, versionKey(companyID, tag))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn().Err(err).Str("company_id", companyID).Strs("tags", tags).Msg("revalidación de caché fallida")
	}
}

// Version versión actual de la etiqueta (0 si nunca se revalidó).
func (r *RedisRevalidator) Version(ctx context.Context, companyID, tag string) (int64, error) {
	v, err := r.rdb.Get(ctx, versionKey(companyID, tag)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("leer versión de caché: %w", err)
	}
	return v, nil
}

// MemoryRevalidator versiones en proceso; sirve cuando no hay Redis (una sola réplica) y en tests.
type MemoryRevalidator struct {
	mu       sync.Mutex
	versions map[string]int64
}

// NewMemoryRevalidator construye el revalidador en memoria.
func NewMemoryRevalidator() *MemoryRevalidator {
	return &MemoryRevalidator{versions: make(map[string]int64)}
}

// Revalidate incrementa la versión de cada etiqueta.
func (m *MemoryRevalidator) Revalidate(_ context.Context, companyID string, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tag := range tags {
		m.versions[versionKey(companyID, tag)]++
	}
}

// Version versión actual de la etiqueta.
func (m *MemoryRevalidator) Version(_ context.Context, companyID, tag string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[versionKey(companyID, tag)], nil
}
