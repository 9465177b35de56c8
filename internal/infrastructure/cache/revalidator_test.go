package cache_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/infrastructure/cache"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

func TestMemoryRevalidator_PorEmpresaYEtiqueta(t *testing.T) {
	ctx := context.Background()
	r := cache.NewMemoryRevalidator()

	v, err := r.Version(ctx, "c1", "employees")
	require.NoError(t, err)
	assert.Zero(t, v)

	r.Revalidate(ctx, "c1", "employees", "documents.employees")
	r.Revalidate(ctx, "c1", "employees")

	v, _ = r.Version(ctx, "c1", "employees")
	assert.Equal(t, int64(2), v)
	v, _ = r.Version(ctx, "c1", "documents.employees")
	assert.Equal(t, int64(1), v)
	v, _ = r.Version(ctx, "c2", "employees")
	assert.Zero(t, v, "otra empresa no se ve afectada")
}

// ──────────────────────────────────────────────────────────────────────────────
// Redis (servidor en proceso con miniredis)
// ──────────────────────────────────────────────────────────────────────────────

func newRedis(t *testing.T) (*miniredis.Miniredis, *cache.RedisRevalidator) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := cache.NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, cache.NewRedisRevalidator(rdb, logger.Nop())
}

func TestRedisRevalidator_IncrementaPorEmpresaYEtiqueta(t *testing.T) {
	ctx := context.Background()
	mr, r := newRedis(t)

	v, err := r.Version(ctx, "c1", "clients")
	require.NoError(t, err)
	assert.Zero(t, v)

	r.Revalidate(ctx, "c1", "clients", "commercial.leads")
	r.Revalidate(ctx, "c1", "clients")

	v, err = r.Version(ctx, "c1", "clients")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	v, _ = r.Version(ctx, "c1", "commercial.leads")
	assert.Equal(t, int64(1), v)
	v, _ = r.Version(ctx, "c2", "clients")
	assert.Zero(t, v, "otra empresa no se ve afectada")

	raw, err := mr.Get("gestion:rev:c1:clients")
	require.NoError(t, err)
	assert.Equal(t, "2", raw)
}

func TestRedisRevalidator_SinEtiquetas_NoEscribe(t *testing.T) {
	mr, r := newRedis(t)
	r.Revalidate(context.Background(), "c1")
	assert.Empty(t, mr.Keys())
}

func TestRedisRevalidator_ServidorCaido(t *testing.T) {
	ctx := context.Background()
	mr, r := newRedis(t)
	mr.Close()

	assert.NotPanics(t, func() { r.Revalidate(ctx, "c1", "clients") })
	_, err := r.Version(ctx, "c1", "clients")
	assert.Error(t, err)
}

func TestNewRedisClient_DireccionInvalida(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := cache.NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
