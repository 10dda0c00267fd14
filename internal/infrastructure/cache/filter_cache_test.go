package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/infrastructure/cache"
	"github.com/jhoicas/conteo-inventario/pkg/config"
)

// Puerto cerrado: las operaciones fallan rápido y el error se propaga para que el resolver lo omita.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisFilterCache_ErroresDeConexionSePropagan(t *testing.T) {
	c := cache.NewRedisFilterCacheWithClient(unreachableClient(), 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "catalog:filter:x")
	require.Error(t, err)
	assert.False(t, hit)
	assert.ErrorContains(t, c.Set(ctx, "catalog:filter:x", []entity.CatalogProduct{{Code: "A100"}}), "escribir caché")
}

func TestNewRedisFilterCache_SinServidor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := cache.NewRedisFilterCache(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.ErrorContains(t, err, "conectar a Redis")
}
