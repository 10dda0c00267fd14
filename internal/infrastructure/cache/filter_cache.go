// Package cache guarda en Redis las resoluciones de filtros de catálogo.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/pkg/config"
)

var _ appinv.FilterCache = (*RedisFilterCache)(nil)

const defaultTTL = 5 * time.Minute

// RedisFilterCache lista de productos por clave de filtro, serializada en JSON, con TTL.
type RedisFilterCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFilterCache conecta y verifica Redis.
func NewRedisFilterCache(ctx context.Context, cfg config.RedisConfig) (*RedisFilterCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return NewRedisFilterCacheWithClient(client, cfg.TTL), nil
}

// NewRedisFilterCacheWithClient usa un cliente existente. ttl <= 0 usa 5 minutos.
func NewRedisFilterCacheWithClient(client *redis.Client, ttl time.Duration) *RedisFilterCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisFilterCache{client: client, ttl: ttl}
}

// Get devuelve (productos, true) si la clave existe.
func (c *RedisFilterCache) Get(ctx context.Context, key string) ([]entity.CatalogProduct, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("leer caché %s: %w", key, err)
	}
	var products []entity.CatalogProduct
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false, fmt.Errorf("decodificar caché %s: %w", key, err)
	}
	return products, true, nil
}

// Set guarda la resolución con el TTL configurado.
func (c *RedisFilterCache) Set(ctx context.Context, key string, products []entity.CatalogProduct) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("codificar caché: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("escribir caché %s: %w", key, err)
	}
	return nil
}

// Close cierra el cliente.
func (c *RedisFilterCache) Close() error {
	return c.client.Close()
}
