package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultCacheTTL = 5 * time.Minute

// CatalogCache stores read-mostly catalog data. Calendars and slots are never
// cached; they must be fresh for every booking decision.
type CatalogCache interface {
	GetService(ctx context.Context, serviceID string) (*Service, bool, error)
	SetService(ctx context.Context, svc *Service) error
	GetProviders(ctx context.Context, filter ProviderFilter) ([]Provider, bool, error)
	SetProviders(ctx context.Context, filter ProviderFilter, providers []Provider) error
	InvalidateService(ctx context.Context, serviceID string) error
}

// RedisCatalogCache keeps catalog entries in Redis with a fixed TTL.
type RedisCatalogCache struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration) *RedisCatalogCache {
	if client == nil {
		panic("marketplace: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCatalogCache{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("marketplace.internal.marketplace.cache"),
	}
}

func (c *RedisCatalogCache) serviceKey(serviceID string) string {
	return fmt.Sprintf("marketplace:service:%s", serviceID)
}

func (c *RedisCatalogCache) providersKey(filter ProviderFilter) string {
	category := strings.ToLower(strings.TrimSpace(filter.Category))
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	return fmt.Sprintf("marketplace:providers:%s:%s", category, query)
}

func (c *RedisCatalogCache) GetService(ctx context.Context, serviceID string) (*Service, bool, error) {
	ctx, span := c.tracer.Start(ctx, "marketplace.cache.get_service")
	defer span.End()

	data, err := c.redis.Get(ctx, c.serviceKey(serviceID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("marketplace: cache get service: %w", err)
	}
	var svc Service
	if err := json.Unmarshal(data, &svc); err != nil {
		return nil, false, fmt.Errorf("marketplace: cache unmarshal service: %w", err)
	}
	return &svc, true, nil
}

func (c *RedisCatalogCache) SetService(ctx context.Context, svc *Service) error {
	if svc == nil || svc.ID == "" {
		return nil
	}
	ctx, span := c.tracer.Start(ctx, "marketplace.cache.set_service")
	defer span.End()

	data, err := json.Marshal(svc)
	if err != nil {
		return fmt.Errorf("marketplace: cache marshal service: %w", err)
	}
	if err := c.redis.Set(ctx, c.serviceKey(svc.ID), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("marketplace: cache set service: %w", err)
	}
	return nil
}

func (c *RedisCatalogCache) GetProviders(ctx context.Context, filter ProviderFilter) ([]Provider, bool, error) {
	ctx, span := c.tracer.Start(ctx, "marketplace.cache.get_providers")
	defer span.End()

	data, err := c.redis.Get(ctx, c.providersKey(filter)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("marketplace: cache get providers: %w", err)
	}
	var providers []Provider
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, false, fmt.Errorf("marketplace: cache unmarshal providers: %w", err)
	}
	return providers, true, nil
}

func (c *RedisCatalogCache) SetProviders(ctx context.Context, filter ProviderFilter, providers []Provider) error {
	data, err := json.Marshal(providers)
	if err != nil {
		return fmt.Errorf("marketplace: cache marshal providers: %w", err)
	}
	if err := c.redis.Set(ctx, c.providersKey(filter), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("marketplace: cache set providers: %w", err)
	}
	return nil
}

// InvalidateService drops a cached service, e.g. after a new review changes
// its rating.
func (c *RedisCatalogCache) InvalidateService(ctx context.Context, serviceID string) error {
	if err := c.redis.Del(ctx, c.serviceKey(serviceID)).Err(); err != nil {
		return fmt.Errorf("marketplace: cache invalidate service: %w", err)
	}
	return nil
}
