package cache

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockhealth/backend-go/internal/config"
	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline/stock_health"
)

const viewKeyPrefix = "stock_health:view"

// ViewKey identifies one reconsolidated view of one snapshot.
type ViewKey struct {
	Version string
	Outlets []stock_health.OutletID
}

func (k ViewKey) String() string {
	ids := make([]string, len(k.Outlets))
	for i, o := range k.Outlets {
		ids[i] = string(o)
	}
	return fmt.Sprintf("%s:%s:%s", viewKeyPrefix, k.Version, outletHash(ids))
}

// ViewCache stores consolidated views per snapshot version and outlet selection.
type ViewCache interface {
	GetView(ctx context.Context, key ViewKey) ([]stock_health.ConsolidatedItem, bool, error)
	SetView(ctx context.Context, key ViewKey, items []stock_health.ConsolidatedItem) error
	InvalidateAll(ctx context.Context) error
}

type redisViewCache struct {
	store *redisStore
}

type noopViewCache struct{}

func NewViewCache(cfg config.CacheConfig) (ViewCache, error) {
	if !cfg.Enabled {
		return &noopViewCache{}, nil
	}

	store, err := newRedisStore(cfg, viewKeyPrefix)
	if err != nil {
		return nil, err
	}
	return &redisViewCache{store: store}, nil
}

func NewNoopViewCache() ViewCache {
	return &noopViewCache{}
}

func (c *redisViewCache) GetView(ctx context.Context, key ViewKey) ([]stock_health.ConsolidatedItem, bool, error) {
	var items []stock_health.ConsolidatedItem
	ok, err := c.store.get(ctx, key.String(), &items)
	if err != nil || !ok {
		return nil, false, err
	}
	return items, true, nil
}

func (c *redisViewCache) SetView(ctx context.Context, key ViewKey, items []stock_health.ConsolidatedItem) error {
	return c.store.set(ctx, key.String(), items)
}

func (c *redisViewCache) InvalidateAll(ctx context.Context) error {
	return c.store.clear(ctx)
}

func (n *noopViewCache) GetView(ctx context.Context, key ViewKey) ([]stock_health.ConsolidatedItem, bool, error) {
	return nil, false, nil
}

func (n *noopViewCache) SetView(ctx context.Context, key ViewKey, items []stock_health.ConsolidatedItem) error {
	return nil
}

func (n *noopViewCache) InvalidateAll(ctx context.Context) error {
	return nil
}
