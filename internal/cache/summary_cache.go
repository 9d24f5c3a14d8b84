package cache

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockhealth/backend-go/internal/config"
)

const summaryKeyPrefix = "stock_health:summary"

// Summary is the per-tier count of a consolidated view.
type Summary struct {
	Version         string         `json:"version"`
	Outlets         []string       `json:"outlets"`
	TotalItems      int            `json:"total_items"`
	Classifications map[string]int `json:"classifications"`
}

type SummaryCache interface {
	GetSummary(ctx context.Context, version string, outlets []string) (*Summary, bool, error)
	SetSummary(ctx context.Context, summary *Summary) error
	InvalidateAll(ctx context.Context) error
}

type redisSummaryCache struct {
	store *redisStore
}

type noopSummaryCache struct{}

func NewSummaryCache(cfg config.CacheConfig) (SummaryCache, error) {
	if !cfg.Enabled {
		return &noopSummaryCache{}, nil
	}

	store, err := newRedisStore(cfg, summaryKeyPrefix)
	if err != nil {
		return nil, err
	}
	return &redisSummaryCache{store: store}, nil
}

func NewNoopSummaryCache() SummaryCache {
	return &noopSummaryCache{}
}

func summaryKey(version string, outlets []string) string {
	return fmt.Sprintf("%s:%s:%s", summaryKeyPrefix, version, outletHash(outlets))
}

func (c *redisSummaryCache) GetSummary(ctx context.Context, version string, outlets []string) (*Summary, bool, error) {
	var summary Summary
	ok, err := c.store.get(ctx, summaryKey(version, outlets), &summary)
	if err != nil || !ok {
		return nil, false, err
	}
	return &summary, true, nil
}

func (c *redisSummaryCache) SetSummary(ctx context.Context, summary *Summary) error {
	if summary == nil {
		return nil
	}
	return c.store.set(ctx, summaryKey(summary.Version, summary.Outlets), summary)
}

func (c *redisSummaryCache) InvalidateAll(ctx context.Context) error {
	return c.store.clear(ctx)
}

func (n *noopSummaryCache) GetSummary(ctx context.Context, version string, outlets []string) (*Summary, bool, error) {
	return nil, false, nil
}

func (n *noopSummaryCache) SetSummary(ctx context.Context, summary *Summary) error {
	return nil
}

func (n *noopSummaryCache) InvalidateAll(ctx context.Context) error {
	return nil
}
