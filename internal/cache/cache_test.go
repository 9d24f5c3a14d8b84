package cache

import (
	"context"
	"testing"

	"github.com/andresuchdata/stockhealth/backend-go/internal/config"
	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline/stock_health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutletHashIgnoresOrderAndDuplicates(t *testing.T) {
	t.Parallel()

	a := outletHash([]string{"norte", "CENTRO"})
	b := outletHash([]string{"CENTRO", "NORTE", " norte "})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, outletHash([]string{"CENTRO"}))
	assert.Equal(t, "all", outletHash(nil))
	assert.Equal(t, "all", outletHash([]string{" "}))
}

func TestViewKey(t *testing.T) {
	t.Parallel()

	k := ViewKey{Version: "v1"}
	assert.Equal(t, "stock_health:view:v1:all", k.String())

	k1 := ViewKey{Version: "v1", Outlets: []stock_health.OutletID{stock_health.OutletNorte, stock_health.OutletCentro}}
	k2 := ViewKey{Version: "v1", Outlets: []stock_health.OutletID{stock_health.OutletCentro, stock_health.OutletNorte}}
	assert.Equal(t, k1.String(), k2.String())
	assert.NotEqual(t, k1.String(), ViewKey{Version: "v2", Outlets: k1.Outlets}.String())
	assert.Equal(t, "stock_health:summary:v1:all", summaryKey("v1", nil))
}

func TestBuildRedisOptions(t *testing.T) {
	t.Parallel()

	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@example:6380/1"})
	require.NoError(t, err)
	assert.Equal(t, "example:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}

func TestDisabledCachesAreNoops(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	views, err := NewViewCache(config.CacheConfig{})
	require.NoError(t, err)
	require.NoError(t, views.SetView(ctx, ViewKey{Version: "v"}, nil))
	_, ok, err := views.GetView(ctx, ViewKey{Version: "v"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, views.InvalidateAll(ctx))

	summaries, err := NewSummaryCache(config.CacheConfig{})
	require.NoError(t, err)
	require.NoError(t, summaries.SetSummary(ctx, &Summary{Version: "v"}))
	_, ok, err = summaries.GetSummary(ctx, "v", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
