package config

import (
	"testing"
	"time"

	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline/stock_health"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	t.Parallel()

	v := viper.New()
	setDefaults(v)

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, stock_health.DefaultSettings(), cfg.Inventory.Settings())
	assert.Equal(t, 4, cfg.Inventory.PipelineWorkers)
	assert.Equal(t, 500*time.Millisecond, cfg.Inventory.RetryBackoff)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ViewTTL)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Storage.Enabled)
	assert.False(t, cfg.Drive.Enabled)
}

func TestFromViperOverrides(t *testing.T) {
	t.Parallel()

	v := viper.New()
	setDefaults(v)
	v.Set("SHORTAGE_DAYS", 10)
	v.Set("EXCESS_DAYS", 45)
	v.Set("HORIZONS", " 15, 30 ,,")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, stock_health.Settings{ShortageDays: 10, ExcessDays: 45, Horizons: []int{15, 30}}, cfg.Inventory.Settings())
}

func TestFromViperRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	v := viper.New()
	setDefaults(v)
	v.Set("EXCESS_DAYS", 5)
	_, err := fromViper(v)
	assert.ErrorIs(t, err, stock_health.ErrInvalidSettings)

	v = viper.New()
	setDefaults(v)
	v.Set("HORIZONS", "30,soon")
	_, err = fromViper(v)
	assert.Error(t, err)
}

func TestSettingsDoesNotShareHorizons(t *testing.T) {
	t.Parallel()

	inv := InventoryConfig{ShortageDays: 1, ExcessDays: 2, Horizons: []int{30}}
	s := inv.Settings()
	s.Horizons[0] = 99
	assert.Equal(t, []int{30}, inv.Horizons)
}
