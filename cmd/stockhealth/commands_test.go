package main

import (
	"io"
	"testing"

	"github.com/andresuchdata/stockhealth/backend-go/internal/config"
	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline/stock_health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runFlags(t *testing.T, args ...string) (stock_health.Settings, error) {
	t.Helper()
	cfg := &config.Config{Inventory: config.InventoryConfig{ShortageDays: 20, ExcessDays: 60, Horizons: []int{30, 60}}}

	var (
		settings stock_health.Settings
		flagErr  error
	)
	app := &cli.App{
		Name:      "stockhealth",
		Flags:     classificationFlags(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
		Action: func(c *cli.Context) error {
			settings, flagErr = settingsFromFlags(c, cfg)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"stockhealth"}, args...)))
	return settings, flagErr
}

func TestSettingsFromFlags(t *testing.T) {
	s, err := runFlags(t)
	require.NoError(t, err)
	assert.Equal(t, stock_health.Settings{ShortageDays: 20, ExcessDays: 60, Horizons: []int{30, 60}}, s)

	s, err = runFlags(t, "--shortage-days", "10", "--horizons", "15,45")
	require.NoError(t, err)
	assert.Equal(t, stock_health.Settings{ShortageDays: 10, ExcessDays: 60, Horizons: []int{15, 45}}, s)

	_, err = runFlags(t, "--excess-days", "5")
	assert.ErrorIs(t, err, stock_health.ErrInvalidSettings)

	_, err = runFlags(t, "--horizons", "30,x")
	assert.Error(t, err)
}

func TestParseOutlets(t *testing.T) {
	assert.Equal(t, []stock_health.OutletID{"NORTE", "CENTRO"}, parseOutlets(" norte,,Centro "))
	assert.Nil(t, parseOutlets(""))
}
