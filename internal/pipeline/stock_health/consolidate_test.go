package stock_health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidateRecomputesFromTotals(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	items, err := ClassifyAll(context.Background(), allRows(), s)
	require.NoError(t, err)

	consolidated := Consolidate(items, s)
	require.Len(t, consolidated, 4)
	assert.Equal(t, "A1", consolidated[0].ProductCode)

	a1 := consolidatedByCode(consolidated)["A1"]
	assert.Equal(t, 120, a1.CurrentStock)
	assert.Equal(t, 150, a1.TotalSales)
	assert.Equal(t, DaysOfSupply(48), a1.DaysOfSupply)
	assert.Equal(t, Balanced, a1.Classification)
	assert.Equal(t, 5, a1.SuggestionFor(50))
	assert.Equal(t, 30, a1.SuggestionFor(60))
	assert.Equal(t, []OutletID{OutletCentro, OutletNorte}, a1.Outlets)
	assert.Equal(t, map[OutletID]int{OutletCentro: 100, OutletNorte: 20}, a1.StockByOutlet)
	assert.Equal(t, []string{"Guante latex mediano", "GUANTE LATEX M"}, a1.ProductNames)
	assert.Equal(t, []string{"Quirurgico"}, a1.Departments)
	assert.Equal(t, []string{"Acme"}, a1.Brands)
}

func TestConsolidateSingleOutletIsIdentity(t *testing.T) {
	t.Parallel()

	rows := norteRows()
	items := Classify(rows.Outlet, rows.Stock, rows.Sales, DefaultSettings())
	consolidated := consolidatedByCode(Consolidate(items, DefaultSettings()))

	require.Len(t, consolidated, len(items))
	for _, item := range items {
		c := consolidated[item.ProductCode]
		assert.Equal(t, item.CurrentStock, c.CurrentStock, item.ProductCode)
		assert.Equal(t, item.TotalSales, c.TotalSales, item.ProductCode)
		assert.Equal(t, item.Classification, c.Classification, item.ProductCode)
	}
}

func TestConsolidateIsIdempotent(t *testing.T) {
	t.Parallel()

	items, err := ClassifyAll(context.Background(), allRows(), DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, Consolidate(items, DefaultSettings()), Consolidate(items, DefaultSettings()))
}

func TestConsolidateEmpty(t *testing.T) {
	t.Parallel()

	out := Consolidate(nil, DefaultSettings())
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
