package stock_health

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBalanced(t *testing.T) {
	t.Parallel()

	m := NewInventoryCalculator(DefaultSettings()).Calculate(100, 120)

	assert.Equal(t, 2.0, m.DailyVelocity)
	assert.Equal(t, DaysOfSupply(50), m.DaysOfSupply)
	assert.Equal(t, Balanced, m.Classification)
	assert.Equal(t, 0, m.ExcessUnits)
	assert.Equal(t, []Suggestion{
		{Horizon: 30, Quantity: 0},
		{Horizon: 40, Quantity: 0},
		{Horizon: 50, Quantity: 0},
		{Horizon: 60, Quantity: 20},
	}, m.SuggestedReorder)
}

func TestCalculateExcess(t *testing.T) {
	t.Parallel()

	m := NewInventoryCalculator(DefaultSettings()).Calculate(500, 60)

	assert.Equal(t, 1.0, m.DailyVelocity)
	assert.Equal(t, DaysOfSupply(500), m.DaysOfSupply)
	assert.Equal(t, Excess, m.Classification)
	assert.Equal(t, 440, m.ExcessUnits)
	for _, s := range m.SuggestedReorder {
		assert.Zero(t, s.Quantity, "horizon %d", s.Horizon)
	}
}

func TestCalculateUnsold(t *testing.T) {
	t.Parallel()

	m := NewInventoryCalculator(DefaultSettings()).Calculate(10, 0)

	assert.Equal(t, 0.0, m.DailyVelocity)
	assert.True(t, m.DaysOfSupply.IsInfinite())
	assert.Equal(t, Unsold, m.Classification)
	assert.Equal(t, 10, m.ExcessUnits)
	for _, s := range m.SuggestedReorder {
		assert.Zero(t, s.Quantity)
	}
}

func TestCalculateNoStockNoSales(t *testing.T) {
	t.Parallel()

	m := NewInventoryCalculator(DefaultSettings()).Calculate(0, 0)

	assert.Equal(t, Balanced, m.Classification)
	assert.True(t, m.DaysOfSupply.IsInfinite())
	assert.Equal(t, 0, m.ExcessUnits)
	for _, s := range m.SuggestedReorder {
		assert.Zero(t, s.Quantity)
	}
}

func TestCalculateShortage(t *testing.T) {
	t.Parallel()

	// 600 sold in 60 days: 10/day, 50 units last 5 days.
	m := NewInventoryCalculator(DefaultSettings()).Calculate(50, 600)

	assert.Equal(t, Shortage, m.Classification)
	assert.Equal(t, DaysOfSupply(5), m.DaysOfSupply)
	assert.Equal(t, 250, m.SuggestionFor(30))
	assert.Equal(t, 550, m.SuggestionFor(60))
	assert.Equal(t, 0, m.SuggestionFor(90))
}

func TestCalculateThresholdBoundaries(t *testing.T) {
	t.Parallel()

	calc := NewInventoryCalculator(DefaultSettings())

	// exactly 20 days of supply is not a shortage
	assert.Equal(t, Balanced, calc.Calculate(20, 60).Classification)
	// exactly 60 days of supply is not an excess
	assert.Equal(t, Balanced, calc.Calculate(60, 60).Classification)
	assert.Equal(t, Excess, calc.Calculate(61, 60).Classification)
	assert.Equal(t, Shortage, calc.Calculate(19, 60).Classification)
}

func TestCalculateCeilingIsExact(t *testing.T) {
	t.Parallel()

	calc := NewInventoryCalculator(Settings{ShortageDays: 1, ExcessDays: 200, Horizons: []int{60}})

	m := calc.Calculate(0, 40)
	assert.Equal(t, Shortage, m.Classification)
	assert.Equal(t, 40, m.SuggestionFor(60))

	// 7/60 per day over 60 days is 7, not 8
	assert.Equal(t, 7, calc.Calculate(0, 7).SuggestionFor(60))
	assert.Equal(t, 1, calc.Calculate(0, 1).SuggestionFor(60))
}

func TestCalculateNegativeSalesCountAsZero(t *testing.T) {
	t.Parallel()

	m := NewInventoryCalculator(DefaultSettings()).Calculate(5, -3)
	assert.Equal(t, 0, m.TotalSales)
	assert.Equal(t, Unsold, m.Classification)
}

func TestCalculateSuggestionsAreNeverNegative(t *testing.T) {
	t.Parallel()

	calc := NewInventoryCalculator(Settings{ShortageDays: 10, ExcessDays: 45, Horizons: []int{7, 30, 45, 90}})
	for stock := 0; stock <= 200; stock += 7 {
		for sales := 0; sales <= 300; sales += 11 {
			m := calc.Calculate(stock, sales)
			require.Len(t, m.SuggestedReorder, 4)
			for _, s := range m.SuggestedReorder {
				assert.GreaterOrEqual(t, s.Quantity, 0)
				if m.Classification == Excess || m.Classification == Unsold {
					assert.Zero(t, s.Quantity, "stock=%d sales=%d", stock, sales)
				}
			}
			assert.GreaterOrEqual(t, m.ExcessUnits, 0)
		}
	}
}

func TestDaysOfSupplyJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(struct {
		D DaysOfSupply `json:"d"`
	}{DaysOfSupply(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":null}`, string(b))

	b, err = json.Marshal(DaysOfSupply(33.3333))
	require.NoError(t, err)
	assert.Equal(t, "33.33", string(b))

	var d DaysOfSupply
	require.NoError(t, json.Unmarshal([]byte("null"), &d))
	assert.True(t, d.IsInfinite())
}
